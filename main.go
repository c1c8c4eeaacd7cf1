package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/sugraph/internal/bot"
	"github.com/vladimiradmaev/sugraph/internal/bot/handlers"
	"github.com/vladimiradmaev/sugraph/internal/bot/state"
	"github.com/vladimiradmaev/sugraph/internal/config"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	"github.com/vladimiradmaev/sugraph/internal/logger"
	"github.com/vladimiradmaev/sugraph/internal/repository"
	"github.com/vladimiradmaev/sugraph/internal/services"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	defer logger.Close()
	logger.Info("Starting SugarGraph bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		return err
	}
	store := repository.NewStore(db)
	defer store.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return err
	}

	isf, err := simulation.ParseSchedule(cfg.Simulation.DefaultISFSchedule)
	if err != nil {
		return err
	}
	cr, err := simulation.ParseSchedule(cfg.Simulation.DefaultCRSchedule)
	if err != nil {
		return err
	}
	loc := cfg.Simulation.Location()

	aiService, err := services.NewAIService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}
	defer aiService.Close()

	userService := services.NewUserService(store.Users, cfg.Simulation)
	scheduleService := services.NewScheduleService(store.Schedules, isf, cr)
	deps := handlers.Dependencies{
		UserService:     userService,
		ScheduleSvc:     scheduleService,
		BloodSugarSvc:   services.NewBloodSugarService(store.Records, store.Users),
		FoodAnalysisSvc: services.NewFoodAnalysisService(aiService, store.Records, scheduleService, loc),
		SimulationSvc:   services.NewSimulationService(store.DataPoints, userService, scheduleService, cfg.Simulation.StepMinutes, loc),
	}
	logger.Info("Services initialized")

	stateManager := newStateManager(cfg.Redis)
	if closer, ok := stateManager.(*state.RedisManager); ok {
		defer closer.Close()
	}

	var telegramBot domain.BotService
	telegramBot, err = bot.NewBot(cfg.TelegramToken, deps, stateManager)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		telegramBot.Stop()
		return nil
	})
	return g.Wait()
}

// newStateManager prefers Redis and falls back to memory.
func newStateManager(cfg config.RedisConfig) state.StateManager {
	if !cfg.Enabled {
		return state.NewManager()
	}
	redisManager, err := state.NewRedisManager(cfg.Host, cfg.Port)
	if err != nil {
		logger.Warn("Redis unavailable, keeping conversation state in memory", "error", err)
		return state.NewManager()
	}
	logger.Info("Conversation state stored in Redis", "host", cfg.Host, "port", cfg.Port)
	return redisManager
}
