package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/sugraph/internal/logger"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

type Config struct {
	TelegramToken string
	GeminiAPIKey  string
	DB            DBConfig
	Redis         RedisConfig
	Logger        LoggerConfig
	Simulation    SimulationConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type RedisConfig struct {
	Enabled bool
	Host    string
	Port    string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

// SimulationConfig holds the defaults used for users who have not set their
// own schedules or insulin profile.
type SimulationConfig struct {
	StepMinutes           int
	BaselineGlucose       float64 // mg/dL
	InsulinActionDuration int     // minutes
	InsulinPeak           int     // minutes
	CarbCurve             string
	DefaultISFSchedule    string
	DefaultCRSchedule     string
	Timezone              string
}

// Location resolves Timezone, falling back to UTC.
func (c SimulationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InsulinProfile converts the configured durations.
func (c SimulationConfig) InsulinProfile() simulation.InsulinProfile {
	return simulation.InsulinProfile{
		ActionDuration: float64(c.InsulinActionDuration),
		Peak:           float64(c.InsulinPeak),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func getFloatOrDefault(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return v, nil
}

func getBoolOrDefault(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, raw)
	}
	return v, nil
}

// Load reads the configuration from the environment. Malformed numbers are
// errors; semantic checks live in Validate.
func Load() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	redisEnabled, err := getBoolOrDefault("REDIS_ENABLED", false)
	collect(err)
	step, err := getIntOrDefault("SIM_STEP_MINUTES", 5)
	collect(err)
	baseline, err := getFloatOrDefault("SIM_BASELINE_GLUCOSE", 280)
	collect(err)
	insulinDuration, err := getIntOrDefault("SIM_INSULIN_DURATION", 210)
	collect(err)
	insulinPeak, err := getIntOrDefault("SIM_INSULIN_PEAK", 90)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "sugraph"),
		},
		Redis: RedisConfig{
			Enabled: redisEnabled,
			Host:    getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:    getEnvOrDefault("REDIS_PORT", "6379"),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/sugraph.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Simulation: SimulationConfig{
			StepMinutes:           step,
			BaselineGlucose:       baseline,
			InsulinActionDuration: insulinDuration,
			InsulinPeak:           insulinPeak,
			CarbCurve:             getEnvOrDefault("SIM_CARB_CURVE", simulation.CurveTriangular),
			DefaultISFSchedule:    getEnvOrDefault("SIM_ISF_SCHEDULE", "00:00=50"),
			DefaultCRSchedule:     getEnvOrDefault("SIM_CR_SCHEDULE", "00:00=10"),
			Timezone:              getEnvOrDefault("SIM_TIMEZONE", "UTC"),
		},
	}, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.DB.Host == "" || c.DB.DBName == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required when REDIS_ENABLED is set"))
	}
	switch strings.ToLower(c.Logger.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logger.Format))
	}

	errs = append(errs, c.Simulation.validate()...)
	return errors.Join(errs...)
}

func (c SimulationConfig) validate() []error {
	var errs []error
	if c.StepMinutes <= 0 || c.StepMinutes > 60 {
		errs = append(errs, fmt.Errorf("SIM_STEP_MINUTES must be within 1..60, got %d", c.StepMinutes))
	}
	if c.BaselineGlucose < 0 {
		errs = append(errs, fmt.Errorf("SIM_BASELINE_GLUCOSE must be non-negative, got %v", c.BaselineGlucose))
	}
	if err := c.InsulinProfile().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("SIM_INSULIN_DURATION/SIM_INSULIN_PEAK: %w", err))
	}
	if _, err := simulation.CurveByName(c.CarbCurve); err != nil {
		errs = append(errs, fmt.Errorf("SIM_CARB_CURVE: %w", err))
	}
	if _, err := simulation.ParseSchedule(c.DefaultISFSchedule); err != nil {
		errs = append(errs, fmt.Errorf("SIM_ISF_SCHEDULE: %w", err))
	}
	if _, err := simulation.ParseSchedule(c.DefaultCRSchedule); err != nil {
		errs = append(errs, fmt.Errorf("SIM_CR_SCHEDULE: %w", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SIM_TIMEZONE: %w", err))
	}
	return errs
}
