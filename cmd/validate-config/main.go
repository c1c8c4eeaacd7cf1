package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/sugraph/internal/config"
)

func main() {
	fmt.Println("🔍 Проверка конфигурации...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env файл не найден: %v\n", err)
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Printf("❌ Ошибка валидации конфигурации:\n%v\n", err)
		os.Exit(1)
	}

	sim := cfg.Simulation
	fmt.Println("✅ Конфигурация валидна!")
	fmt.Printf("📋 Детали конфигурации:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - Gemini API Key: %s\n", maskToken(cfg.GeminiAPIKey))
	fmt.Printf("  - DB: %s@%s:%s/%s\n", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	fmt.Printf("  - Redis: %v (%s:%s)\n", cfg.Redis.Enabled, cfg.Redis.Host, cfg.Redis.Port)
	fmt.Printf("  - Log: %v, %s, %s\n", cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.OutputPath)
	fmt.Printf("  - Шаг симуляции: %d мин, старт %.0f мг/дл\n", sim.StepMinutes, sim.BaselineGlucose)
	fmt.Printf("  - Инсулин: действие %d мин, пик %d мин\n", sim.InsulinActionDuration, sim.InsulinPeak)
	fmt.Printf("  - Кривая углеводов: %s\n", sim.CarbCurve)
	fmt.Printf("  - ISF: %s, CR: %s\n", sim.DefaultISFSchedule, sim.DefaultCRSchedule)
	fmt.Printf("  - Часовой пояс: %s\n", sim.Location())
}

func maskToken(token string) string {
	if token == "" {
		return "<не установлен>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
