package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/logger"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SIM_STEP_MINUTES", "SIM_BASELINE_GLUCOSE", "SIM_INSULIN_DURATION", "SIM_INSULIN_PEAK",
		"SIM_CARB_CURVE", "SIM_ISF_SCHEDULE", "SIM_CR_SCHEDULE", "SIM_TIMEZONE",
		"REDIS_ENABLED", "LOG_LEVEL", "DB_NAME",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Simulation.StepMinutes)
	assert.Equal(t, 280.0, cfg.Simulation.BaselineGlucose)
	assert.Equal(t, 210.0, cfg.Simulation.InsulinProfile().ActionDuration)
	assert.Equal(t, 90.0, cfg.Simulation.InsulinProfile().Peak)
	assert.Equal(t, "triangular", cfg.Simulation.CarbCurve)
	assert.Equal(t, "00:00=50", cfg.Simulation.DefaultISFSchedule)
	assert.Equal(t, time.UTC, cfg.Simulation.Location())
	assert.Equal(t, logger.LevelInfo, cfg.Logger.Level)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "sugraph", cfg.DB.DBName)
}

func TestLoad_MalformedNumbers(t *testing.T) {
	t.Setenv("SIM_STEP_MINUTES", "five")
	t.Setenv("SIM_INSULIN_PEAK", "1h")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIM_STEP_MINUTES")
	assert.Contains(t, err.Error(), "SIM_INSULIN_PEAK")
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SIM_TIMEZONE", "UTC")
	t.Setenv("SIM_ISF_SCHEDULE", "00:00=50,12:00=40")
	t.Setenv("SIM_CR_SCHEDULE", "00:00=10")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Simulation.InsulinPeak = 300
	cfg.Simulation.DefaultCRSchedule = ""
	cfg.Simulation.CarbCurve = "sigmoid"
	cfg.TelegramToken = ""

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"TELEGRAM_BOT_TOKEN", "SIM_INSULIN_DURATION", "SIM_CR_SCHEDULE", "SIM_CARB_CURVE"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDBConfig_DSN(t *testing.T) {
	dsn := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n"}.DSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", dsn)
}
