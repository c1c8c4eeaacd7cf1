package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/database/migrations"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrate_CreatesTablesAndUniqueTimestampPerUser(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db, migrations.NewRegistry()))
	for _, table := range []string{"users", "schedule_entries", "data_points", "food_analyses", "baseline_readings", "migration_records"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := DataPointRecord{
		ID:        uuid.New(),
		UserID:    1,
		Glucose:   150,
		Timestamp: ts,
		BasalRate: decimal.NewFromFloat(0.85),
	}
	require.NoError(t, db.Create(&rec).Error)

	dup := rec
	dup.ID = uuid.New()
	assert.Error(t, db.Create(&dup).Error)

	other := rec
	other.ID = uuid.New()
	other.UserID = 2
	assert.NoError(t, db.Create(&other).Error)

	var got DataPointRecord
	require.NoError(t, db.First(&got, "id = ?", rec.ID).Error)
	assert.True(t, decimal.NewFromFloat(0.85).Equal(got.BasalRate))
	assert.False(t, got.BolusAmount.Valid)
}
