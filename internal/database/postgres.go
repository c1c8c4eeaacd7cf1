package database

import (
	"fmt"

	"github.com/vladimiradmaev/sugraph/internal/config"
	"github.com/vladimiradmaev/sugraph/internal/database/migrations"
	"github.com/vladimiradmaev/sugraph/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	registry := migrations.NewRegistry()
	if err := registry.LoadSQL(migrations.SQLFiles, "sql"); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := Migrate(db, registry); err != nil {
		return nil, err
	}

	logger.Info("Database connection established and migrations completed", "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}

// Migrate creates the tables from the models, then runs the pending
// registered migrations, which may rely on those tables.
func Migrate(db *gorm.DB, registry *migrations.Registry) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	if registry == nil {
		return nil
	}
	if err := registry.Run(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
