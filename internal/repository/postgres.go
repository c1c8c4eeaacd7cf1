package repository

import (
	"context"

	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"gorm.io/gorm"
)

// Store bundles the repositories over one connection.
type Store struct {
	db *gorm.DB

	Users      *UserRepository
	Schedules  *ScheduleRepository
	DataPoints *DataPointRepository
	Records    *RecordRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Schedules:  NewScheduleRepository(db),
		DataPoints: NewDataPointRepository(db),
		Records:    NewRecordRepository(db),
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.FromDatabase("ping", err)
	}
	return apperrors.FromDatabase("ping", sqlDB.PingContext(ctx))
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
