package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/repository"
)

// Accepted meter range, mmol/L.
const (
	minReadingMmol = 1.0
	maxReadingMmol = 35.0
)

// BloodSugarService stores measured readings. The latest reading becomes the
// user's baseline, the glucose the simulated day starts from.
type BloodSugarService struct {
	records *repository.RecordRepository
	users   *repository.UserRepository
	now     func() time.Time
}

func NewBloodSugarService(records *repository.RecordRepository, users *repository.UserRepository) *BloodSugarService {
	return &BloodSugarService{records: records, users: users, now: time.Now}
}

// AddReading stores a reading given in mmol/L and returns it in mg/dL.
func (s *BloodSugarService) AddReading(ctx context.Context, userID uint, mmol float64) (float64, error) {
	if mmol < minReadingMmol || mmol > maxReadingMmol {
		return 0, apperrors.NewValidationError(fmt.Sprintf("reading must be within %.0f..%.0f mmol/L, got %v", minReadingMmol, maxReadingMmol, mmol))
	}
	mgdl := mmol * domain.MmolToMgdl

	reading := &database.BaselineReading{
		UserID:    userID,
		Value:     mgdl,
		Timestamp: s.now(),
	}
	if err := s.records.AddBaselineReading(ctx, reading); err != nil {
		return 0, fmt.Errorf("failed to create baseline reading: %w", err)
	}
	if err := s.users.UpdateBaselineGlucose(ctx, userID, mgdl); err != nil {
		return 0, err
	}
	return mgdl, nil
}

func (s *BloodSugarService) GetRecentReadings(ctx context.Context, userID uint, limit int) ([]database.BaselineReading, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.records.RecentBaselineReadings(ctx, userID, limit)
}
