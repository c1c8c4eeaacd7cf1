package repository

import (
	"context"

	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"gorm.io/gorm"
)

// RecordRepository stores baseline readings and food analyses.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) AddBaselineReading(ctx context.Context, reading *database.BaselineReading) error {
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return apperrors.FromDatabase("add baseline reading", err)
	}
	return nil
}

// LatestBaselineReading returns the newest reading or a not_found error.
func (r *RecordRepository) LatestBaselineReading(ctx context.Context, userID uint) (*database.BaselineReading, error) {
	var reading database.BaselineReading
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		First(&reading).Error
	if err != nil {
		return nil, apperrors.FromDatabase("latest baseline reading", err)
	}
	return &reading, nil
}

func (r *RecordRepository) RecentBaselineReadings(ctx context.Context, userID uint, limit int) ([]database.BaselineReading, error) {
	var readings []database.BaselineReading
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, apperrors.FromDatabase("recent baseline readings", err)
	}
	return readings, nil
}

func (r *RecordRepository) SaveFoodAnalysis(ctx context.Context, analysis *database.FoodAnalysis) error {
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return apperrors.FromDatabase("save food analysis", err)
	}
	return nil
}

func (r *RecordRepository) GetFoodAnalysis(ctx context.Context, userID, id uint) (*database.FoodAnalysis, error) {
	var analysis database.FoodAnalysis
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&analysis, id).Error; err != nil {
		return nil, apperrors.FromDatabase("get food analysis", err)
	}
	return &analysis, nil
}

func (r *RecordRepository) MarkFoodAnalysisApplied(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&database.FoodAnalysis{}).Where("id = ?", id).Update("applied", true).Error
	return apperrors.FromDatabase("mark food analysis applied", err)
}
