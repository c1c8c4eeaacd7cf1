package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	"github.com/vladimiradmaev/sugraph/internal/repository"
)

type FoodAnalysisService struct {
	analyzer  domain.FoodAnalyzer
	records   *repository.RecordRepository
	schedules *ScheduleService
	loc       *time.Location
	now       func() time.Time
}

func NewFoodAnalysisService(analyzer domain.FoodAnalyzer, records *repository.RecordRepository, schedules *ScheduleService, loc *time.Location) *FoodAnalysisService {
	return &FoodAnalysisService{
		analyzer:  analyzer,
		records:   records,
		schedules: schedules,
		loc:       loc,
		now:       time.Now,
	}
}

// AnalyzeFood estimates the photo's carbs and suggests a bolus from the
// carb ratio in effect now.
func (s *FoodAnalysisService) AnalyzeFood(ctx context.Context, userID uint, imageURL string, weight float64) (*database.FoodAnalysis, error) {
	result, err := s.analyzer.AnalyzeFoodImage(ctx, imageURL, weight)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze food image: %w", err)
	}

	if weight <= 0 && result.Weight > 0 {
		weight = result.Weight
	}

	_, cr, err := s.schedules.Schedules(ctx, userID)
	if err != nil {
		return nil, err
	}
	ratio, err := cr.Resolve(s.now().In(s.loc))
	if err != nil {
		return nil, err
	}

	analysis := &database.FoodAnalysis{
		UserID:       userID,
		ImageURL:     imageURL,
		Weight:       weight,
		Carbs:        result.Carbs,
		Absorption:   result.Absorption,
		Confidence:   confidenceScore(result.Confidence),
		AnalysisText: result.AnalysisText,
		UsedProvider: "gemini",
		InsulinRatio: ratio,
		InsulinUnits: result.Carbs / ratio,
	}

	if err := s.records.SaveFoodAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return analysis, nil
}

func (s *FoodAnalysisService) GetAnalysis(ctx context.Context, userID, id uint) (*database.FoodAnalysis, error) {
	return s.records.GetFoodAnalysis(ctx, userID, id)
}

func (s *FoodAnalysisService) MarkApplied(ctx context.Context, id uint) error {
	return s.records.MarkFoodAnalysisApplied(ctx, id)
}

func confidenceScore(confidence string) float64 {
	switch strings.ToLower(confidence) {
	case "high":
		return 0.9
	case "medium":
		return 0.6
	case "low":
		return 0.3
	default:
		return 0.5
	}
}
