package domain

import (
	"context"

	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// UserService handles user-related operations
type UserService interface {
	RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*database.User, error)
	InsulinProfile(user *database.User) simulation.InsulinProfile
	SetInsulinProfile(ctx context.Context, user *database.User, duration, peak int) error
	SetCarbCurve(ctx context.Context, user *database.User, curve string) error
	CarbCurve(user *database.User) simulation.ActivityCurve
	BaselineGlucose(user *database.User) float64
}

// ScheduleService manages the per-user ISF and CR schedules.
type ScheduleService interface {
	AddEntry(ctx context.Context, userID uint, kind database.ScheduleKind, startTime string, factor float64) error
	ReplaceSchedule(ctx context.Context, userID uint, kind database.ScheduleKind, raw string) error
	ClearSchedule(ctx context.Context, userID uint, kind database.ScheduleKind) error
	GetEntries(ctx context.Context, userID uint, kind database.ScheduleKind) ([]database.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID uint) error
	Schedules(ctx context.Context, userID uint) (isf, cr simulation.Schedule, err error)
}

// BloodSugarService records measured glucose used as the day's starting point.
type BloodSugarService interface {
	AddReading(ctx context.Context, userID uint, mmol float64) (float64, error)
	GetRecentReadings(ctx context.Context, userID uint, limit int) ([]database.BaselineReading, error)
}

// FoodAnalyzer estimates carbohydrates from a food photo.
type FoodAnalyzer interface {
	AnalyzeFoodImage(ctx context.Context, imageURL string, weight float64) (*FoodAnalysisResult, error)
}

// FoodAnalysisService turns photos into stored carb estimates.
type FoodAnalysisService interface {
	AnalyzeFood(ctx context.Context, userID uint, imageURL string, weight float64) (*database.FoodAnalysis, error)
	GetAnalysis(ctx context.Context, userID, id uint) (*database.FoodAnalysis, error)
	MarkApplied(ctx context.Context, id uint) error
}

// SimulationService owns each user's simulated day.
type SimulationService interface {
	Timeline(ctx context.Context, user *database.User) (simulation.Timeline, error)
	PointAt(ctx context.Context, user *database.User, clock string) (simulation.DataPoint, error)
	ApplyEvent(ctx context.Context, user *database.User, clock string, carbs, bolus float64, profile string) (simulation.DataPoint, error)
	RemoveEvent(ctx context.Context, user *database.User, entryID int64) error
	Undo(ctx context.Context, user *database.User) (eventlog.Entry, error)
	ResetDay(ctx context.Context, user *database.User) error
	Events(ctx context.Context, user *database.User) ([]eventlog.Entry, error)
	Summary(ctx context.Context, user *database.User) (DaySummary, error)
	Chart(ctx context.Context, user *database.User) ([]byte, error)
	Reconfigure(ctx context.Context, user *database.User) error
}

// BotService handles telegram bot operations
type BotService interface {
	Start(ctx context.Context) error
	Stop()
}
