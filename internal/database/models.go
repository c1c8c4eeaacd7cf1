package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	TelegramID        int64 `gorm:"uniqueIndex"`
	Username          string
	FirstName         string
	LastName          string
	ActiveInsulinTime int     `gorm:"default:0"` // minutes, 0 means the configured default
	InsulinPeak       int     `gorm:"default:0"` // minutes, 0 means the configured default
	BaselineGlucose   float64 `gorm:"default:0"` // mg/dL, 0 means the configured default
	CarbCurve         string  `gorm:"type:varchar(16)"`
}

// ScheduleKind selects which factor a schedule entry carries.
type ScheduleKind string

const (
	ScheduleISF ScheduleKind = "isf"
	ScheduleCR  ScheduleKind = "cr"
)

// ScheduleEntry is one row of a user's time-of-day ISF or CR schedule.
type ScheduleEntry struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	User      User
	Kind      ScheduleKind `gorm:"type:varchar(8);index"`
	StartTime string       `gorm:"type:varchar(5)"` // HH:MM
	Factor    float64
}

// DataPointRecord is the persisted shape of a simulation sample. Fixed-point
// columns carry two fractional digits.
type DataPointRecord struct {
	ID                       uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                   uint                `gorm:"not null;uniqueIndex:idx_data_points_user_ts,priority:1" json:"-"`
	Glucose                  int                 `gorm:"not null" json:"glucose"`
	CarbsConsumed            *int                `json:"carbsConsumed"`
	CarbsOnBoard             decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"carbsOnBoard"`
	InsulinOnBoard           decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"insulinOnBoard"`
	InsulinActivity          decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"insulinActivity"`
	BasalRate                decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"basalRate"`
	BolusAmount              decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"bolusAmount"`
	Timestamp                time.Time           `gorm:"column:simulated_timestamp;not null;uniqueIndex:idx_data_points_user_ts,priority:2" json:"timestamp"`
	ActivityLevel            string              `gorm:"type:varchar(50)" json:"activityLevel"`
	InsulinSensitivityFactor int                 `json:"insulinSensitivityFactor"`
	CarbohydrateRatio        int                 `json:"carbohydrateRatio"`
	SimulationDuration       int                 `json:"simulationDuration"`
	CreatedAt                time.Time           `json:"-"`
	UpdatedAt                time.Time           `json:"-"`
}

func (DataPointRecord) TableName() string {
	return "data_points"
}

type FoodAnalysis struct {
	gorm.Model
	UserID       uint
	User         User
	ImageURL     string
	Weight       float64
	Carbs        float64
	Absorption   string `gorm:"type:varchar(16)"` // fast, medium or slow
	Confidence   float64
	AnalysisText string
	UsedProvider string
	InsulinRatio float64
	InsulinUnits float64
	// Applied is set once the estimate was placed on the timeline.
	Applied bool `gorm:"default:false"`
}

// BaselineReading is a measured glucose value that seeds a simulated day.
type BaselineReading struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	User      User
	Value     float64 // mg/dL
	Timestamp time.Time
}

// Models lists every auto-migrated table.
func Models() []interface{} {
	return []interface{}{&User{}, &ScheduleEntry{}, &DataPointRecord{}, &FoodAnalysis{}, &BaselineReading{}}
}
