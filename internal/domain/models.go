package domain

import "time"

// Glucose thresholds in mg/dL.
const (
	TargetLow  = 70.0
	TargetHigh = 180.0

	// MmolToMgdl converts mmol/L to mg/dL.
	MmolToMgdl = 18.0
)

// DaySummary describes one simulated day.
type DaySummary struct {
	Day    time.Time
	Points int

	Min, Max   float64
	Mean       float64
	StdDev     float64
	Start, End float64

	// Percentages of points below, inside and above the target range.
	BelowRange float64
	InRange    float64
	AboveRange float64

	PeakAt  time.Time
	NadirAt time.Time
	Carbs   float64 // grams recorded
	Insulin float64 // units recorded
	Events  int
}

// FoodAnalysisResult is the model's answer for one food photo.
type FoodAnalysisResult struct {
	FoodItems    []string `json:"food_items"`
	Carbs        float64  `json:"carbs"`
	Weight       float64  `json:"weight"`
	Absorption   string   `json:"absorption"`
	Confidence   string   `json:"confidence"`
	AnalysisText string   `json:"analysis_text"`
}
