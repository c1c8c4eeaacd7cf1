package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vladimiradmaev/sugraph/internal/domain"
)

// API is the subset of *tgbotapi.BotAPI the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	UserService     domain.UserService
	ScheduleSvc     domain.ScheduleService
	BloodSugarSvc   domain.BloodSugarService
	FoodAnalysisSvc domain.FoodAnalysisService
	SimulationSvc   domain.SimulationService
}
