package services

import (
	"context"
	"fmt"

	"github.com/vladimiradmaev/sugraph/internal/config"
	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/repository"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

type UserService struct {
	users    *repository.UserRepository
	defaults config.SimulationConfig
}

func NewUserService(users *repository.UserRepository, defaults config.SimulationConfig) *UserService {
	return &UserService{users: users, defaults: defaults}
}

func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.User, error) {
	user, err := s.users.GetOrCreateUser(ctx, telegramID, username, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*database.User, error) {
	return s.users.GetUserByTelegramID(ctx, telegramID)
}

// InsulinProfile returns the user's profile, falling back to the configured
// default for unset fields.
func (s *UserService) InsulinProfile(user *database.User) simulation.InsulinProfile {
	profile := s.defaults.InsulinProfile()
	if user.ActiveInsulinTime > 0 {
		profile.ActionDuration = float64(user.ActiveInsulinTime)
	}
	if user.InsulinPeak > 0 {
		profile.Peak = float64(user.InsulinPeak)
	}
	if profile.Validate() != nil {
		return s.defaults.InsulinProfile()
	}
	return profile
}

// SetInsulinProfile stores the action duration and peak, in minutes.
func (s *UserService) SetInsulinProfile(ctx context.Context, user *database.User, duration, peak int) error {
	profile := simulation.InsulinProfile{ActionDuration: float64(duration), Peak: float64(peak)}
	if err := profile.Validate(); err != nil {
		return err
	}
	if duration > 12*60 {
		return apperrors.NewValidationError(fmt.Sprintf("insulin action longer than 12 hours: %d minutes", duration))
	}
	if err := s.users.UpdateInsulinProfile(ctx, user.ID, duration, peak); err != nil {
		return err
	}
	user.ActiveInsulinTime, user.InsulinPeak = duration, peak
	return nil
}

func (s *UserService) SetCarbCurve(ctx context.Context, user *database.User, curve string) error {
	c, err := simulation.CurveByName(curve)
	if err != nil {
		return err
	}
	if err := s.users.UpdateCarbCurve(ctx, user.ID, c.Name()); err != nil {
		return err
	}
	user.CarbCurve = c.Name()
	return nil
}

// CarbCurve resolves the user's carb absorption strategy.
func (s *UserService) CarbCurve(user *database.User) simulation.ActivityCurve {
	name := user.CarbCurve
	if name == "" {
		name = s.defaults.CarbCurve
	}
	c, err := simulation.CurveByName(name)
	if err != nil {
		return simulation.TriangularCurve{}
	}
	return c
}

// BaselineGlucose is the glucose at the user's first point, in mg/dL.
func (s *UserService) BaselineGlucose(user *database.User) float64 {
	if user.BaselineGlucose > 0 {
		return user.BaselineGlucose
	}
	return s.defaults.BaselineGlucose
}
