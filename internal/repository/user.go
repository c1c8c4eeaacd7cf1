package repository

import (
	"context"
	"errors"

	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"gorm.io/gorm"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateUser gets an existing user or creates a new one
func (r *UserRepository) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.User, error) {
	var user database.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.FromDatabase("get user", err)
	}

	user = database.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperrors.FromDatabase("create user", err)
	}
	return &user, nil
}

// GetUserByTelegramID gets a user by their Telegram ID
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeNotFound, apperrors.ErrUserNotFound.Code, apperrors.ErrUserNotFound.Message).
				WithContext("telegram_id", telegramID)
		}
		return nil, apperrors.FromDatabase("get user", err)
	}
	return &user, nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID uint) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeNotFound, apperrors.ErrUserNotFound.Code, apperrors.ErrUserNotFound.Message).
				WithContext("user_id", userID)
		}
		return nil, apperrors.FromDatabase("get user", err)
	}
	return &user, nil
}

// UpdateInsulinProfile stores the user's insulin action duration and peak, in minutes.
func (r *UserRepository) UpdateInsulinProfile(ctx context.Context, userID uint, duration, peak int) error {
	return r.update(ctx, userID, map[string]interface{}{
		"active_insulin_time": duration,
		"insulin_peak":        peak,
	})
}

// UpdateBaselineGlucose stores the glucose that seeds the user's simulated day, in mg/dL.
func (r *UserRepository) UpdateBaselineGlucose(ctx context.Context, userID uint, glucose float64) error {
	return r.update(ctx, userID, map[string]interface{}{"baseline_glucose": glucose})
}

func (r *UserRepository) UpdateCarbCurve(ctx context.Context, userID uint, curve string) error {
	return r.update(ctx, userID, map[string]interface{}{"carb_curve": curve})
}

func (r *UserRepository) update(ctx context.Context, userID uint, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", userID).Updates(values)
	if res.Error != nil {
		return apperrors.FromDatabase("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Wrap(apperrors.ErrUserNotFound, apperrors.ErrorTypeNotFound, apperrors.ErrUserNotFound.Code, apperrors.ErrUserNotFound.Message).
			WithContext("user_id", userID)
	}
	return nil
}
