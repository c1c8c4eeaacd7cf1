package repository

import (
	"context"

	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"gorm.io/gorm"
)

// ScheduleRepository stores per-user ISF and CR schedule entries.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns the user's entries of one kind ordered by start time.
func (r *ScheduleRepository) List(ctx context.Context, userID uint, kind database.ScheduleKind) ([]database.ScheduleEntry, error) {
	var entries []database.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("start_time").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.FromDatabase("list schedule entries", err)
	}
	return entries, nil
}

func (r *ScheduleRepository) Create(ctx context.Context, entry *database.ScheduleEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.FromDatabase("create schedule entry", err)
	}
	return nil
}

// Delete removes one entry owned by the user.
func (r *ScheduleRepository) Delete(ctx context.Context, userID, entryID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&database.ScheduleEntry{}, entryID)
	if res.Error != nil {
		return apperrors.FromDatabase("delete schedule entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("schedule entry").WithContext("entry_id", entryID)
	}
	return nil
}

// Replace swaps the user's whole schedule of one kind in a transaction.
func (r *ScheduleRepository) Replace(ctx context.Context, userID uint, kind database.ScheduleKind, entries []database.ScheduleEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// hard delete so the partial unique index does not see stale rows
		if err := tx.Unscoped().Where("user_id = ? AND kind = ?", userID, kind).Delete(&database.ScheduleEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].UserID = userID
			entries[i].Kind = kind
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return apperrors.FromDatabase("replace schedule", err)
	}
	return nil
}
