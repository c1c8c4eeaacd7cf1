package repository

import (
	"context"
	"time"

	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 100

// DataPointRepository stores simulated days, one row per user and timestamp.
type DataPointRepository struct {
	db *gorm.DB
}

func NewDataPointRepository(db *gorm.DB) *DataPointRepository {
	return &DataPointRepository{db: db}
}

// Fetch returns the user's points in [start, end) ordered by timestamp, in UTC. An
// empty range is not an error.
func (r *DataPointRepository) Fetch(ctx context.Context, userID uint, start, end time.Time) ([]simulation.DataPoint, error) {
	if !end.After(start) {
		return nil, apperrors.NewValidationError("range end must be after range start").
			WithContext("start", start).
			WithContext("end", end)
	}

	var records []database.DataPointRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND simulated_timestamp >= ? AND simulated_timestamp < ?", userID, start.UTC(), end.UTC()).
		Order("simulated_timestamp").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.FromDatabase("fetch data points", err)
	}

	points := make([]simulation.DataPoint, len(records))
	for i, rec := range records {
		points[i] = FromRecord(rec)
	}
	return points, nil
}

// Upsert inserts the points or updates the rows already stored at the same
// (user, timestamp). Every point is validated before anything is written.
// Returns the number of rows modified.
func (r *DataPointRepository) Upsert(ctx context.Context, userID uint, points []simulation.DataPoint) (int64, error) {
	if len(points) == 0 {
		return 0, nil
	}

	records := make([]database.DataPointRecord, len(points))
	for i, p := range points {
		rec, err := ToRecord(userID, p)
		if err != nil {
			return 0, err
		}
		records[i] = rec
	}

	var modified int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(records); start += upsertBatchSize {
			end := min(start+upsertBatchSize, len(records))
			batch := records[start:end]
			res := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "simulated_timestamp"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"glucose", "carbs_consumed", "carbs_on_board", "insulin_on_board",
					"insulin_activity", "basal_rate", "bolus_amount", "activity_level",
					"insulin_sensitivity_factor", "carbohydrate_ratio", "simulation_duration",
					"updated_at",
				}),
			}).Create(&batch)
			if res.Error != nil {
				return res.Error
			}
			modified += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.FromDatabase("upsert data points", err)
	}
	return modified, nil
}

// DeleteRange removes the user's points in [start, end).
func (r *DataPointRepository) DeleteRange(ctx context.Context, userID uint, start, end time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND simulated_timestamp >= ? AND simulated_timestamp < ?", userID, start.UTC(), end.UTC()).
		Delete(&database.DataPointRecord{})
	if res.Error != nil {
		return 0, apperrors.FromDatabase("delete data points", res.Error)
	}
	return res.RowsAffected, nil
}
