package services

import (
	"context"
	"fmt"

	"github.com/vladimiradmaev/sugraph/internal/database"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/repository"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
)

// ScheduleService manages the time-of-day ISF and CR schedules. Entries only
// carry a start time; each one lasts until the next, wrapping past midnight.
type ScheduleService struct {
	repo       *repository.ScheduleRepository
	defaultISF simulation.Schedule
	defaultCR  simulation.Schedule
}

func NewScheduleService(repo *repository.ScheduleRepository, defaultISF, defaultCR simulation.Schedule) *ScheduleService {
	return &ScheduleService{repo: repo, defaultISF: defaultISF, defaultCR: defaultCR}
}

func (s *ScheduleService) AddEntry(ctx context.Context, userID uint, kind database.ScheduleKind, startTime string, factor float64) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	start, err := simulation.NormalizeClock(startTime)
	if err != nil {
		return err
	}
	if factor <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("factor must be positive, got %v", factor))
	}

	existing, err := s.repo.List(ctx, userID, kind)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.StartTime == start {
			return apperrors.New(apperrors.ErrorTypeConflict, "SCHEDULE_OVERLAP",
				fmt.Sprintf("%s entry starting at %s already exists", kind, start))
		}
	}

	return s.repo.Create(ctx, &database.ScheduleEntry{
		UserID:    userID,
		Kind:      kind,
		StartTime: start,
		Factor:    factor,
	})
}

// ReplaceSchedule swaps the whole schedule for the "HH:MM=factor,..." form.
func (s *ScheduleService) ReplaceSchedule(ctx context.Context, userID uint, kind database.ScheduleKind, raw string) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	schedule, err := simulation.ParseSchedule(raw)
	if err != nil {
		return err
	}

	entries := make([]database.ScheduleEntry, 0, schedule.Len())
	for _, e := range schedule.Entries() {
		entries = append(entries, database.ScheduleEntry{StartTime: e.TimeOfDay, Factor: e.Factor})
	}
	return s.repo.Replace(ctx, userID, kind, entries)
}

// ClearSchedule removes the user's entries so the default applies again.
func (s *ScheduleService) ClearSchedule(ctx context.Context, userID uint, kind database.ScheduleKind) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	return s.repo.Replace(ctx, userID, kind, nil)
}

func (s *ScheduleService) GetEntries(ctx context.Context, userID uint, kind database.ScheduleKind) ([]database.ScheduleEntry, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID, kind)
}

func (s *ScheduleService) DeleteEntry(ctx context.Context, userID, entryID uint) error {
	return s.repo.Delete(ctx, userID, entryID)
}

// Schedules builds both schedules for the user. A kind with no stored
// entries falls back to the configured default.
func (s *ScheduleService) Schedules(ctx context.Context, userID uint) (isf, cr simulation.Schedule, err error) {
	isf, err = s.schedule(ctx, userID, database.ScheduleISF, s.defaultISF)
	if err != nil {
		return simulation.Schedule{}, simulation.Schedule{}, err
	}
	cr, err = s.schedule(ctx, userID, database.ScheduleCR, s.defaultCR)
	if err != nil {
		return simulation.Schedule{}, simulation.Schedule{}, err
	}
	return isf, cr, nil
}

func (s *ScheduleService) schedule(ctx context.Context, userID uint, kind database.ScheduleKind, fallback simulation.Schedule) (simulation.Schedule, error) {
	stored, err := s.repo.List(ctx, userID, kind)
	if err != nil {
		return simulation.Schedule{}, err
	}
	if len(stored) == 0 {
		return fallback, nil
	}

	entries := make([]simulation.ScheduleEntry, len(stored))
	for i, e := range stored {
		entries[i] = simulation.ScheduleEntry{TimeOfDay: e.StartTime, Factor: e.Factor}
	}
	return simulation.NewSchedule(entries)
}

func validateKind(kind database.ScheduleKind) error {
	switch kind {
	case database.ScheduleISF, database.ScheduleCR:
		return nil
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown schedule kind %q", kind))
	}
}
