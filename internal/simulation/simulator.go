package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/logger"
)

// Config holds everything a Simulator needs to build and evaluate a day.
type Config struct {
	StepMinutes int
	Baseline    float64 // mg/dL at the first point
	Insulin     InsulinProfile
	CarbCurve   ActivityCurve // nil means TriangularCurve
	ISF         Schedule
	CR          Schedule
	Logger      *slog.Logger
}

// Validate rejects configurations that cannot produce a timeline. Empty
// schedules are configuration errors.
func (c Config) Validate() error {
	if c.StepMinutes <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("step must be positive, got %d minutes", c.StepMinutes))
	}
	if c.ISF.Len() == 0 {
		return apperrors.Wrap(apperrors.ErrEmptySchedule, apperrors.ErrorTypeConfiguration, apperrors.ErrEmptySchedule.Code, "ISF schedule has no entries")
	}
	if c.CR.Len() == 0 {
		return apperrors.Wrap(apperrors.ErrEmptySchedule, apperrors.ErrorTypeConfiguration, apperrors.ErrEmptySchedule.Code, "CR schedule has no entries")
	}
	return c.Insulin.Validate()
}

// Simulator owns one user's day: the timeline, both activity models and the
// event log. Edits are serialized; every edit publishes a fully evaluated
// snapshot, so readers see either the old or the new day and never a partial
// one. An edit that arrives while an earlier evaluation is still running
// cancels it and the earlier caller gets ErrSuperseded.
type Simulator struct {
	cfg Config
	log *slog.Logger

	mu         sync.Mutex
	base       Timeline // amounts, factors and the first glucose; derived fields stale
	carbs      *CarbModel
	insulin    *InsulinModel
	events     *eventlog.Log
	generation uint64
	cancel     context.CancelFunc

	snapshot atomic.Pointer[Timeline]
}

type recomputation struct {
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	timeline   Timeline
	evaluator  *Evaluator
}

// NewSimulator builds and evaluates an empty day containing day.
func NewSimulator(cfg Config, day time.Time) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.WithComponent("simulator")
	}

	insulin, err := NewInsulinModel(cfg.Insulin)
	if err != nil {
		return nil, err
	}
	base, err := cfg.dayTimeline(day)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:     cfg,
		log:     cfg.Logger,
		base:    base,
		carbs:   NewCarbModel(cfg.CarbCurve),
		insulin: insulin,
		events:  eventlog.New(),
	}
	s.mu.Lock()
	job := s.beginLocked(context.Background())
	s.mu.Unlock()
	if _, err := s.run(job); err != nil {
		return nil, err
	}
	return s, nil
}

func (c Config) dayTimeline(day time.Time) (Timeline, error) {
	tl, err := GenerateTimeline(day, c.StepMinutes, c.Baseline)
	if err != nil {
		return Timeline{}, err
	}
	return ApplyFactors(tl, c.ISF, c.CR)
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Timeline returns the latest evaluated snapshot.
func (s *Simulator) Timeline() Timeline {
	return *s.snapshot.Load()
}

// EventLog exposes the log so front-ends can subscribe to it.
func (s *Simulator) EventLog() *eventlog.Log {
	return s.events
}

// Events lists the logged events in insertion order.
func (s *Simulator) Events() []eventlog.Entry {
	return s.events.Entries()
}

// CarbEvents lists the tracked meals ordered by time.
func (s *Simulator) CarbEvents() []CarbEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carbs.Events()
}

// BolusEvents lists the tracked boluses ordered by time.
func (s *Simulator) BolusEvents() []BolusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insulin.Events()
}

// TimestampAt maps a position on the day, in minutes from the first point,
// to the nearest point. Positions outside the day clamp to its ends.
func (s *Simulator) TimestampAt(minutesFromStart float64) (DataPoint, error) {
	tl := s.Timeline()
	i, err := tl.Nearest(minutesFromStart)
	if err != nil {
		return DataPoint{}, err
	}
	return tl.At(i), nil
}

// ApplyEvent records carbs and/or a bolus at the point with exactly ts and
// re-evaluates the day. Non-positive amounts are skipped; if both are skipped
// nothing changes. Amounts accumulate on a point that already has one.
func (s *Simulator) ApplyEvent(ctx context.Context, ts time.Time, carbs, bolus float64, profile CarbProfile) (Timeline, error) {
	s.mu.Lock()
	idx, ok := s.base.IndexOf(ts)
	if !ok {
		s.mu.Unlock()
		return Timeline{}, noMatchingPoint(ts)
	}
	if carbs > 0 {
		if err := validateShape(profile.AbsorptionDuration, profile.Peak); err != nil {
			s.mu.Unlock()
			return Timeline{}, err
		}
	}

	var carbID, bolusID *uuid.UUID
	point := s.base.At(idx)
	if e, ok := s.carbs.Add(ts, carbs, profile); ok {
		carbID = &e.ID
		point.CarbsConsumed = addAmount(point.CarbsConsumed, carbs)
	}
	if e, ok := s.insulin.Add(ts, bolus); ok {
		bolusID = &e.ID
		point.BolusAmount = addAmount(point.BolusAmount, bolus)
	}

	kind, recorded := eventlog.TypeFor(carbID != nil, bolusID != nil)
	if !recorded {
		s.mu.Unlock()
		s.log.Debug("Event skipped, no positive amount", "timestamp", ts, "carbs", carbs, "bolus", bolus)
		return s.Timeline(), nil
	}

	base, err := s.base.Replace(idx, point)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	s.base = base
	batch := s.events.Batch()
	entry := batch.Add(kind, ts, idx, carbID, bolusID)
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	batch.Flush()
	s.log.Info("Event applied",
		"entry_id", entry.ID,
		"type", kind,
		"timestamp", ts,
		"carbs", carbs,
		"bolus", bolus,
		"profile", profile.Name)

	return s.run(job)
}

// RemoveEvent deletes a log entry together with the model events and point
// amounts it recorded, then re-evaluates.
func (s *Simulator) RemoveEvent(ctx context.Context, entryID int64) (Timeline, error) {
	s.mu.Lock()
	entry, ok := s.events.Get(entryID)
	if !ok {
		s.mu.Unlock()
		return Timeline{}, apperrors.NewNotFoundError(fmt.Sprintf("event log entry %d", entryID))
	}
	return s.removeLocked(ctx, entry)
}

// Undo removes the most recent logged event.
func (s *Simulator) Undo(ctx context.Context) (eventlog.Entry, Timeline, error) {
	s.mu.Lock()
	entry, ok := s.events.Last()
	if !ok {
		s.mu.Unlock()
		return eventlog.Entry{}, Timeline{}, apperrors.NewNotFoundError("event to undo")
	}
	tl, err := s.removeLocked(ctx, entry)
	return entry, tl, err
}

// removeLocked retracts entry and re-evaluates. It is entered with s.mu held
// and releases it.
func (s *Simulator) removeLocked(ctx context.Context, entry eventlog.Entry) (Timeline, error) {
	if err := s.retractLocked(entry); err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	batch := s.events.Batch()
	if _, err := batch.Remove(entry.ID); err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	batch.Flush()
	s.log.Info("Event removed", "entry_id", entry.ID, "type", entry.Type, "timestamp", entry.Time)
	return s.run(job)
}

func (s *Simulator) retractLocked(entry eventlog.Entry) error {
	idx, onTimeline := s.base.IndexOf(entry.Time)
	var point DataPoint
	if onTimeline {
		point = s.base.At(idx)
	}

	if entry.CarbEventID != nil {
		if e, ok := s.carbs.Get(*entry.CarbEventID); ok {
			s.carbs.Remove(e.ID)
			point.CarbsConsumed = subtractAmount(point.CarbsConsumed, e.Amount)
		}
	}
	if entry.BolusEventID != nil {
		if e, ok := s.insulin.Get(*entry.BolusEventID); ok {
			s.insulin.Remove(e.ID)
			point.BolusAmount = subtractAmount(point.BolusAmount, e.Amount)
		}
	}

	if !onTimeline {
		return nil
	}
	base, err := s.base.Replace(idx, point)
	if err != nil {
		return err
	}
	s.base = base
	return nil
}

// Reset replaces the day wholesale with imported points. The models are
// rebuilt from the points' recorded amounts; carbs get the medium profile
// because stored points do not carry one.
func (s *Simulator) Reset(ctx context.Context, points []DataPoint) (Timeline, error) {
	tl, err := NewTimeline(points)
	if err != nil {
		return Timeline{}, err
	}

	s.mu.Lock()
	carbs := NewCarbModel(s.cfg.CarbCurve)
	insulin, err := NewInsulinModel(s.cfg.Insulin)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}

	type imported struct {
		idx     int
		at      time.Time
		carbID  *uuid.UUID
		bolusID *uuid.UUID
	}
	var logged []imported
	for i, p := range tl.points {
		rec := imported{idx: i, at: p.Timestamp}
		if p.CarbsConsumed != nil {
			if e, ok := carbs.Add(p.Timestamp, *p.CarbsConsumed, CarbsMedium); ok {
				rec.carbID = &e.ID
			}
		}
		if p.BolusAmount != nil {
			if e, ok := insulin.Add(p.Timestamp, *p.BolusAmount); ok {
				rec.bolusID = &e.ID
			}
		}
		if rec.carbID != nil || rec.bolusID != nil {
			logged = append(logged, rec)
		}
	}

	s.base = tl
	s.carbs = carbs
	s.insulin = insulin
	batch := s.events.Batch()
	batch.Clear()
	for _, rec := range logged {
		kind, _ := eventlog.TypeFor(rec.carbID != nil, rec.bolusID != nil)
		batch.Add(kind, rec.at, rec.idx, rec.carbID, rec.bolusID)
	}
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	batch.Flush()
	s.log.Info("Timeline reset", "points", tl.Len(), "events", len(logged))
	return s.run(job)
}

// Regenerate starts a fresh day. Events still acting at its midnight carry
// over; fully absorbed ones are evicted along with their log entries.
func (s *Simulator) Regenerate(ctx context.Context, day time.Time) (Timeline, error) {
	s.mu.Lock()
	tl, err := s.cfg.dayTimeline(day)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	start := tl.Start()
	evictedCarbs := s.carbs.EvictAbsorbed(start)
	evictedBoluses := s.insulin.EvictExpired(start)
	s.base = tl

	batch := s.events.Batch()
	for _, entry := range s.events.Entries() {
		keep := (entry.CarbEventID != nil && hasCarb(s.carbs, *entry.CarbEventID)) ||
			(entry.BolusEventID != nil && hasBolus(s.insulin, *entry.BolusEventID))
		if !keep {
			_, _ = batch.Remove(entry.ID)
			continue
		}
		idx, ok := tl.IndexOf(entry.Time)
		if !ok {
			idx = -1
		}
		_, _ = batch.Update(entry.ID, entry.Time, idx)
	}
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	batch.Flush()
	s.log.Info("Timeline regenerated",
		"day", start.Format(time.DateOnly),
		"evicted_carbs", evictedCarbs,
		"evicted_boluses", evictedBoluses)
	return s.run(job)
}

// SetBaseline changes the first point's glucose and re-evaluates.
func (s *Simulator) SetBaseline(ctx context.Context, glucose float64) (Timeline, error) {
	if glucose < 0 {
		return Timeline{}, apperrors.NewValidationError(fmt.Sprintf("baseline glucose must be non-negative, got %v", glucose))
	}

	s.mu.Lock()
	if s.base.Len() == 0 {
		s.mu.Unlock()
		return Timeline{}, apperrors.ErrNoMatchingPoint
	}
	first := s.base.At(0)
	first.Glucose = glucose
	base, err := s.base.Replace(0, first)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	s.base = base
	s.cfg.Baseline = glucose
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	return s.run(job)
}

// SetSchedules restamps every point with new ISF and CR schedules.
func (s *Simulator) SetSchedules(ctx context.Context, isf, cr Schedule) (Timeline, error) {
	s.mu.Lock()
	base, err := ApplyFactors(s.base, isf, cr)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	s.base = base
	s.cfg.ISF, s.cfg.CR = isf, cr
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	return s.run(job)
}

// SetModels swaps the insulin profile and the carb curve. Tracked events
// keep their ids, amounts and carb profiles; the day is re-evaluated.
func (s *Simulator) SetModels(ctx context.Context, profile InsulinProfile, curve ActivityCurve) (Timeline, error) {
	s.mu.Lock()
	insulin, err := s.insulin.WithProfile(profile)
	if err != nil {
		s.mu.Unlock()
		return Timeline{}, err
	}
	s.insulin = insulin
	s.carbs = s.carbs.WithCurve(curve)
	s.cfg.Insulin = profile
	s.cfg.CarbCurve = s.carbs.Curve()
	curveName := s.cfg.CarbCurve.Name()
	job := s.beginLocked(ctx)
	s.mu.Unlock()

	s.log.Info("Models changed",
		"insulin_duration", profile.ActionDuration,
		"insulin_peak", profile.Peak,
		"carb_curve", curveName)
	return s.run(job)
}

// Recompute re-evaluates the current state, e.g. after an evaluation was
// cancelled by its caller.
func (s *Simulator) Recompute(ctx context.Context) (Timeline, error) {
	s.mu.Lock()
	job := s.beginLocked(ctx)
	s.mu.Unlock()
	return s.run(job)
}

// beginLocked starts a new generation, cancelling the one in flight, and
// captures the inputs of its evaluation.
func (s *Simulator) beginLocked(ctx context.Context) recomputation {
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++

	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return recomputation{
		generation: s.generation,
		ctx:        jobCtx,
		cancel:     cancel,
		timeline:   s.base,
		evaluator:  NewEvaluator(s.carbs.Clone(), s.insulin.Clone()),
	}
}

func (s *Simulator) run(job recomputation) (Timeline, error) {
	defer job.cancel()

	started := time.Now()
	result, err := job.evaluator.Evaluate(job.ctx, job.timeline)

	s.mu.Lock()
	defer s.mu.Unlock()
	if job.generation != s.generation {
		s.log.Debug("Recomputation superseded", "generation", job.generation, "latest", s.generation)
		return Timeline{}, apperrors.NewSupersededError(err)
	}
	if err != nil {
		return Timeline{}, err
	}

	s.snapshot.Store(&result)
	s.log.Debug("Timeline evaluated",
		"generation", job.generation,
		"points", result.Len(),
		"duration", time.Since(started))
	return result, nil
}

func noMatchingPoint(ts time.Time) error {
	return apperrors.Wrap(fmt.Errorf("no point at %s", ts.Format(time.RFC3339)),
		apperrors.ErrorTypeValidation, apperrors.ErrNoMatchingPoint.Code, apperrors.ErrNoMatchingPoint.Message)
}

func addAmount(current *float64, amount float64) *float64 {
	if current == nil {
		return floatPtr(amount)
	}
	return floatPtr(*current + amount)
}

func subtractAmount(current *float64, amount float64) *float64 {
	if current == nil {
		return nil
	}
	if left := *current - amount; left > 1e-9 {
		return floatPtr(left)
	}
	return nil
}

func hasCarb(m *CarbModel, id uuid.UUID) bool {
	_, ok := m.Get(id)
	return ok
}

func hasBolus(m *InsulinModel, id uuid.UUID) bool {
	_, ok := m.Get(id)
	return ok
}
