package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/domain"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
	"github.com/vladimiradmaev/sugraph/internal/eventlog"
	"github.com/vladimiradmaev/sugraph/internal/logger"
	"github.com/vladimiradmaev/sugraph/internal/render"
	"github.com/vladimiradmaev/sugraph/internal/repository"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"github.com/vladimiradmaev/sugraph/internal/utils"
)

// SimulationService keeps one simulator per user for the current day in
// the configured timezone and mirrors every edit to the data point store.
type SimulationService struct {
	points    *repository.DataPointRepository
	users     *UserService
	schedules *ScheduleService
	step      int
	loc       *time.Location
	now       func() time.Time
	log       *slog.Logger

	mu       sync.Mutex
	sessions map[uint]*session
}

type session struct {
	sim         *simulation.Simulator
	day         time.Time
	unsubscribe func()
}

func NewSimulationService(points *repository.DataPointRepository, users *UserService, schedules *ScheduleService, stepMinutes int, loc *time.Location) *SimulationService {
	if loc == nil {
		loc = time.UTC
	}
	return &SimulationService{
		points:    points,
		users:     users,
		schedules: schedules,
		step:      stepMinutes,
		loc:       loc,
		now:       time.Now,
		log:       logger.WithComponent("simulation_service"),
		sessions:  make(map[uint]*session),
	}
}

// Timeline returns the user's evaluated day.
func (s *SimulationService) Timeline(ctx context.Context, user *database.User) (simulation.Timeline, error) {
	sess, err := s.session(ctx, user)
	if err != nil {
		return simulation.Timeline{}, err
	}
	return sess.sim.Timeline(), nil
}

// PointAt returns the point nearest to the clock time.
func (s *SimulationService) PointAt(ctx context.Context, user *database.User, clock string) (simulation.DataPoint, error) {
	sess, err := s.session(ctx, user)
	if err != nil {
		return simulation.DataPoint{}, err
	}
	return s.pointAtClock(sess, clock)
}

// ApplyEvent records carbs and/or a bolus at the grid point nearest to the
// clock time and returns the evaluated point.
func (s *SimulationService) ApplyEvent(ctx context.Context, user *database.User, clock string, carbs, bolus float64, profile string) (simulation.DataPoint, error) {
	if carbs <= 0 && bolus <= 0 {
		return simulation.DataPoint{}, apperrors.NewValidationError("nothing to record: carbs and bolus must be positive")
	}
	carbProfile, err := simulation.CarbProfileByName(profile)
	if err != nil {
		return simulation.DataPoint{}, err
	}

	sess, err := s.session(ctx, user)
	if err != nil {
		return simulation.DataPoint{}, err
	}
	target, err := s.pointAtClock(sess, clock)
	if err != nil {
		return simulation.DataPoint{}, err
	}

	tl, err := sess.sim.ApplyEvent(ctx, target.Timestamp, carbs, bolus, carbProfile)
	if err != nil {
		return simulation.DataPoint{}, err
	}
	if err := s.persist(ctx, user.ID, tl); err != nil {
		return simulation.DataPoint{}, err
	}

	idx, ok := tl.IndexOf(target.Timestamp)
	if !ok {
		return simulation.DataPoint{}, apperrors.ErrNoMatchingPoint
	}
	return tl.At(idx), nil
}

func (s *SimulationService) RemoveEvent(ctx context.Context, user *database.User, entryID int64) error {
	sess, err := s.session(ctx, user)
	if err != nil {
		return err
	}
	tl, err := sess.sim.RemoveEvent(ctx, entryID)
	if err != nil {
		return err
	}
	return s.persist(ctx, user.ID, tl)
}

// Undo removes the user's most recent event.
func (s *SimulationService) Undo(ctx context.Context, user *database.User) (eventlog.Entry, error) {
	sess, err := s.session(ctx, user)
	if err != nil {
		return eventlog.Entry{}, err
	}
	entry, tl, err := sess.sim.Undo(ctx)
	if err != nil {
		return eventlog.Entry{}, err
	}
	return entry, s.persist(ctx, user.ID, tl)
}

// ResetDay drops every event of the current day.
func (s *SimulationService) ResetDay(ctx context.Context, user *database.User) error {
	sess, err := s.session(ctx, user)
	if err != nil {
		return err
	}
	cfg, err := s.simulatorConfig(ctx, user)
	if err != nil {
		return err
	}
	fresh, err := simulation.NewSimulator(cfg, sess.day)
	if err != nil {
		return err
	}
	if _, err := s.points.DeleteRange(ctx, user.ID, sess.day, sess.day.AddDate(0, 0, 1)); err != nil {
		return err
	}

	s.mu.Lock()
	s.replaceLocked(user.ID, s.newSession(user.ID, fresh, sess.day))
	s.mu.Unlock()

	s.log.Info("Day reset", "user_id", user.ID, "day", sess.day.Format(time.DateOnly))
	return s.persist(ctx, user.ID, fresh.Timeline())
}

func (s *SimulationService) Events(ctx context.Context, user *database.User) ([]eventlog.Entry, error) {
	sess, err := s.session(ctx, user)
	if err != nil {
		return nil, err
	}
	return sess.sim.Events(), nil
}

func (s *SimulationService) Summary(ctx context.Context, user *database.User) (domain.DaySummary, error) {
	tl, err := s.Timeline(ctx, user)
	if err != nil {
		return domain.DaySummary{}, err
	}
	return Summarize(tl), nil
}

func (s *SimulationService) Chart(ctx context.Context, user *database.User) ([]byte, error) {
	tl, err := s.Timeline(ctx, user)
	if err != nil {
		return nil, err
	}
	return render.Chart(tl, render.Options{
		TargetLow:  domain.TargetLow,
		TargetHigh: domain.TargetHigh,
		Title:      tl.Start().Format("02.01.2006"),
	})
}

// Reconfigure applies changed settings to a loaded day in place. Recorded
// events keep their carb profiles across an insulin profile or carb curve
// change.
func (s *SimulationService) Reconfigure(ctx context.Context, user *database.User) error {
	s.mu.Lock()
	sess, ok := s.sessions[user.ID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	cfg, err := s.simulatorConfig(ctx, user)
	if err != nil {
		return err
	}
	current := sess.sim.Config()
	if cfg.Insulin != current.Insulin || curveName(cfg.CarbCurve) != curveName(current.CarbCurve) {
		if _, err := sess.sim.SetModels(ctx, cfg.Insulin, cfg.CarbCurve); err != nil {
			return err
		}
	}

	if _, err := sess.sim.SetSchedules(ctx, cfg.ISF, cfg.CR); err != nil {
		return err
	}
	tl, err := sess.sim.SetBaseline(ctx, cfg.Baseline)
	if err != nil {
		return err
	}
	return s.persist(ctx, user.ID, tl)
}

// Invalidate forgets the user's loaded day; the next call reloads it.
func (s *SimulationService) Invalidate(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(userID, nil)
}

func (s *SimulationService) session(ctx context.Context, user *database.User) (*session, error) {
	day := simulation.StartOfDay(s.now().In(s.loc))

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[user.ID]; ok {
		if !day.After(sess.day) {
			return sess, nil
		}
		tl, err := sess.sim.Regenerate(ctx, day)
		if err != nil {
			return nil, err
		}
		sess.day = day
		if err := s.persist(ctx, user.ID, tl); err != nil {
			return nil, err
		}
		return sess, nil
	}

	sess, err := s.load(ctx, user, day)
	if err != nil {
		return nil, err
	}
	s.sessions[user.ID] = sess
	return sess, nil
}

// load builds the user's day, restoring recorded events from storage.
func (s *SimulationService) load(ctx context.Context, user *database.User, day time.Time) (*session, error) {
	cfg, err := s.simulatorConfig(ctx, user)
	if err != nil {
		return nil, err
	}
	sim, err := simulation.NewSimulator(cfg, day)
	if err != nil {
		return nil, err
	}

	stored, err := s.points.Fetch(ctx, user.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	switch {
	case len(stored) == sim.Timeline().Len():
		for i := range stored {
			stored[i].Timestamp = stored[i].Timestamp.In(s.loc)
		}
		if _, err := sim.Reset(ctx, stored); err != nil {
			return nil, fmt.Errorf("failed to restore day: %w", err)
		}
		// stored factors are rounded; restamp from the schedules
		if _, err := sim.SetSchedules(ctx, cfg.ISF, cfg.CR); err != nil {
			return nil, err
		}
	case len(stored) > 0:
		s.log.Warn("Stored day does not match the grid, starting empty",
			"user_id", user.ID, "stored", len(stored), "expected", sim.Timeline().Len())
	}

	s.log.Info("Day loaded", "user_id", user.ID, "day", day.Format(time.DateOnly), "events", len(sim.Events()))
	return s.newSession(user.ID, sim, day), nil
}

// pointAtClock resolves a wall-clock time on the session's day in the
// configured location, so days with a DST change still map "14:00" to 14:00.
func (s *SimulationService) pointAtClock(sess *session, clock string) (simulation.DataPoint, error) {
	at, err := utils.ClockOnDay(sess.day.In(s.loc), clock)
	if err != nil {
		return simulation.DataPoint{}, err
	}
	tl := sess.sim.Timeline()
	i, err := tl.NearestTo(at)
	if err != nil {
		return simulation.DataPoint{}, err
	}
	return tl.At(i), nil
}

func (s *SimulationService) newSession(userID uint, sim *simulation.Simulator, day time.Time) *session {
	log := s.log.With("user_id", userID)
	unsubscribe := sim.EventLog().Subscribe(eventlog.ObserverFunc(func(c eventlog.Change) {
		log.Debug("Event log changed", "kind", c.Kind, "entry_id", c.Entry.ID, "entries", len(c.Entries))
	}))
	return &session{sim: sim, day: day, unsubscribe: unsubscribe}
}

func (s *SimulationService) replaceLocked(userID uint, sess *session) {
	if old, ok := s.sessions[userID]; ok && old.unsubscribe != nil {
		old.unsubscribe()
	}
	if sess == nil {
		delete(s.sessions, userID)
		return
	}
	s.sessions[userID] = sess
}

func (s *SimulationService) simulatorConfig(ctx context.Context, user *database.User) (simulation.Config, error) {
	isf, cr, err := s.schedules.Schedules(ctx, user.ID)
	if err != nil {
		return simulation.Config{}, err
	}
	return simulation.Config{
		StepMinutes: s.step,
		Baseline:    s.users.BaselineGlucose(user),
		Insulin:     s.users.InsulinProfile(user),
		CarbCurve:   s.users.CarbCurve(user),
		ISF:         isf,
		CR:          cr,
		Logger:      s.log.With("user_id", user.ID),
	}, nil
}

func (s *SimulationService) persist(ctx context.Context, userID uint, tl simulation.Timeline) error {
	n, err := s.points.Upsert(ctx, userID, tl.Points())
	if err != nil {
		s.log.Error("Failed to persist day", "user_id", userID, "error", err)
		return err
	}
	s.log.Debug("Day persisted", "user_id", userID, "rows", n)
	return nil
}

func curveName(c simulation.ActivityCurve) string {
	if c == nil {
		return simulation.CurveTriangular
	}
	return c.Name()
}
