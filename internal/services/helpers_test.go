package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vladimiradmaev/sugraph/internal/config"
	"github.com/vladimiradmaev/sugraph/internal/database"
	"github.com/vladimiradmaev/sugraph/internal/repository"
	"github.com/vladimiradmaev/sugraph/internal/simulation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDefaults = config.SimulationConfig{
	StepMinutes:           5,
	BaselineGlucose:       150,
	InsulinActionDuration: 210,
	InsulinPeak:           90,
	CarbCurve:             simulation.CurveTriangular,
	DefaultISFSchedule:    "00:00=50",
	DefaultCRSchedule:     "00:00=10",
	Timezone:              "UTC",
}

type fixture struct {
	store      *repository.Store
	users      *UserService
	schedules  *ScheduleService
	simulation *SimulationService
	user       *database.User
	clock      *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db, nil))
	return repository.NewStore(db)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	clock := &fakeClock{t: time.Date(2024, 3, 1, 14, 37, 0, 0, time.UTC)}

	users := NewUserService(store.Users, testDefaults)
	schedules := NewScheduleService(store.Schedules,
		simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 50}),
		simulation.MustSchedule(simulation.ScheduleEntry{TimeOfDay: "00:00", Factor: 10}))
	sim := NewSimulationService(store.DataPoints, users, schedules, 5, time.UTC)
	sim.now = clock.Now

	user, err := users.RegisterUser(context.Background(), 1001, "tester", "Test", "User")
	require.NoError(t, err)

	return &fixture{store: store, users: users, schedules: schedules, simulation: sim, user: user, clock: clock}
}
