package simulation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

// CarbProfile describes how fast a meal is absorbed, in minutes.
type CarbProfile struct {
	Name               string
	AbsorptionDuration float64
	Peak               float64
}

var (
	// CarbsFast: glucose tablets, dextrose gel, sports drinks.
	CarbsFast = CarbProfile{Name: "fast", AbsorptionDuration: 30, Peak: 15}
	// CarbsMedium: white bread, pasta, refined grains, most fruit.
	CarbsMedium = CarbProfile{Name: "medium", AbsorptionDuration: 60, Peak: 30}
	// CarbsSlow: legumes, oats, vegetables, whole grains.
	CarbsSlow = CarbProfile{Name: "slow", AbsorptionDuration: 120, Peak: 60}
)

// CarbProfiles lists the selectable profiles from fastest to slowest.
func CarbProfiles() []CarbProfile {
	return []CarbProfile{CarbsFast, CarbsMedium, CarbsSlow}
}

// CarbProfileByName looks up a profile; the empty name means medium.
func CarbProfileByName(name string) (CarbProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast":
		return CarbsFast, nil
	case "", "medium":
		return CarbsMedium, nil
	case "slow":
		return CarbsSlow, nil
	default:
		return CarbProfile{}, apperrors.NewValidationError(fmt.Sprintf("unknown carb profile %q (fast, medium, slow)", name))
	}
}

// InsulinProfile is the action shape shared by every bolus, in minutes.
type InsulinProfile struct {
	ActionDuration float64
	Peak           float64
}

// DefaultInsulinProfile is a rapid-acting analogue.
var DefaultInsulinProfile = InsulinProfile{ActionDuration: 210, Peak: 90}

// Validate checks 0 < Peak < ActionDuration.
func (p InsulinProfile) Validate() error {
	return validateShape(p.ActionDuration, p.Peak)
}

// CarbEvent is one ingestion.
type CarbEvent struct {
	ID        uuid.UUID
	Timestamp time.Time
	Amount    float64 // grams
	Profile   CarbProfile
}

// BolusEvent is one injection.
type BolusEvent struct {
	ID        uuid.UUID
	Timestamp time.Time
	Amount    float64 // units
}

type dosed interface {
	CarbEvent | BolusEvent
}

// ledger keeps events in a fixed order (timestamp, then insertion) so that
// floating-point sums over them are reproducible run to run.
type ledger[E dosed] struct {
	items []E
	idOf  func(E) uuid.UUID
	atOf  func(E) time.Time
}

func newLedger[E dosed](idOf func(E) uuid.UUID, atOf func(E) time.Time) ledger[E] {
	return ledger[E]{idOf: idOf, atOf: atOf}
}

func (l *ledger[E]) insert(e E) {
	at := l.atOf(e)
	i := sort.Search(len(l.items), func(i int) bool {
		return l.atOf(l.items[i]).After(at)
	})
	var zero E
	l.items = append(l.items, zero)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = e
}

func (l *ledger[E]) index(id uuid.UUID) int {
	for i, e := range l.items {
		if l.idOf(e) == id {
			return i
		}
	}
	return -1
}

func (l *ledger[E]) get(id uuid.UUID) (E, bool) {
	var zero E
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	return zero, false
}

func (l *ledger[E]) update(id uuid.UUID, fn func(*E)) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	fn(&l.items[i])
	return true
}

func (l *ledger[E]) remove(id uuid.UUID) (E, bool) {
	var zero E
	i := l.index(id)
	if i < 0 {
		return zero, false
	}
	e := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return e, true
}

// filter drops every event keep rejects and returns how many were dropped.
func (l *ledger[E]) filter(keep func(E) bool) int {
	kept := l.items[:0]
	for _, e := range l.items {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	n := len(l.items) - len(kept)
	l.items = kept
	return n
}

func (l *ledger[E]) at(ts time.Time) []E {
	var out []E
	for _, e := range l.items {
		if l.atOf(e).Equal(ts) {
			out = append(out, e)
		}
	}
	return out
}

func (l *ledger[E]) all() []E {
	out := make([]E, len(l.items))
	copy(out, l.items)
	return out
}

func (l *ledger[E]) clone() ledger[E] {
	c := *l
	c.items = l.all()
	return c
}
