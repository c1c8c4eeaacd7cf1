// Package eventlog records the events a user asserted on a timeline so that
// front-ends can list and undo them. The log is an audit trail: it never
// touches the activity models itself.
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/vladimiradmaev/sugraph/internal/errors"
)

// Type says which inputs an entry recorded.
type Type string

const (
	TypeCarb  Type = "carb"
	TypeBolus Type = "bolus"
	TypeBoth  Type = "both"
)

// TypeFor picks the entry type for an event that recorded carbs, a bolus or
// both. It returns false when neither was recorded.
func TypeFor(hasCarbs, hasBolus bool) (Type, bool) {
	switch {
	case hasCarbs && hasBolus:
		return TypeBoth, true
	case hasCarbs:
		return TypeCarb, true
	case hasBolus:
		return TypeBolus, true
	default:
		return "", false
	}
}

// Entry is one logged event.
type Entry struct {
	ID           int64
	Type         Type
	Time         time.Time
	PointIndex   int
	CarbEventID  *uuid.UUID
	BolusEventID *uuid.UUID
}

// ChangeKind names the mutation an observer is told about.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
)

// Change is delivered to observers after it has been applied. Entries is the
// full log at that moment.
type Change struct {
	Kind    ChangeKind
	Entry   Entry
	Entries []Entry
}

// Observer receives changes synchronously, in subscription order.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) { f(c) }

type subscription struct {
	id  int
	obs Observer
}

// Log is safe for concurrent use. Observers run outside the lock, so they may
// read the log but should not block.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int64
	subs    []subscription
	nextSub int
}

// New returns an empty log.
func New() *Log {
	return &Log{nextID: 1}
}

// Add appends an entry and notifies observers.
func (l *Log) Add(t Type, at time.Time, pointIndex int, carbID, bolusID *uuid.UUID) Entry {
	b := l.Batch()
	defer b.Flush()
	return b.Add(t, at, pointIndex, carbID, bolusID)
}

// Update moves an entry to a new time.
func (l *Log) Update(id int64, at time.Time, pointIndex int) (Entry, error) {
	b := l.Batch()
	defer b.Flush()
	return b.Update(id, at, pointIndex)
}

// Remove deletes an entry and returns it.
func (l *Log) Remove(id int64) (Entry, error) {
	b := l.Batch()
	defer b.Flush()
	return b.Remove(id)
}

// Get returns one entry.
func (l *Log) Get(id int64) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.entries[i], true
	}
	return Entry{}, false
}

// Last returns the most recently added entry still in the log.
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Entries returns a copy of the log in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry without notifying observers one by one; a single
// removed change with a zero Entry is delivered instead.
func (l *Log) Clear() {
	b := l.Batch()
	defer b.Flush()
	b.Clear()
}

// Subscribe registers obs and returns a function that unregisters it.
// Calling the function more than once is harmless.
func (l *Log) Subscribe(obs Observer) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	l.subs = append(l.subs, subscription{id: id, obs: obs})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *Log) indexLocked(id int64) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l *Log) snapshotLocked() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) changeLocked(kind ChangeKind, e Entry) (Change, []subscription) {
	subs := make([]subscription, len(l.subs))
	copy(subs, l.subs)
	return Change{Kind: kind, Entry: e, Entries: l.snapshotLocked()}, subs
}

// Batch applies changes to the log immediately and holds their notifications
// until Flush. Owners that guard the log with their own lock mutate it through
// a batch while holding that lock and flush after releasing it.
type Batch struct {
	log     *Log
	pending []pendingChange
}

type pendingChange struct {
	change Change
	subs   []subscription
}

// Batch starts an empty batch.
func (l *Log) Batch() *Batch {
	return &Batch{log: l}
}

// Add appends an entry.
func (b *Batch) Add(t Type, at time.Time, pointIndex int, carbID, bolusID *uuid.UUID) Entry {
	l := b.log
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		ID:           l.nextID,
		Type:         t,
		Time:         at,
		PointIndex:   pointIndex,
		CarbEventID:  carbID,
		BolusEventID: bolusID,
	}
	l.nextID++
	l.entries = append(l.entries, e)
	b.queueLocked(ChangeAdded, e)
	return e
}

// Update moves an entry to a new time.
func (b *Batch) Update(id int64, at time.Time, pointIndex int) (Entry, error) {
	l := b.log
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Entry{}, entryNotFound(id)
	}
	l.entries[i].Time = at
	l.entries[i].PointIndex = pointIndex
	e := l.entries[i]
	b.queueLocked(ChangeUpdated, e)
	return e, nil
}

// Remove deletes an entry and returns it.
func (b *Batch) Remove(id int64) (Entry, error) {
	l := b.log
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Entry{}, entryNotFound(id)
	}
	e := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	b.queueLocked(ChangeRemoved, e)
	return e, nil
}

// Clear drops every entry.
func (b *Batch) Clear() {
	l := b.log
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	b.queueLocked(ChangeRemoved, Entry{})
}

// Flush delivers the held changes in the order they were applied. A flushed
// batch is empty and may be reused.
func (b *Batch) Flush() {
	pending := b.pending
	b.pending = nil
	for _, p := range pending {
		notify(p.subs, p.change)
	}
}

func (b *Batch) queueLocked(kind ChangeKind, e Entry) {
	change, subs := b.log.changeLocked(kind, e)
	b.pending = append(b.pending, pendingChange{change: change, subs: subs})
}

func notify(subs []subscription, c Change) {
	for _, s := range subs {
		s.obs.OnChange(c)
	}
}

func entryNotFound(id int64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("event log entry %d", id))
}
