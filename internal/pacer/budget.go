package pacer

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const dayLayout = "2006-01-02"

// State is the persisted send budget.
type State struct {
	SentToday int        `json:"sent_today"`
	Day       string     `json:"day"`
	LastSent  *time.Time `json:"last_sent,omitempty"`
}

// Expired reports whether a scheduled reset has fired since the counter last
// changed. The counter changes with every send, so LastSent dates it; Day is
// the fallback for a state without sends.
func (s State) Expired(schedule cron.Schedule, now time.Time) bool {
	var since time.Time
	switch {
	case s.LastSent != nil:
		since = *s.LastSent
	case s.Day != "":
		day, err := time.ParseInLocation(dayLayout, s.Day, time.Local)
		if err != nil {
			return true
		}
		since = day
	default:
		return true
	}
	return !schedule.Next(since).After(now)
}

// BudgetStore persists State between runs.
type BudgetStore interface {
	Load() (State, error)
	Save(State) error
}

// Budget enforces the daily cap and the minimum interval between sends. It is
// shared by the loop and the reset job.
type Budget struct {
	mu       sync.Mutex
	limit    int
	interval time.Duration
	schedule cron.Schedule
	clock    Clock
	store    BudgetStore
	state    State
	resets   chan struct{}
}

// NewBudget loads the saved state, if any. A state saved before the latest
// reset of schedule starts with a zero counter. store may be nil.
func NewBudget(limit int, interval time.Duration, schedule cron.Schedule, clock Clock, store BudgetStore) (*Budget, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("daily limit must be greater than 0, got %d", limit)
	}
	if interval < 0 {
		return nil, fmt.Errorf("interval must not be negative, got %s", interval)
	}
	if schedule == nil {
		return nil, fmt.Errorf("reset schedule is required")
	}

	b := &Budget{
		limit:    limit,
		interval: interval,
		schedule: schedule,
		clock:    clock,
		store:    store,
		resets:   make(chan struct{}, 1),
	}

	if store != nil {
		saved, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading budget state: %w", err)
		}
		b.state = saved
	}
	now := clock.Now()
	if b.state.Expired(schedule, now) {
		b.state.SentToday = 0
		b.state.Day = now.Format(dayLayout)
	}
	return b, nil
}

func (b *Budget) Limit() int {
	return b.limit
}

func (b *Budget) Interval() time.Duration {
	return b.interval
}

// Snapshot returns a copy of the current state.
func (b *Budget) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	if s.LastSent != nil {
		t := *s.LastSent
		s.LastSent = &t
	}
	return s
}

// CapReached reports whether the daily limit has been used up.
func (b *Budget) CapReached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.SentToday >= b.limit
}

// Remaining is how long until the interval since the last send has passed.
func (b *Budget) Remaining() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.LastSent == nil {
		return 0
	}
	return max(0, b.interval-b.clock.Now().Sub(*b.state.LastSent))
}

// RecordSend counts a successful send at the current time and persists the
// state. The in-memory state is updated even when saving fails.
func (b *Budget) RecordSend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	b.state.SentToday++
	b.state.LastSent = &now
	return b.save()
}

// Reset zeroes the counter for a new period, persists the state and wakes a loop
// waiting at the cap. The last send time is kept so the interval still holds
// across midnight.
func (b *Budget) Reset() error {
	b.mu.Lock()
	b.state.SentToday = 0
	b.state.Day = b.clock.Now().Format(dayLayout)
	err := b.save()
	b.mu.Unlock()

	select {
	case b.resets <- struct{}{}:
	default:
	}
	return err
}

// Resets delivers a value after every Reset. Notifications coalesce.
func (b *Budget) Resets() <-chan struct{} {
	return b.resets
}

func (b *Budget) save() error {
	if b.store == nil {
		return nil
	}
	if err := b.store.Save(b.state); err != nil {
		return fmt.Errorf("saving budget state: %w", err)
	}
	return nil
}
