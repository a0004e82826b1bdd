package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInvalidPeriod = errors.New("tick period must be positive")

// TickFunc is invoked once per period. Returning false stops the scheduler.
type TickFunc func() bool

// Option customizes a Scheduler at construction
type Option func(*Scheduler)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithPeriod sets the period used before the first Start or SetPeriod
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		s.period = d
	}
}

// Scheduler invokes a TickFunc at a fixed period
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	onTick  TickFunc
	period  time.Duration
	timer   Timer
	gen     uint64 // bumped whenever the armed timer is replaced or cancelled
	running bool

	ticks    uint64
	lastTick time.Time
}

// New creates a stopped scheduler
func New(onTick TickFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  SystemClock,
		onTick: onTick,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins periodic invocation. It is a no-op when already running.
func (s *Scheduler) Start(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidPeriod, period)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.period = period
	s.running = true
	s.arm()
	return nil
}

// SetPeriod changes the period. A running scheduler is restarted with the new
// period; a stopped one only stores it.
func (s *Scheduler) SetPeriod(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w, got %s", ErrInvalidPeriod, period)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.period = period
	if s.running {
		s.cancel()
		s.arm()
	}
	return nil
}

// Stop halts the scheduler. Calling Stop on a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.cancel()
}

// Running reports whether a tick is scheduled
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Period returns the current or stored tick period
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Ticks returns how many times the TickFunc has been invoked
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// LastTick returns the clock time of the most recent tick, zero if none
func (s *Scheduler) LastTick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTick
}

// arm schedules the next tick. Caller holds mu.
func (s *Scheduler) arm() {
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.period, func() {
		s.fire(gen)
	})
}

// cancel stops the armed timer and invalidates its callback. Caller holds mu.
func (s *Scheduler) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A timer that was stopped too late to cancel may still call in.
	if !s.running || gen != s.gen {
		return
	}
	s.timer = nil
	s.ticks++
	s.lastTick = s.clock.Now()

	if s.onTick() {
		s.arm()
		return
	}
	s.running = false
	s.gen++
}
