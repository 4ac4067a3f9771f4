package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kter/serverless-sample/internal/metrics"
	"github.com/kter/serverless-sample/internal/model"
)

// DefaultSchedule fires daily at 08:00 UTC.
const DefaultSchedule = "0 8 * * *"

type State string

const (
	StateIdle        State = "idle"
	StateFiring      State = "firing"
	StateScanning    State = "scanning"
	StateDispatching State = "dispatching"
)

// Store is the read side of the todo repository.
type Store interface {
	ScanAll(ctx context.Context) ([]model.Todo, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, todos []model.Todo) (bool, error)
}

// FiringObserver receives the outcome of every firing.
type FiringObserver interface {
	ObserveFiring(outcome string, eligible int)
}

// Clock abstracts wall time so the run loop can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithObserver(o FiringObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// FiringResult summarizes one firing.
type FiringResult struct {
	At        time.Time
	Eligible  int
	Published bool
	Err       error
}

// Scheduler runs the Idle → Firing → Scanning → Dispatching → Idle cycle on a
// cron schedule. Firings never overlap and missed firings are not replayed.
type Scheduler struct {
	store      Store
	dispatcher Dispatcher
	schedule   cron.Schedule
	expr       string
	window     time.Duration
	logger     *slog.Logger
	clock      Clock
	observer   FiringObserver

	mu    sync.Mutex
	state State
}

func NewScheduler(store Store, dispatcher Dispatcher, expr string, window time.Duration, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", expr, err)
	}
	if window <= 0 {
		window = DefaultWindow
	}

	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		schedule:   schedule,
		expr:       expr,
		window:     window,
		logger:     logger,
		clock:      realClock{},
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(ctx context.Context, state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "reminder state", "state", string(state))
}

// Next returns the first firing time strictly after t, in UTC.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}

// Run blocks until ctx is cancelled, firing at every scheduled time.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("reminder scheduler started", "schedule", s.expr, "window", s.window.String())

	for {
		now := s.clock.Now()
		next := s.Next(now)
		s.logger.Debug("next reminder firing", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return nil
		case <-s.clock.After(next.Sub(now)):
		}
		if ctx.Err() != nil {
			s.logger.Info("reminder scheduler stopped")
			return nil
		}

		s.Fire(ctx)
	}
}

// Fire performs one firing. Failures are logged and reported in the result;
// they never stop the scheduler.
func (s *Scheduler) Fire(ctx context.Context) FiringResult {
	result := FiringResult{At: s.clock.Now()}
	defer s.setState(ctx, StateIdle)

	s.setState(ctx, StateFiring)

	s.setState(ctx, StateScanning)
	todos, err := s.store.ScanAll(ctx)
	if err != nil {
		result.Err = fmt.Errorf("failed to scan todos: %w", err)
		s.logger.ErrorContext(ctx, "reminder scan failed", "error", err)
		s.observe(metrics.OutcomeScanFailed, 0)
		return result
	}

	eligible := slices.Collect(Eligible(todos, result.At, s.window))
	result.Eligible = len(eligible)

	s.setState(ctx, StateDispatching)
	published, err := s.dispatcher.Dispatch(ctx, eligible)
	result.Published = published && err == nil
	if err != nil {
		result.Err = err
		s.logger.ErrorContext(ctx, "reminder dispatch failed",
			"error", err,
			"eligible", len(eligible),
		)
		s.observe(metrics.OutcomeDispatchFailed, len(eligible))
		return result
	}

	if !published {
		s.logger.InfoContext(ctx, "reminder firing: nothing due", "scanned", len(todos))
		s.observe(metrics.OutcomeSkipped, 0)
		return result
	}

	s.logger.InfoContext(ctx, "reminder published",
		"scanned", len(todos),
		"eligible", len(eligible),
	)
	s.observe(metrics.OutcomePublished, len(eligible))
	return result
}

func (s *Scheduler) observe(outcome string, eligible int) {
	if s.observer != nil {
		s.observer.ObserveFiring(outcome, eligible)
	}
}
