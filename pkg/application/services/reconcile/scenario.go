package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
)

// scenarioMaxAttempts bounds retries for one scripted step.
const scenarioMaxAttempts = 3

// ScenarioRunner replays a scripted scan sequence through the reconciler on
// timers. A failing step is retried up to its budget and then halts the
// scenario with a user-visible error; the rest of the application keeps
// running. Reset restores the state snapshot taken when the run started.
type ScenarioRunner struct {
	rec    *Reconciler
	store  *store.Store
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	snapshot store.State
	hasSnap  bool
}

// NewScenarioRunner creates a runner. A nil logger falls back to
// slog.Default().
func NewScenarioRunner(rec *Reconciler, st *store.Store, logger *slog.Logger) *ScenarioRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScenarioRunner{rec: rec, store: st, logger: logger}
}

// Start replays the steps asynchronously. Returns an error if a run is
// already in progress.
func (s *ScenarioRunner) Start(ctx context.Context, steps []simulation.ScenarioStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scenario already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.done = make(chan struct{})
	s.snapshot = s.store.Snapshot()
	s.hasSnap = true

	go func() {
		defer close(s.done)
		defer s.finish()
		if err := s.replay(ctx, steps); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("scenario halted", "error", err)
			s.store.Dispatch(store.SetError{Err: err.Error()})
		}
	}()
	return nil
}

// Cancel stops the run. Idempotent, safe to call while stopped.
func (s *ScenarioRunner) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Reset restores the state captured when the last run started and clears any
// scenario error. No-op if no run has ever started.
func (s *ScenarioRunner) Reset() {
	s.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSnap {
		return
	}
	snapshot := s.snapshot
	s.store.Transact(func(store.State) []store.Action {
		return []store.Action{
			store.ReplaceShelves{Shelves: snapshot.Shelves},
			store.ReplaceAlerts{Alerts: snapshot.Alerts},
			store.ClearError{},
		}
	})
}

func (s *ScenarioRunner) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *ScenarioRunner) replay(ctx context.Context, steps []simulation.ScenarioStep) error {
	for i, step := range steps {
		timer := time.NewTimer(step.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.logger.Info("scenario step", "step", i+1, "description", step.Description)
		if err := s.applyStep(ctx, step); err != nil {
			return &ScenarioError{Step: i + 1, Description: step.Description, Err: err}
		}
	}
	return nil
}

// applyStep retries a step against fresh state; each attempt rebuilds the
// update from the shelf's current items.
func (s *ScenarioRunner) applyStep(ctx context.Context, step simulation.ScenarioStep) error {
	var lastErr error
	for attempt := 1; attempt <= scenarioMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		shelf, ok := findShelf(s.store.Snapshot().Shelves, step.ShelfID)
		if !ok {
			lastErr = fmt.Errorf("shelf %s not found", step.ShelfID)
		} else {
			lastErr = s.rec.ApplyUpdate(step.Mutate(shelf, s.rec.now()))
		}
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("scenario step attempt failed",
			"shelf", step.ShelfID,
			"attempt", attempt,
			"error", lastErr)
	}
	return lastErr
}
