package reconcile

import (
	"context"
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
)

// UpdateSource produces scan updates. Sources run concurrently; the
// reconciler serializes everything they emit, so implementations only need to
// honor ctx cancellation. A real transport (websocket, message bus) slots in
// here without touching the reconciler.
type UpdateSource interface {
	// Name identifies the source in logs.
	Name() string
	// Run emits updates until ctx is done. It must return promptly on
	// cancellation; a nil error means a clean shutdown.
	Run(ctx context.Context, emit func(entities.ScanUpdate)) error
}

// TickerSource fires on a fixed interval; each tick independently decides by
// probability whether to emit one random shelf's simulated scan. Two of these
// run side by side: the push simulation and the polling fallback. There is no
// mutual exclusion between them; serialization happens downstream.
type TickerSource struct {
	name        string
	interval    time.Duration
	probability float64
	sim         *simulation.Simulator
	store       *store.Store
}

// NewPushSource creates the simulated push channel.
func NewPushSource(interval time.Duration, probability float64, sim *simulation.Simulator, st *store.Store) *TickerSource {
	return &TickerSource{name: "push-sim", interval: interval, probability: probability, sim: sim, store: st}
}

// NewPollSource creates the polling fallback channel.
func NewPollSource(interval time.Duration, probability float64, sim *simulation.Simulator, st *store.Store) *TickerSource {
	return &TickerSource{name: "poll", interval: interval, probability: probability, sim: sim, store: st}
}

// Name identifies the source in logs.
func (t *TickerSource) Name() string {
	return t.name
}

// Run emits probability-gated scans of random shelves until ctx is done.
func (t *TickerSource) Run(ctx context.Context, emit func(entities.ScanUpdate)) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !t.sim.Chance(t.probability) {
				continue
			}
			shelves := t.store.Snapshot().Shelves
			if len(shelves) == 0 {
				continue
			}
			emit(t.sim.SimulateShelfScan(t.sim.PickShelf(shelves)))
		}
	}
}
