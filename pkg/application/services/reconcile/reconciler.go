// Package reconcile merges scan-update events from any source (simulated
// push, polling, camera detection, or a real transport) into the state
// store, recomputing shelf status and keeping the alert set consistent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
)

// Config tunes the reconciler.
type Config struct {
	// RescanLatency is the simulated network delay for a manual rescan.
	RescanLatency time.Duration
	// QueueSize bounds the update channel; overflow is dropped, not queued.
	QueueSize int
}

// DefaultConfig returns the reconciler defaults.
func DefaultConfig() Config {
	return Config{
		RescanLatency: 800 * time.Millisecond,
		QueueSize:     64,
	}
}

// Reconciler owns update application. All sources funnel into one buffered
// channel drained by a single goroutine, and every read-modify-write of shelf
// state happens inside one store transaction, so racing sources cannot lose
// updates.
type Reconciler struct {
	store   *store.Store
	sim     *simulation.Simulator
	sources []UpdateSource
	config  Config
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	updates chan entities.ScanUpdate

	applied        atomic.Uint64
	droppedInvalid atomic.Uint64
	droppedFull    atomic.Uint64
	staleObserved  atomic.Uint64
	alertsRaised   atomic.Uint64
}

// New creates a reconciler over the store and simulator with the given
// sources. A nil logger falls back to slog.Default().
func New(st *store.Store, sim *simulation.Simulator, sources []UpdateSource, config Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.RescanLatency <= 0 {
		config.RescanLatency = DefaultConfig().RescanLatency
	}
	return &Reconciler{
		store:   st,
		sim:     sim,
		sources: sources,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Start launches the update sources and the serial consumer. Returns an error
// if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("reconciler already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.updates = make(chan entities.ScanUpdate, r.config.QueueSize)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.consume(ctx)
	}()

	for _, src := range r.sources {
		r.wg.Add(1)
		go func(src UpdateSource) {
			defer r.wg.Done()
			if err := src.Run(ctx, r.enqueue); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("update source stopped", "source", src.Name(), "error", err)
				r.store.Dispatch(store.SetError{Err: fmt.Sprintf("update source %s stopped: %v", src.Name(), err)})
			}
		}(src)
	}

	r.logger.Info("reconciler started", "sources", len(r.sources))
	return nil
}

// Stop cancels all sources and waits for in-flight work. Idempotent.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("reconciler stopped")
}

// enqueue hands an update to the consumer without blocking the source. A full
// queue drops the update; the next scan of that shelf supersedes it anyway.
func (r *Reconciler) enqueue(update entities.ScanUpdate) {
	select {
	case r.updates <- update:
	default:
		r.droppedFull.Add(1)
		r.logger.Warn("update queue full, dropping scan", "shelf", update.ShelfID)
	}
}

func (r *Reconciler) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-r.updates:
			if err := r.ApplyUpdate(update); err != nil {
				var vErr *ValidationError
				if errors.As(err, &vErr) {
					r.logger.Warn("dropping invalid scan update", "shelf", update.ShelfID, "error", err)
				} else {
					r.logger.Error("scan update failed", "shelf", update.ShelfID, "error", err)
				}
			}
		}
	}
}

// ApplyUpdate validates one scan update, applies it to the shelf, and raises
// any alerts the new counts call for. The lookup, the shelf upsert, and the
// alert additions run in a single store transaction. Idempotence: a (shelf,
// product, type) pair with a live unacknowledged alert never gets a second
// one.
func (r *Reconciler) ApplyUpdate(update entities.ScanUpdate) error {
	if err := update.Validate(); err != nil {
		r.droppedInvalid.Add(1)
		return &ValidationError{ShelfID: update.ShelfID, Reason: err.Error()}
	}

	var applyErr error
	r.store.Transact(func(current store.State) []store.Action {
		shelf, ok := findShelf(current.Shelves, update.ShelfID)
		if !ok {
			applyErr = &ValidationError{ShelfID: update.ShelfID, Reason: "unknown shelf"}
			return nil
		}
		if err := validateProducts(shelf, update); err != nil {
			applyErr = err
			return nil
		}

		if update.Timestamp.Before(shelf.LastScanned) {
			// Out-of-order delivery between racing sources. The transition
			// queue is serialized, so last write wins.
			r.staleObserved.Add(1)
			r.logger.Warn("stale scan update observed",
				"shelf", update.ShelfID,
				"update_ts", update.Timestamp,
				"shelf_ts", shelf.LastScanned)
		}

		next := simulation.ApplyScanUpdate(shelf, update)
		actions := []store.Action{store.UpsertShelf{Shelf: next}}
		for _, alert := range r.missingAlerts(current.Alerts, next, update.Timestamp) {
			actions = append(actions, store.AddAlert{Alert: alert})
			r.alertsRaised.Add(1)
		}
		return actions
	})
	if applyErr != nil {
		r.droppedInvalid.Add(1)
		return applyErr
	}

	r.applied.Add(1)
	return nil
}

// missingAlerts returns one new alert for each product on the shelf that is
// low or empty and has no unacknowledged alert of the same type yet.
func (r *Reconciler) missingAlerts(existing []entities.Alert, shelf entities.Shelf, at time.Time) []entities.Alert {
	var out []entities.Alert
	for _, item := range shelf.Items {
		var alertType entities.AlertType
		switch {
		case item.IsEmpty():
			alertType = entities.AlertEmpty
		case item.IsLow():
			alertType = entities.AlertLow
		default:
			continue
		}
		if hasOpenAlert(existing, shelf.ID, item.Name, alertType) {
			continue
		}
		out = append(out, entities.Alert{
			ID:        uuid.NewString(),
			ShelfID:   shelf.ID,
			Product:   item.Name,
			Type:      alertType,
			Timestamp: at,
		})
	}
	return out
}

func hasOpenAlert(alerts []entities.Alert, shelfID, product string, alertType entities.AlertType) bool {
	for _, a := range alerts {
		if !a.Acknowledged && a.Type == alertType && a.Matches(shelfID, product) {
			return true
		}
	}
	return false
}

// validateProducts rejects updates that reference products the shelf does not
// carry; a scan snapshot may narrow counts but never invent SKUs.
func validateProducts(shelf entities.Shelf, update entities.ScanUpdate) error {
	for _, item := range update.Items {
		if _, ok := shelf.FindProduct(item.Name); !ok {
			return &ValidationError{
				ShelfID: update.ShelfID,
				Reason:  fmt.Sprintf("product %q not on shelf", item.Name),
			}
		}
	}
	return nil
}

// Acknowledge soft-resolves an alert by id.
func (r *Reconciler) Acknowledge(alertID string) error {
	var err error
	r.store.Transact(func(current store.State) []store.Action {
		for _, a := range current.Alerts {
			if a.ID == alertID {
				return []store.Action{store.AcknowledgeAlert{ID: alertID}}
			}
		}
		err = &ValidationError{Reason: fmt.Sprintf("unknown alert %s", alertID)}
		return nil
	})
	return err
}

// MarkRestocked records a staff restock: the product count ticks up by one,
// shelf status recomputes, and the pair's alerts clear.
func (r *Reconciler) MarkRestocked(shelfID, product string) error {
	var err error
	r.store.Transact(func(current store.State) []store.Action {
		shelf, ok := findShelf(current.Shelves, shelfID)
		if !ok {
			err = &ValidationError{ShelfID: shelfID, Reason: "unknown shelf"}
			return nil
		}
		if _, ok := shelf.FindProduct(product); !ok {
			err = &ValidationError{ShelfID: shelfID, Reason: fmt.Sprintf("product %q not on shelf", product)}
			return nil
		}
		return []store.Action{store.MarkRestocked{ShelfID: shelfID, Product: product}}
	})
	return err
}

// Restock sets the named product to newCount (or a randomized surplus when
// newCount is not positive), recomputes the shelf status, and clears the
// pair's alerts. This is the staff "restocked to N" flow; MarkRestocked is
// the single-unit tick.
func (r *Reconciler) Restock(shelfID, product string, newCount int) error {
	var err error
	r.store.Transact(func(current store.State) []store.Action {
		shelf, ok := findShelf(current.Shelves, shelfID)
		if !ok {
			err = &ValidationError{ShelfID: shelfID, Reason: "unknown shelf"}
			return nil
		}
		restocked, restockErr := r.sim.RestockProduct(shelf, product, newCount)
		if restockErr != nil {
			err = &ValidationError{ShelfID: shelfID, Reason: restockErr.Error()}
			return nil
		}
		actions := []store.Action{store.UpsertShelf{Shelf: restocked}}
		for _, alert := range current.Alerts {
			if alert.Matches(shelfID, product) {
				actions = append(actions, store.RemoveAlert{ID: alert.ID})
			}
		}
		return actions
	})
	return err
}

// RequestRescan bypasses the probability gate: after a simulated latency it
// applies exactly one fresh scan of the named shelf and returns the updated
// shelf. The scanning flag is visible in state for the duration.
func (r *Reconciler) RequestRescan(ctx context.Context, shelfID string) (entities.Shelf, error) {
	snapshot := r.store.Snapshot()
	if _, ok := findShelf(snapshot.Shelves, shelfID); !ok {
		return entities.Shelf{}, &ValidationError{ShelfID: shelfID, Reason: "unknown shelf"}
	}

	r.store.Dispatch(store.RequestRescan{ShelfID: shelfID, At: r.now()})

	timer := time.NewTimer(r.config.RescanLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return entities.Shelf{}, ctx.Err()
	case <-timer.C:
	}

	shelf, ok := findShelf(r.store.Snapshot().Shelves, shelfID)
	if !ok {
		return entities.Shelf{}, &ValidationError{ShelfID: shelfID, Reason: "shelf disappeared during rescan"}
	}
	if err := r.ApplyUpdate(r.sim.SimulateShelfScan(shelf)); err != nil {
		return entities.Shelf{}, err
	}

	shelf, _ = findShelf(r.store.Snapshot().Shelves, shelfID)
	return shelf, nil
}

// Stats is a point-in-time snapshot of reconciler counters.
type Stats struct {
	Applied        uint64
	DroppedInvalid uint64
	DroppedFull    uint64
	StaleObserved  uint64
	AlertsRaised   uint64
}

// Stats returns current counter values.
func (r *Reconciler) Stats() Stats {
	return Stats{
		Applied:        r.applied.Load(),
		DroppedInvalid: r.droppedInvalid.Load(),
		DroppedFull:    r.droppedFull.Load(),
		StaleObserved:  r.staleObserved.Load(),
		AlertsRaised:   r.alertsRaised.Load(),
	}
}

func findShelf(shelves []entities.Shelf, id string) (entities.Shelf, bool) {
	for _, shelf := range shelves {
		if shelf.ID == id {
			return shelf, true
		}
	}
	return entities.Shelf{}, false
}
