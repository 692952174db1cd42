package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
	"github.com/retailops/shelfwatch/pkg/infrastructure/store"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) (*Reconciler, *store.Store) {
	t.Helper()

	a1, err := entities.NewShelf("A1", "A", []entities.Product{
		{Name: "Hand Soap", Count: 12, Threshold: 8},
		{Name: "Toothpaste", Count: 9, Threshold: 8},
	}, testNow.Add(-time.Hour))
	require.NoError(t, err)
	b1, err := entities.NewShelf("B1", "B", []entities.Product{
		{Name: "Cereal", Count: 11, Threshold: 10},
	}, testNow.Add(-time.Hour))
	require.NoError(t, err)

	st := store.New(store.State{Shelves: []entities.Shelf{*a1, *b1}}, nil)
	sim := simulation.NewWithClock(1, testClock)
	rec := New(st, sim, nil, Config{RescanLatency: time.Millisecond, QueueSize: 4}, quietLogger())
	rec.now = testClock
	return rec, st
}

func scanOf(shelfID string, at time.Time, items ...entities.Product) entities.ScanUpdate {
	return entities.ScanUpdate{ShelfID: shelfID, Items: items, Timestamp: at}
}

func TestApplyUpdate_UpsertsShelfAndRaisesAlerts(t *testing.T) {
	rec, st := newFixture(t)

	update := scanOf("A1", testNow,
		entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8},
		entities.Product{Name: "Toothpaste", Count: 0, Threshold: 8},
	)
	require.NoError(t, rec.ApplyUpdate(update))

	state := st.Snapshot()
	shelf := state.Shelves[0]
	assert.Equal(t, entities.StatusEmpty, shelf.Status)
	assert.Equal(t, testNow, shelf.LastScanned)

	require.Len(t, state.Alerts, 2)
	byProduct := map[string]entities.AlertType{}
	for _, a := range state.Alerts {
		assert.Equal(t, "A1", a.ShelfID)
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.Acknowledged)
		byProduct[a.Product] = a.Type
	}
	assert.Equal(t, entities.AlertLow, byProduct["Hand Soap"])
	assert.Equal(t, entities.AlertEmpty, byProduct["Toothpaste"])

	stats := rec.Stats()
	assert.Equal(t, uint64(1), stats.Applied)
	assert.Equal(t, uint64(2), stats.AlertsRaised)
}

func TestApplyUpdate_ValidationFailures(t *testing.T) {
	rec, st := newFixture(t)
	soap := entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8}

	tests := []struct {
		name   string
		update entities.ScanUpdate
	}{
		{name: "malformed_no_items", update: scanOf("A1", testNow)},
		{name: "unknown_shelf", update: scanOf("Z9", testNow, soap)},
		{name: "product_not_on_shelf", update: scanOf("A1", testNow, entities.Product{Name: "Caviar", Count: 1, Threshold: 5})},
		{name: "negative_count", update: scanOf("A1", testNow, entities.Product{Name: "Hand Soap", Count: -1, Threshold: 8})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rec.ApplyUpdate(tt.update)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}

	// Nothing mutated, every failure counted.
	state := st.Snapshot()
	assert.Equal(t, 12, state.Shelves[0].Items[0].Count)
	assert.Empty(t, state.Alerts)
	assert.Equal(t, uint64(len(tests)), rec.Stats().DroppedInvalid)
	assert.Equal(t, uint64(0), rec.Stats().Applied)
}

func TestApplyUpdate_AlertIdempotence(t *testing.T) {
	rec, st := newFixture(t)
	low := scanOf("A1", testNow, entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8})

	require.NoError(t, rec.ApplyUpdate(low))
	low.Timestamp = testNow.Add(time.Minute)
	require.NoError(t, rec.ApplyUpdate(low))

	assert.Len(t, st.Snapshot().Alerts, 1, "repeated low scans must not duplicate the alert")
	assert.Equal(t, uint64(1), rec.Stats().AlertsRaised)
}

func TestApplyUpdate_AcknowledgedAlertIsSuperseded(t *testing.T) {
	rec, st := newFixture(t)
	low := scanOf("A1", testNow, entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8})
	require.NoError(t, rec.ApplyUpdate(low))

	first := st.Snapshot().Alerts[0]
	require.NoError(t, rec.Acknowledge(first.ID))

	// The condition persists past the acknowledgement: a fresh alert is due.
	low.Timestamp = testNow.Add(time.Minute)
	require.NoError(t, rec.ApplyUpdate(low))

	state := st.Snapshot()
	require.Len(t, state.Alerts, 2)
	assert.True(t, state.Alerts[0].Acknowledged)
	assert.False(t, state.Alerts[1].Acknowledged)
	assert.NotEqual(t, state.Alerts[0].ID, state.Alerts[1].ID)
}

func TestApplyUpdate_TypeEscalation(t *testing.T) {
	rec, st := newFixture(t)

	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow,
		entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8})))
	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow.Add(time.Minute),
		entities.Product{Name: "Hand Soap", Count: 0, Threshold: 8})))

	// An open low alert does not satisfy the empty condition.
	state := st.Snapshot()
	require.Len(t, state.Alerts, 2)
	types := []entities.AlertType{state.Alerts[0].Type, state.Alerts[1].Type}
	assert.Contains(t, types, entities.AlertLow)
	assert.Contains(t, types, entities.AlertEmpty)
}

func TestApplyUpdate_StaleUpdateLastWriteWins(t *testing.T) {
	rec, st := newFixture(t)

	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow,
		entities.Product{Name: "Hand Soap", Count: 10, Threshold: 8})))

	// An older timestamp still applies; the race is observed, not rejected.
	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow.Add(-time.Minute),
		entities.Product{Name: "Hand Soap", Count: 9, Threshold: 8})))

	product, _ := st.Snapshot().Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 9, product.Count)
	assert.Equal(t, uint64(1), rec.Stats().StaleObserved)
	assert.Equal(t, uint64(2), rec.Stats().Applied)
}

func TestAcknowledge_UnknownAlert(t *testing.T) {
	rec, _ := newFixture(t)
	var vErr *ValidationError
	assert.ErrorAs(t, rec.Acknowledge("missing"), &vErr)
}

func TestMarkRestocked(t *testing.T) {
	rec, st := newFixture(t)
	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow,
		entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8})))
	require.Len(t, st.Snapshot().Alerts, 1)

	require.NoError(t, rec.MarkRestocked("A1", "Hand Soap"))

	state := st.Snapshot()
	product, _ := state.Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 4, product.Count)
	assert.Empty(t, state.Alerts, "restock clears the pair's alerts")

	var vErr *ValidationError
	assert.ErrorAs(t, rec.MarkRestocked("Z9", "Hand Soap"), &vErr)
	assert.ErrorAs(t, rec.MarkRestocked("A1", "Caviar"), &vErr)
}

func TestRestock_SetsCountAndClearsAcknowledgedAlerts(t *testing.T) {
	rec, st := newFixture(t)
	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow,
		entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8})))
	require.NoError(t, rec.Acknowledge(st.Snapshot().Alerts[0].ID))

	require.NoError(t, rec.Restock("A1", "Hand Soap", 12))

	state := st.Snapshot()
	product, _ := state.Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 12, product.Count)
	assert.Equal(t, entities.StatusOK, state.Shelves[0].Status)
	assert.Empty(t, state.Alerts, "acknowledged alerts for the pair clear too")

	var vErr *ValidationError
	assert.ErrorAs(t, rec.Restock("A1", "Caviar", 5), &vErr)
	assert.ErrorAs(t, rec.Restock("Z9", "Hand Soap", 5), &vErr)
}

// A shelf with one low product (acknowledged alert) and one empty product:
// restocking the low one clears only its alert and leaves the shelf empty.
func TestRestock_PartialShelfRecovery(t *testing.T) {
	soap := entities.Product{Name: "Hand Soap", Count: 3, Threshold: 8}
	paste := entities.Product{Name: "Toothpaste", Count: 0, Threshold: 8}

	rec, st := newFixture(t)
	require.NoError(t, rec.ApplyUpdate(scanOf("A1", testNow, soap, paste)))
	require.Equal(t, entities.StatusEmpty, st.Snapshot().Shelves[0].Status)
	require.Len(t, st.Snapshot().Alerts, 2)

	for _, a := range st.Snapshot().Alerts {
		if a.Product == "Hand Soap" {
			require.NoError(t, rec.Acknowledge(a.ID))
		}
	}

	require.NoError(t, rec.Restock("A1", "Hand Soap", 12))

	state := st.Snapshot()
	product, _ := state.Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 12, product.Count)
	assert.Equal(t, entities.StatusEmpty, state.Shelves[0].Status,
		"the empty product still pins the shelf status")

	require.Len(t, state.Alerts, 1)
	assert.Equal(t, "Toothpaste", state.Alerts[0].Product)
	assert.Equal(t, entities.AlertEmpty, state.Alerts[0].Type)
}

func TestRequestRescan(t *testing.T) {
	rec, st := newFixture(t)

	shelf, err := rec.RequestRescan(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, "B1", shelf.ID)
	assert.Equal(t, entities.DeriveStatus(shelf.Items), shelf.Status)

	state := st.Snapshot()
	assert.Empty(t, state.ScanningShelfID, "scanning flag clears once the scan lands")
	assert.Equal(t, uint64(1), rec.Stats().Applied)

	var vErr *ValidationError
	_, err = rec.RequestRescan(context.Background(), "Z9")
	assert.ErrorAs(t, err, &vErr)
}

func TestRequestRescan_ContextCancelled(t *testing.T) {
	rec, _ := newFixture(t)
	rec.config.RescanLatency = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rec.RequestRescan(ctx, "A1")
	assert.ErrorIs(t, err, context.Canceled)
}

// stubSource emits a fixed batch of updates and exits.
type stubSource struct {
	updates []entities.ScanUpdate
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Run(ctx context.Context, emit func(entities.ScanUpdate)) error {
	for _, u := range s.updates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		emit(u)
	}
	<-ctx.Done()
	return nil
}

func TestReconciler_StartConsumesSources(t *testing.T) {
	rec, st := newFixture(t)
	rec.sources = []UpdateSource{&stubSource{updates: []entities.ScanUpdate{
		scanOf("A1", testNow, entities.Product{Name: "Hand Soap", Count: 2, Threshold: 8}),
		scanOf("B1", testNow, entities.Product{Name: "Cereal", Count: 0, Threshold: 10}),
	}}}

	require.NoError(t, rec.Start(context.Background()))
	assert.Error(t, rec.Start(context.Background()), "second start must fail")

	require.Eventually(t, func() bool {
		return rec.Stats().Applied == 2
	}, 2*time.Second, 5*time.Millisecond)

	rec.Stop()
	rec.Stop() // idempotent

	state := st.Snapshot()
	assert.Equal(t, entities.StatusLow, state.Shelves[0].Status)
	assert.Equal(t, entities.StatusEmpty, state.Shelves[1].Status)
	assert.Len(t, state.Alerts, 2)
}

func TestTickerSource_EmitsAndStops(t *testing.T) {
	_, st := newFixture(t)
	sim := simulation.NewWithClock(1, testClock)
	src := NewPushSource(time.Millisecond, 1.0, sim, st)
	assert.Equal(t, "push-sim", src.Name())

	emitted := make(chan entities.ScanUpdate, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(u entities.ScanUpdate) {
			select {
			case emitted <- u:
			default:
			}
		})
	}()

	for i := 0; i < 3; i++ {
		select {
		case u := <-emitted:
			assert.Contains(t, []string{"A1", "B1"}, u.ShelfID)
			assert.NoError(t, u.Validate())
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for emitted update")
		}
	}
	cancel()
	require.NoError(t, <-done)
}
