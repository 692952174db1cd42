package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

func setCountStep(shelfID, product string, count int) simulation.ScenarioStep {
	return simulation.ScenarioStep{
		Delay:       time.Millisecond,
		Description: "set count",
		ShelfID:     shelfID,
		Mutate: func(shelf entities.Shelf, at time.Time) entities.ScanUpdate {
			items := entities.CloneProducts(shelf.Items)
			for i := range items {
				if items[i].Name == product {
					items[i].Count = count
				}
			}
			return entities.ScanUpdate{ShelfID: shelf.ID, Items: items, Timestamp: at}
		},
	}
}

func TestScenarioRunner_ReplaysSteps(t *testing.T) {
	rec, st := newFixture(t)
	runner := NewScenarioRunner(rec, st, quietLogger())

	steps := []simulation.ScenarioStep{
		setCountStep("A1", "Hand Soap", 2),
		setCountStep("A1", "Hand Soap", 0),
	}
	require.NoError(t, runner.Start(context.Background(), steps))
	assert.Error(t, runner.Start(context.Background(), nil), "second start while running must fail")

	require.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return !runner.running
	}, 2*time.Second, 5*time.Millisecond)

	state := st.Snapshot()
	assert.Equal(t, entities.StatusEmpty, state.Shelves[0].Status)
	assert.Empty(t, state.Err)
	assert.True(t, state.Shelves[0].LastScanned.Equal(testNow),
		"scripted updates must be stamped by the reconciler clock")

	// One low alert from the first step, one empty alert from the second.
	assert.Len(t, state.Alerts, 2)
}

func TestScenarioRunner_FailingStepHaltsWithError(t *testing.T) {
	rec, st := newFixture(t)
	runner := NewScenarioRunner(rec, st, quietLogger())

	broken := simulation.ScenarioStep{
		Delay:       time.Millisecond,
		Description: "references missing shelf",
		ShelfID:     "Z9",
		Mutate: func(shelf entities.Shelf, at time.Time) entities.ScanUpdate {
			return entities.ScanUpdate{}
		},
	}
	require.NoError(t, runner.Start(context.Background(), []simulation.ScenarioStep{broken}))

	require.Eventually(t, func() bool {
		return st.Snapshot().Err != ""
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, st.Snapshot().Err, "scenario step 1")
}

func TestScenarioRunner_CancelStopsReplay(t *testing.T) {
	rec, st := newFixture(t)
	runner := NewScenarioRunner(rec, st, quietLogger())

	slow := setCountStep("A1", "Hand Soap", 1)
	slow.Delay = time.Minute
	require.NoError(t, runner.Start(context.Background(), []simulation.ScenarioStep{slow}))

	runner.Cancel()
	runner.Cancel() // idempotent

	product, _ := st.Snapshot().Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 12, product.Count, "cancelled step must not apply")
	assert.Empty(t, st.Snapshot().Err, "cancellation is not an error")

	// Runner is reusable after cancel.
	require.NoError(t, runner.Start(context.Background(), nil))
	runner.Cancel()
}

func TestScenarioRunner_ResetRestoresSnapshot(t *testing.T) {
	rec, st := newFixture(t)
	runner := NewScenarioRunner(rec, st, quietLogger())

	// Reset before any run is a no-op.
	runner.Reset()

	require.NoError(t, runner.Start(context.Background(), []simulation.ScenarioStep{
		setCountStep("A1", "Hand Soap", 0),
	}))
	require.Eventually(t, func() bool {
		p, _ := st.Snapshot().Shelves[0].FindProduct("Hand Soap")
		return p.Count == 0
	}, 2*time.Second, 5*time.Millisecond)

	runner.Reset()

	state := st.Snapshot()
	product, _ := state.Shelves[0].FindProduct("Hand Soap")
	assert.Equal(t, 12, product.Count, "reset restores pre-run counts")
	assert.Empty(t, state.Alerts, "reset restores the pre-run alert set")
	assert.Empty(t, state.Err)
}
