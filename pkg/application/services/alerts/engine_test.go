package alerts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func makeAlert(id string, alertType entities.AlertType, age time.Duration, acked bool) entities.Alert {
	return entities.Alert{
		ID:           id,
		ShelfID:      "A1",
		Product:      "Soap",
		Type:         alertType,
		Timestamp:    testNow.Add(-age),
		Acknowledged: acked,
	}
}

func TestPriority_Ordering(t *testing.T) {
	freshEmpty := makeAlert("a", entities.AlertEmpty, 0, false)
	oldEmpty := makeAlert("b", entities.AlertEmpty, 2*time.Hour, false)
	freshLow := makeAlert("c", entities.AlertLow, 0, false)
	ackedEmpty := makeAlert("d", entities.AlertEmpty, 0, true)

	assert.True(t, Priority(freshEmpty, testNow).LessThan(Priority(oldEmpty, testNow)),
		"newer empty should outrank older empty")
	assert.True(t, Priority(oldEmpty, testNow).LessThan(Priority(freshLow, testNow)),
		"any unacknowledged empty should outrank low")
	assert.True(t, Priority(freshLow, testNow).LessThan(Priority(ackedEmpty, testNow)),
		"acknowledged alerts sort last")
}

func TestPriority_AgeContribution(t *testing.T) {
	// 10 minutes at 0.1 per minute adds exactly 1.
	a := makeAlert("a", entities.AlertLow, 10*time.Minute, false)
	assert.True(t, Priority(a, testNow).Equal(decimal.NewFromInt(101)),
		"got %s", Priority(a, testNow))

	acked := makeAlert("b", entities.AlertEmpty, 0, true)
	assert.True(t, Priority(acked, testNow).Equal(decimal.NewFromInt(10000)),
		"got %s", Priority(acked, testNow))
}

func TestComputeSeverity(t *testing.T) {
	tests := []struct {
		name     string
		alert    entities.Alert
		expected entities.Severity
	}{
		{name: "empty_always_critical", alert: makeAlert("a", entities.AlertEmpty, 30*time.Hour, true), expected: entities.SeverityCritical},
		{name: "low_fresh", alert: makeAlert("b", entities.AlertLow, time.Hour, false), expected: entities.SeverityLow},
		{name: "low_over_4h", alert: makeAlert("c", entities.AlertLow, 5*time.Hour, false), expected: entities.SeverityMedium},
		{name: "low_over_24h", alert: makeAlert("d", entities.AlertLow, 25*time.Hour, false), expected: entities.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeSeverity(tt.alert, testNow))
		})
	}
}

func TestIsUrgent(t *testing.T) {
	assert.True(t, IsUrgent(makeAlert("a", entities.AlertEmpty, 0, false), testNow))
	assert.True(t, IsUrgent(makeAlert("b", entities.AlertLow, 25*time.Hour, false), testNow))
	assert.False(t, IsUrgent(makeAlert("c", entities.AlertLow, time.Hour, false), testNow))
	assert.False(t, IsUrgent(makeAlert("d", entities.AlertEmpty, 0, true), testNow),
		"acknowledged alerts are never urgent")
}

func TestSortByPriority_Partitioning(t *testing.T) {
	input := []entities.Alert{
		makeAlert("acked-empty", entities.AlertEmpty, time.Minute, true),
		makeAlert("low", entities.AlertLow, time.Minute, false),
		makeAlert("acked-low", entities.AlertLow, time.Minute, true),
		makeAlert("empty", entities.AlertEmpty, time.Minute, false),
	}

	sorted := SortByPriority(input, testNow)
	require.Len(t, sorted, 4)
	assert.Equal(t, "empty", sorted[0].ID)
	assert.Equal(t, "low", sorted[1].ID)
	assert.True(t, sorted[2].Acknowledged)
	assert.True(t, sorted[3].Acknowledged)

	// Input order must be preserved.
	assert.Equal(t, "acked-empty", input[0].ID)
}

func TestSorts_NonMutating(t *testing.T) {
	input := []entities.Alert{
		makeAlert("b", entities.AlertLow, time.Hour, false),
		makeAlert("a", entities.AlertEmpty, time.Minute, false),
	}
	input[0].ShelfID = "B2"
	input[0].Product = "Zucchini"

	SortByNewest(input)
	SortByShelf(input)
	SortByProduct(input)

	assert.Equal(t, "b", input[0].ID)
	assert.Equal(t, "a", input[1].ID)
}
