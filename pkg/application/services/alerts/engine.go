// Package alerts implements the alert prioritization engine: pure functions
// scoring, classifying, sorting, filtering, and aggregating stock alerts.
// Every age-dependent operation takes the current instant explicitly so
// callers and tests control the clock.
package alerts

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

var (
	lowBase      = decimal.NewFromInt(100)
	ackPenalty   = decimal.NewFromInt(10000)
	agePerMinute = decimal.New(1, -1) // 0.1
)

// Priority returns the urgency score for an alert at the given instant. Lower
// scores are more urgent: empty alerts start at 0 and low alerts at 100, each
// gaining 0.1 per minute of age; acknowledged alerts carry a large penalty so
// they always sort last. Decimal arithmetic keeps the key a total order with
// no float comparison drift.
func Priority(a entities.Alert, now time.Time) decimal.Decimal {
	score := decimal.Zero
	if a.Type == entities.AlertLow {
		score = lowBase
	}
	ageMinutes := decimal.NewFromFloat(a.Age(now).Minutes())
	score = score.Add(ageMinutes.Mul(agePerMinute))
	if a.Acknowledged {
		score = score.Add(ackPenalty)
	}
	return score
}

// ComputeSeverity classifies an alert. Empty alerts are always critical; low
// alerts escalate with age: high past 24 hours, medium past 4 hours.
func ComputeSeverity(a entities.Alert, now time.Time) entities.Severity {
	if a.Type == entities.AlertEmpty {
		return entities.SeverityCritical
	}
	switch age := a.Age(now); {
	case age > 24*time.Hour:
		return entities.SeverityHigh
	case age > 4*time.Hour:
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}

// IsUrgent reports whether an alert needs immediate attention: unacknowledged
// and either empty or aged into high severity.
func IsUrgent(a entities.Alert, now time.Time) bool {
	if a.Acknowledged {
		return false
	}
	return a.Type == entities.AlertEmpty || ComputeSeverity(a, now) == entities.SeverityHigh
}

// SortByPriority returns the alerts ordered most urgent first. The sort is
// stable and does not mutate the input.
func SortByPriority(alerts []entities.Alert, now time.Time) []entities.Alert {
	out := cloneAlerts(alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return Priority(out[i], now).LessThan(Priority(out[j], now))
	})
	return out
}

// SortByNewest returns the alerts ordered newest first.
func SortByNewest(alerts []entities.Alert) []entities.Alert {
	out := cloneAlerts(alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// SortByShelf returns the alerts ordered by shelf id, lexicographically.
func SortByShelf(alerts []entities.Alert) []entities.Alert {
	out := cloneAlerts(alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ShelfID < out[j].ShelfID
	})
	return out
}

// SortByProduct returns the alerts ordered by product name, lexicographically.
func SortByProduct(alerts []entities.Alert) []entities.Alert {
	out := cloneAlerts(alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Product < out[j].Product
	})
	return out
}

func cloneAlerts(alerts []entities.Alert) []entities.Alert {
	out := make([]entities.Alert, len(alerts))
	copy(out, alerts)
	return out
}
