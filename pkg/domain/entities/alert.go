package entities

import "time"

// AlertType classifies the stock condition that raised an alert.
type AlertType int

const (
	AlertLow AlertType = iota
	AlertEmpty
)

func (t AlertType) String() string {
	switch t {
	case AlertLow:
		return "low"
	case AlertEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the alert type as its lowercase name.
func (t AlertType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// Severity ranks how pressing an alert is, derived from type and age.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Alert records a low or empty stock condition for one product on one shelf.
// The product is matched by name, not by a strict foreign key.
type Alert struct {
	ID           string    `json:"id"`
	ShelfID      string    `json:"shelf"`
	Product      string    `json:"product"`
	Type         AlertType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

// Age returns how long the alert has been open as of now.
func (a Alert) Age(now time.Time) time.Duration {
	return now.Sub(a.Timestamp)
}

// Matches reports whether the alert targets the given shelf and product pair.
func (a Alert) Matches(shelfID, product string) bool {
	return a.ShelfID == shelfID && a.Product == product
}
