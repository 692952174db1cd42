package entities

import (
	"fmt"
	"time"
)

// ShelfStatus summarizes a shelf's worst-case product stock condition.
type ShelfStatus int

const (
	StatusOK ShelfStatus = iota
	StatusLow
	StatusEmpty
)

func (s ShelfStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusLow:
		return "low"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its lowercase name.
func (s ShelfStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// DeriveStatus computes a shelf's status from its product counts: empty if any
// product is out of stock, low if any product is below threshold, ok otherwise.
// Stored status must never be set independently of this function.
func DeriveStatus(items []Product) ShelfStatus {
	status := StatusOK
	for _, item := range items {
		if item.IsEmpty() {
			return StatusEmpty
		}
		if item.IsLow() {
			status = StatusLow
		}
	}
	return status
}

// Shelf represents one monitored shelf location.
type Shelf struct {
	ID          string      `json:"id"`
	Aisle       string      `json:"aisle"`
	Items       []Product   `json:"items"`
	Status      ShelfStatus `json:"status"`
	LastScanned time.Time   `json:"lastScanned"`
	ImageURL    string      `json:"imageUrl,omitempty"`
}

// NewShelf creates a validated Shelf with its status derived from items.
func NewShelf(id, aisle string, items []Product, lastScanned time.Time) (*Shelf, error) {
	if id == "" {
		return nil, fmt.Errorf("shelf id cannot be empty")
	}
	if aisle == "" {
		return nil, fmt.Errorf("shelf %s: aisle cannot be empty", id)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("shelf %s: %w", id, err)
		}
	}
	return &Shelf{
		ID:          id,
		Aisle:       aisle,
		Items:       CloneProducts(items),
		Status:      DeriveStatus(items),
		LastScanned: lastScanned,
	}, nil
}

// FindProduct returns the product with the given name, matched exactly.
func (s Shelf) FindProduct(name string) (Product, bool) {
	for _, item := range s.Items {
		if item.Name == name {
			return item, true
		}
	}
	return Product{}, false
}

// WithItems returns a copy of the shelf carrying the given items, a fresh
// LastScanned stamp, and a recomputed status. The receiver is not modified.
func (s Shelf) WithItems(items []Product, scannedAt time.Time) Shelf {
	next := s
	next.Items = CloneProducts(items)
	next.Status = DeriveStatus(next.Items)
	next.LastScanned = scannedAt
	return next
}
