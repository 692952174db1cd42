package entities

import (
	"fmt"
	"time"
)

// ScanUpdate carries a new product-count snapshot for one shelf. It is the
// boundary shape between any update source (simulated scans, polling, camera
// detection) and the reconciler.
type ScanUpdate struct {
	ShelfID   string    `json:"shelf"`
	Items     []Product `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the update is well formed before it may touch state.
func (u ScanUpdate) Validate() error {
	if u.ShelfID == "" {
		return fmt.Errorf("scan update: shelf id cannot be empty")
	}
	if len(u.Items) == 0 {
		return fmt.Errorf("scan update for %s: items cannot be empty", u.ShelfID)
	}
	for _, item := range u.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("scan update for %s: %w", u.ShelfID, err)
		}
	}
	return nil
}

// Detection is one observation from the camera object-detection collaborator.
// Box is [x, y, w, h] in frame coordinates; the reconciler only thresholds
// confidence and maps labels, it never interprets geometry.
type Detection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}
