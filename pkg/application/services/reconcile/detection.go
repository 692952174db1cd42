package reconcile

import (
	"sort"
	"time"

	"github.com/retailops/shelfwatch/pkg/application/services/simulation"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// DefaultMinConfidence is the cutoff below which detections are noise.
const DefaultMinConfidence = 0.3

// defaultLabelLocations maps detector class labels to shelf ids. The table is
// a fixed external dictionary describing the store's camera placement; it is
// not derived from state.
var defaultLabelLocations = map[string]string{
	"bottle":     "A1",
	"cup":        "A1",
	"wine glass": "A2",
	"bowl":       "A3",
	"toothbrush": "B1",
	"scissors":   "B2",
	"book":       "C1",
	"vase":       "C2",
	"banana":     "D1",
	"apple":      "D1",
	"orange":     "D2",
	"sandwich":   "D3",
	"teddy bear": "E1",
	"clock":      "E2",
}

// DetectionMapper turns raw camera detections into a scan update the
// reconciler can apply like any other source's.
type DetectionMapper struct {
	minConfidence float64
	locations     map[string]string
}

// NewDetectionMapper creates a mapper with the default label table. A
// non-positive minConfidence falls back to DefaultMinConfidence.
func NewDetectionMapper(minConfidence float64) *DetectionMapper {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	locations := make(map[string]string, len(defaultLabelLocations))
	for label, shelf := range defaultLabelLocations {
		locations[label] = shelf
	}
	return &DetectionMapper{minConfidence: minConfidence, locations: locations}
}

// MapDetections thresholds the detections, resolves which shelf the frame
// shows (the highest-confidence mapped label wins, ties broken by
// lexicographic label order), and counts detections per label into a scan
// update. Returns false when no detection maps to a shelf.
func (m *DetectionMapper) MapDetections(detections []entities.Detection, at time.Time) (entities.ScanUpdate, bool) {
	kept := make([]entities.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence <= m.minConfidence {
			continue
		}
		if _, ok := m.locations[d.Label]; ok {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return entities.ScanUpdate{}, false
	}

	// Deterministic winner: highest confidence, then smallest label.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return kept[i].Label < kept[j].Label
	})
	shelfID := m.locations[kept[0].Label]

	counts := make(map[string]int)
	var order []string
	for _, d := range kept {
		if m.locations[d.Label] != shelfID {
			continue
		}
		if _, seen := counts[d.Label]; !seen {
			order = append(order, d.Label)
		}
		counts[d.Label]++
	}

	items := make([]entities.Product, 0, len(order))
	for _, label := range order {
		items = append(items, entities.Product{
			Name:      label,
			Count:     counts[label],
			Threshold: simulation.ThresholdFor(label),
		})
	}
	return entities.ScanUpdate{ShelfID: shelfID, Items: items, Timestamp: at}, true
}
