// Package simulation generates synthetic shelves, alerts, and scan-update
// events standing in for drone or camera scans. All randomness flows through a
// single injected source so generation is reproducible under a fixed seed.
package simulation

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retailops/shelfwatch/pkg/application/services/alerts"
	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// Grid dimensions for the mock store.
const (
	ShelvesPerAisle = 3

	// Minimums the distribution-forcing pass guarantees so a fresh demo
	// always shows variety.
	minEmptyShelves = 2
	minLowShelves   = 3
)

var aisles = []string{"A", "B", "C", "D", "E"}

// TotalShelves is the size of the generated grid.
const TotalShelves = 5 * ShelvesPerAisle

// Simulator produces synthetic inventory data from a seeded random source.
type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

// New creates a Simulator seeded for reproducible output.
func New(seed int64) *Simulator {
	return NewWithClock(seed, time.Now)
}

// NewWithClock creates a Simulator with an explicit clock, for tests.
func NewWithClock(seed int64, now func() time.Time) *Simulator {
	return &Simulator{
		rng: rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)}),
		now: now,
	}
}

// lockedSource guards the random source: push, poll, and rescan paths draw
// from the same Simulator concurrently.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// Chance reports true with the given probability.
func (s *Simulator) Chance(probability float64) bool {
	return s.rng.Float64() < probability
}

// PickShelf returns one shelf chosen uniformly at random.
func (s *Simulator) PickShelf(shelves []entities.Shelf) entities.Shelf {
	return shelves[s.rng.Intn(len(shelves))]
}

// GenerateShelf produces one shelf holding 3-6 unique catalog products. Counts
// follow a weighted distribution: 10% out of stock, 10% below threshold, 60%
// a little above threshold, 20% well stocked.
func (s *Simulator) GenerateShelf(id, aisle string) (*entities.Shelf, error) {
	productCount := 3 + s.rng.Intn(4)
	picks := s.rng.Perm(len(catalog))[:productCount]

	items := make([]entities.Product, 0, productCount)
	for _, idx := range picks {
		name := catalog[idx]
		threshold := ThresholdFor(name)
		items = append(items, entities.Product{
			Name:      name,
			Count:     s.randomCount(threshold),
			Threshold: threshold,
		})
	}

	scannedAt := s.now().Add(-time.Duration(s.rng.Intn(30)) * time.Minute)
	return entities.NewShelf(id, aisle, items, scannedAt)
}

func (s *Simulator) randomCount(threshold int) int {
	switch r := s.rng.Float64(); {
	case r < 0.10:
		return 0
	case r < 0.20:
		return s.rng.Intn(threshold)
	case r < 0.80:
		return threshold + s.rng.Intn(10)
	default:
		return threshold + s.rng.Intn(20)
	}
}

// GenerateMockShelves produces the full aisle grid, then forces enough shelves
// into empty and low so the dashboard never starts without alert-worthy data.
// The forcing pass recomputes status through the normal derivation, so the
// status invariant holds afterwards.
func (s *Simulator) GenerateMockShelves() ([]entities.Shelf, error) {
	shelves := make([]entities.Shelf, 0, TotalShelves)
	for _, aisle := range aisles {
		for n := 1; n <= ShelvesPerAisle; n++ {
			shelf, err := s.GenerateShelf(fmt.Sprintf("%s%d", aisle, n), aisle)
			if err != nil {
				return nil, fmt.Errorf("generate shelf %s%d: %w", aisle, n, err)
			}
			shelves = append(shelves, *shelf)
		}
	}

	s.forceStatusMix(shelves)
	return shelves, nil
}

// forceStatusMix walks the grid in deterministic order, zeroing one product on
// ok/low shelves until minEmptyShelves is met, then halving one product's
// threshold headroom on ok shelves until minLowShelves is met.
func (s *Simulator) forceStatusMix(shelves []entities.Shelf) {
	empty := countByStatus(shelves, entities.StatusEmpty)
	for i := range shelves {
		if empty >= minEmptyShelves {
			break
		}
		if shelves[i].Status == entities.StatusEmpty {
			continue
		}
		items := entities.CloneProducts(shelves[i].Items)
		items[0].Count = 0
		shelves[i] = shelves[i].WithItems(items, shelves[i].LastScanned)
		empty++
	}

	low := countByStatus(shelves, entities.StatusLow)
	for i := range shelves {
		if low >= minLowShelves {
			break
		}
		if shelves[i].Status != entities.StatusOK {
			continue
		}
		items := entities.CloneProducts(shelves[i].Items)
		half := items[0].Threshold / 2
		if half < 1 {
			half = 1
		}
		items[0].Count = half
		shelves[i] = shelves[i].WithItems(items, shelves[i].LastScanned)
		low++
	}
}

func countByStatus(shelves []entities.Shelf, status entities.ShelfStatus) int {
	n := 0
	for _, shelf := range shelves {
		if shelf.Status == status {
			n++
		}
	}
	return n
}

// GenerateAlertsFromShelves emits exactly one alert per product currently out
// of stock or below threshold, with a randomized recent timestamp and a share
// of alerts pre-acknowledged (30% for empty, 20% for low). Result is newest
// first.
func (s *Simulator) GenerateAlertsFromShelves(shelves []entities.Shelf) []entities.Alert {
	var out []entities.Alert
	now := s.now()
	for _, shelf := range shelves {
		for _, item := range shelf.Items {
			var alertType entities.AlertType
			var ackChance float64
			switch {
			case item.IsEmpty():
				alertType = entities.AlertEmpty
				ackChance = 0.30
			case item.IsLow():
				alertType = entities.AlertLow
				ackChance = 0.20
			default:
				continue
			}
			out = append(out, entities.Alert{
				ID:           uuid.NewString(),
				ShelfID:      shelf.ID,
				Product:      item.Name,
				Type:         alertType,
				Timestamp:    now.Add(-time.Duration(s.rng.Intn(36*60)) * time.Minute),
				Acknowledged: s.rng.Float64() < ackChance,
			})
		}
	}
	return alerts.SortByNewest(out)
}
