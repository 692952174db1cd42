package simulation

import (
	"fmt"
	"time"

	"github.com/retailops/shelfwatch/pkg/domain/entities"
)

// Per-product transition probabilities for one simulated scan. The three
// transitions are mutually exclusive; most products are unchanged on any
// given scan.
const (
	purchaseChance       = 0.15
	restockChance        = 0.05
	partialRestockChance = 0.05
)

// SimulateShelfScan produces a scan update for the shelf: each product
// independently may see a purchase (count drops 1-3), a full restock from
// empty, or a partial restock toward threshold+5. The input shelf is not
// mutated.
func (s *Simulator) SimulateShelfScan(shelf entities.Shelf) entities.ScanUpdate {
	items := entities.CloneProducts(shelf.Items)
	for i := range items {
		items[i] = s.transition(items[i])
	}
	return entities.ScanUpdate{
		ShelfID:   shelf.ID,
		Items:     items,
		Timestamp: s.now(),
	}
}

func (s *Simulator) transition(p entities.Product) entities.Product {
	r := s.rng.Float64()
	switch {
	case r < purchaseChance && p.Count > 0:
		p.Count -= 1 + s.rng.Intn(3)
		if p.Count < 0 {
			p.Count = 0
		}
	case r < purchaseChance+restockChance && p.Count == 0:
		p.Count = p.Threshold + s.rng.Intn(10)
	case r < purchaseChance+restockChance+partialRestockChance && p.Count < p.Threshold:
		target := p.Threshold + 5
		p.Count += 1 + s.rng.Intn(target-p.Count)
		if p.Count > target {
			p.Count = target
		}
	}
	return p
}

// ApplyScanUpdate returns the shelf with the update's items, the update's
// timestamp as LastScanned, and a recomputed status. Pure: neither input is
// modified.
func ApplyScanUpdate(shelf entities.Shelf, update entities.ScanUpdate) entities.Shelf {
	return shelf.WithItems(update.Items, update.Timestamp)
}

// RestockProduct returns the shelf with the named product's count set to
// newCount, or to threshold plus a random 5-15 surplus when newCount is not
// positive. Status is recomputed. Pure.
func (s *Simulator) RestockProduct(shelf entities.Shelf, productName string, newCount int) (entities.Shelf, error) {
	items := entities.CloneProducts(shelf.Items)
	found := false
	for i := range items {
		if items[i].Name != productName {
			continue
		}
		found = true
		if newCount > 0 {
			items[i].Count = newCount
		} else {
			items[i].Count = items[i].Threshold + 5 + s.rng.Intn(10)
		}
		break
	}
	if !found {
		return entities.Shelf{}, fmt.Errorf("restock: product %q not found on shelf %s", productName, shelf.ID)
	}
	return shelf.WithItems(items, s.now()), nil
}

// ScenarioStep is one scripted scan event in a demo run.
type ScenarioStep struct {
	// Delay before the step fires, relative to the previous step.
	Delay time.Duration
	// Description is shown to staff while the scenario plays.
	Description string
	// ShelfID names the shelf the step targets.
	ShelfID string
	// Mutate builds the scripted update from the shelf's current items.
	Mutate func(shelf entities.Shelf, at time.Time) entities.ScanUpdate
}

// DemoScenario returns the fixed scripted sequence used for demos: a purchase
// run on the first shelf, a stock-out, and a restock, in that order.
func (s *Simulator) DemoScenario() []ScenarioStep {
	return []ScenarioStep{
		{
			Delay:       1500 * time.Millisecond,
			Description: "Customers buying from A1",
			ShelfID:     "A1",
			Mutate: func(shelf entities.Shelf, at time.Time) entities.ScanUpdate {
				items := entities.CloneProducts(shelf.Items)
				for i := range items {
					if items[i].Count > 2 {
						items[i].Count -= 2
					}
				}
				return entities.ScanUpdate{ShelfID: shelf.ID, Items: items, Timestamp: at}
			},
		},
		{
			Delay:       2000 * time.Millisecond,
			Description: "A1 first product sells out",
			ShelfID:     "A1",
			Mutate: func(shelf entities.Shelf, at time.Time) entities.ScanUpdate {
				items := entities.CloneProducts(shelf.Items)
				items[0].Count = 0
				return entities.ScanUpdate{ShelfID: shelf.ID, Items: items, Timestamp: at}
			},
		},
		{
			Delay:       3000 * time.Millisecond,
			Description: "Staff restocks A1",
			ShelfID:     "A1",
			Mutate: func(shelf entities.Shelf, at time.Time) entities.ScanUpdate {
				items := entities.CloneProducts(shelf.Items)
				for i := range items {
					if items[i].Count < items[i].Threshold {
						items[i].Count = items[i].Threshold + 5
					}
				}
				return entities.ScanUpdate{ShelfID: shelf.ID, Items: items, Timestamp: at}
			},
		},
	}
}
