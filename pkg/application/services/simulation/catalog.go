package simulation

import "strings"

// catalog is the fixed set of SKU names shelves are stocked from.
var catalog = []string{
	"Hand Soap",
	"Dish Soap",
	"Toothpaste",
	"Shampoo",
	"Bottled Water",
	"Paper Towels",
	"Toilet Paper",
	"Laundry Detergent",
	"Cereal",
	"Pasta",
	"Canned Soup",
	"Tortilla Chips",
	"Coffee",
	"Tea Bags",
	"Snack Bars",
	"Trash Bags",
	"Batteries",
	"Light Bulbs",
	"Band-Aids",
	"Vitamins",
}

// thresholdBucket maps keyword families to restock thresholds. Fast movers
// (bulk goods) get higher thresholds than slow movers.
type thresholdBucket struct {
	keywords  []string
	threshold int
}

var thresholdBuckets = []thresholdBucket{
	{keywords: []string{"water", "paper", "towels", "bags"}, threshold: 15},       // bulk
	{keywords: []string{"cereal", "pasta", "soup", "chips"}, threshold: 10},       // large
	{keywords: []string{"soap", "shampoo", "toothpaste", "coffee"}, threshold: 8}, // medium
}

const smallThreshold = 5

// ThresholdFor derives a product's restock threshold from its name. The first
// bucket with a keyword match wins; anything unmatched is a small mover.
func ThresholdFor(name string) int {
	lower := strings.ToLower(name)
	for _, bucket := range thresholdBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.threshold
			}
		}
	}
	return smallThreshold
}
