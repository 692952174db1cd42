package entities

import "fmt"

// Product represents a single SKU slot on a shelf.
type Product struct {
	Name      string `json:"product"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
}

// NewProduct creates a validated Product.
func NewProduct(name string, count, threshold int) (Product, error) {
	p := Product{Name: name, Count: count, Threshold: threshold}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Validate checks the Product field invariants.
func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name cannot be empty")
	}
	if p.Count < 0 {
		return fmt.Errorf("product %q: count cannot be negative, got %d", p.Name, p.Count)
	}
	if p.Threshold <= 0 {
		return fmt.Errorf("product %q: threshold must be positive, got %d", p.Name, p.Threshold)
	}
	return nil
}

// IsEmpty reports whether the product is out of stock.
func (p Product) IsEmpty() bool {
	return p.Count == 0
}

// IsLow reports whether the product is in stock but below its restock threshold.
func (p Product) IsLow() bool {
	return p.Count > 0 && p.Count < p.Threshold
}

// CloneProducts returns an independent copy of a product slice. Every state
// transition replaces item slices rather than patching them in place.
func CloneProducts(items []Product) []Product {
	out := make([]Product, len(items))
	copy(out, items)
	return out
}
