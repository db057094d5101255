// Package catalog provides the initial product list of a machine.
package catalog

import (
	"encoding/json"
	"os"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Default returns a fresh copy of the built-in catalog.
func Default() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Water", Price: decimal.RequireFromString("0.50"), Stock: 10},
		{ID: 2, Name: "Coke", Price: decimal.RequireFromString("1.00"), Stock: 10},
		{ID: 3, Name: "Diet Coke", Price: decimal.RequireFromString("1.20"), Stock: 10},
		{ID: 4, Name: "Iced Tea", Price: decimal.RequireFromString("1.00"), Stock: 10},
		{ID: 5, Name: "Chocolate", Price: decimal.RequireFromString("1.50"), Stock: 10},
		{ID: 6, Name: "Candy", Price: decimal.RequireFromString("0.95"), Stock: 10},
		{ID: 7, Name: "Chips", Price: decimal.RequireFromString("2.50"), Stock: 10},
		{ID: 8, Name: "Espresso", Price: decimal.RequireFromString("1.20"), Stock: 10},
		{ID: 9, Name: "Coffee", Price: decimal.RequireFromString("1.50"), Stock: 10},
	}
}

// Load returns the catalog at path, or Default when path is empty.
func Load(path string) ([]model.Product, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	return Parse(b)
}

// Parse decodes a JSON array of products and validates each entry.
func Parse(b []byte) ([]model.Product, error) {
	var products []model.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	for i, p := range products {
		if p.Price.IsNegative() {
			return nil, errors.Errorf("catalog entry %d (id %d): price must be >= 0", i, p.ID)
		}
		if p.Stock < 0 {
			return nil, errors.Errorf("catalog entry %d (id %d): stock must be >= 0", i, p.ID)
		}
	}
	return products, nil
}
