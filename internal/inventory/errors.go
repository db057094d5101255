package inventory

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInsufficientFunds is returned when the offered amount is below the price.
var ErrInsufficientFunds = errors.New("Insufficient funds.")

// UnknownProductError is returned for an id that is not in the catalog.
type UnknownProductError struct {
	ID int
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("No product with id %d.", e.ID)
}

// SoldOutError is returned when a product has no stock left.
type SoldOutError struct {
	ID   int
	Name string
}

func (e *SoldOutError) Error() string {
	return fmt.Sprintf("Product %d (%s) is sold out.", e.ID, e.Name)
}
