// Package model defines domain types used by the service.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents the current state of a catalog item.
type Product struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// PriceCents returns the price in cents, truncating sub-cent fractions.
func (p Product) PriceCents() int64 {
	return p.Price.Shift(2).Truncate(0).IntPart()
}

// Receipt describes a successful retrieval.
type Receipt struct {
	ProductID  int             `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	PriceCents int64           `json:"price_ct"`
	Message    string          `json:"message"`
}

// EventType names a machine state transition.
type EventType string

const (
	EventMoneyInserted          EventType = "money_inserted"
	EventProductSold            EventType = "product_sold"
	EventPurchaseRejected       EventType = "purchase_rejected"
	EventCoinsReturned          EventType = "coins_returned"
	EventChangeNotRepresentable EventType = "change_not_representable"
)

// Event is emitted by a machine after each state transition.
type Event struct {
	Sequence     uint64    `json:"sequence"`
	MachineID    string    `json:"machine_id"`
	Type         EventType `json:"type"`
	ProductID    int       `json:"product_id,omitempty"`
	AmountCents  int64     `json:"amount_ct"`
	BalanceCents int64     `json:"balance_ct"`
	Coins        []int64   `json:"coins,omitempty"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`

	// Trace holds the propagated trace context of the call that caused the
	// event. It travels as message headers, not in the payload.
	Trace map[string]string `json:"-"`
}
