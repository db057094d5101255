// Package inventory owns the product catalog of a vending machine.
package inventory

import (
	"fmt"
	"sync"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// Inventory maps product ids to products and keeps their insertion order.
// Products are only ever mutated through Retrieve.
type Inventory struct {
	mu    sync.RWMutex
	order []int
	m     map[int]*model.Product
}

// New builds an Inventory from products. A repeated id replaces the earlier
// record's fields but keeps its original listing position.
func New(products []model.Product) *Inventory {
	inv := &Inventory{m: make(map[int]*model.Product, len(products))}
	for _, p := range products {
		if _, ok := inv.m[p.ID]; !ok {
			inv.order = append(inv.order, p.ID)
		}
		inv.m[p.ID] = &p
	}
	return inv
}

// List returns copies of all products in insertion order.
func (inv *Inventory) List() []model.Product {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]model.Product, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, *inv.m[id])
	}
	return out
}

// Get returns a copy of a single product.
func (inv *Inventory) Get(id int) (model.Product, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	p, ok := inv.m[id]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// Len returns the number of distinct products.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.order)
}

// Retrieve dispenses one unit of product id if availableCt covers its price.
//
// Checks run in a fixed order: unknown id, then sold out, then funds. A sold
// out product reports SoldOutError no matter how much is offered. On success
// the stock is decremented by one and the price in cents is returned.
func (inv *Inventory) Retrieve(id int, availableCt int64) (int64, model.Receipt, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	p, ok := inv.m[id]
	if !ok {
		return 0, model.Receipt{}, &UnknownProductError{ID: id}
	}
	if p.Stock <= 0 {
		return 0, model.Receipt{}, &SoldOutError{ID: id, Name: p.Name}
	}
	priceCt := p.PriceCents()
	if priceCt > availableCt {
		return 0, model.Receipt{}, ErrInsufficientFunds
	}
	p.Stock--
	return priceCt, model.Receipt{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		PriceCents: priceCt,
		Message:    fmt.Sprintf("You retrieved 1 %s for the price of €%s.", p.Name, p.Price.StringFixed(2)),
	}, nil
}
