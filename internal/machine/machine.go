// Package machine implements the vending machine model: a cent balance, a
// denomination set for change and an inventory to sell from.
package machine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/vending-machine-simulator/internal/coins"
	"github.com/fairyhunter13/vending-machine-simulator/internal/inventory"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// ErrInvalidCoinSet is returned by New for an empty set or a non-positive
// denomination.
var ErrInvalidCoinSet = errors.New("coin set must contain positive denominations")

// EventSink receives machine events. Enqueue must not block; ctx is the
// context of the call that caused the event.
type EventSink interface {
	Enqueue(ctx context.Context, ev model.Event) bool
}

// Machine is a single vending machine. All methods are safe for concurrent use.
type Machine struct {
	id    string
	inv   *inventory.Inventory
	coins []int64
	sink  EventSink
	now   func() time.Time

	// mu guards balance and is held across inventory retrieval so that the
	// stock decrement and the balance deduction happen together.
	mu      sync.Mutex
	balance int64
}

// Option configures a Machine.
type Option func(*Machine)

// WithInitialBalance sets the starting balance in cents. Negative values are ignored.
func WithInitialBalance(cents int64) Option {
	return func(m *Machine) {
		if cents > 0 {
			m.balance = cents
		}
	}
}

// WithEventSink routes machine events to sink.
func WithEventSink(sink EventSink) Option {
	return func(m *Machine) { m.sink = sink }
}

// WithID overrides the generated machine id.
func WithID(id string) Option {
	return func(m *Machine) {
		if id != "" {
			m.id = id
		}
	}
}

// New constructs a Machine selling from inv and giving change from coinSet.
func New(inv *inventory.Inventory, coinSet []int64, opts ...Option) (*Machine, error) {
	if inv == nil {
		return nil, errors.New("inventory is required")
	}
	if len(coinSet) == 0 {
		return nil, ErrInvalidCoinSet
	}
	for _, c := range coinSet {
		if c <= 0 {
			return nil, errors.Wrapf(ErrInvalidCoinSet, "denomination %d", c)
		}
	}
	m := &Machine{
		id:    uuid.NewString(),
		inv:   inv,
		coins: coins.Descending(coinSet),
		now:   time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// AmountToCoins splits amountCt greedily into coinSet. It is a pure function
// independent of any machine; see coins.ToCoins for its limitations.
func AmountToCoins(amountCt int64, coinSet []int64) ([]int64, error) {
	return coins.ToCoins(amountCt, coinSet)
}

// ID returns the machine id.
func (m *Machine) ID() string { return m.id }

// Coins returns the denominations used for change, largest first.
func (m *Machine) Coins() []int64 {
	out := make([]int64, len(m.coins))
	copy(out, m.coins)
	return out
}

// Balance returns the current balance in cents.
func (m *Machine) Balance() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// BalanceEUR returns the current balance in currency units.
func (m *Machine) BalanceEUR() float64 {
	return centsToEUR(m.Balance())
}

// ListProducts returns the inventory listing.
func (m *Machine) ListProducts() []model.Product {
	return m.inv.List()
}

// Product returns a copy of product id.
func (m *Machine) Product(id int) (model.Product, bool) {
	return m.inv.Get(id)
}

// Sale is the outcome of a successful purchase.
type Sale struct {
	PaidCents    int64
	Receipt      model.Receipt
	BalanceCents int64
}

// InsertMoney adds amount, truncated to whole cents, and returns the new
// balance in currency units. Negative and non-finite amounts add nothing.
func (m *Machine) InsertMoney(amount float64) float64 {
	return centsToEUR(m.InsertMoneyContext(context.Background(), amount))
}

// InsertMoneyContext is InsertMoney returning the new balance in cents. ctx
// travels with the emitted event. Amounts that would push the balance past
// math.MaxInt64 cents are ignored like negative ones.
func (m *Machine) InsertMoneyContext(ctx context.Context, amount float64) int64 {
	cents := toCents(amount)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cents > 0 && cents <= math.MaxInt64-m.balance {
		m.balance += cents
		m.emit(ctx, model.Event{Type: model.EventMoneyInserted, AmountCents: cents})
	}
	return m.balance
}

// BuyProduct buys one unit of product id with the current balance. On success
// the price is deducted and returned in cents. On failure the balance is left
// untouched and the inventory error is returned as is.
func (m *Machine) BuyProduct(id int) (int64, model.Receipt, error) {
	s, err := m.BuyProductContext(context.Background(), id)
	if err != nil {
		return 0, model.Receipt{}, err
	}
	return s.PaidCents, s.Receipt, nil
}

// BuyProductContext is BuyProduct also reporting the balance left right after
// the deduction.
func (m *Machine) BuyProductContext(ctx context.Context, id int) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paid, rc, err := m.inv.Retrieve(id, m.balance)
	if err != nil {
		m.emit(ctx, model.Event{Type: model.EventPurchaseRejected, ProductID: id, Error: err.Error()})
		return Sale{}, err
	}
	m.balance -= paid
	m.emit(ctx, model.Event{Type: model.EventProductSold, ProductID: id, AmountCents: paid})
	return Sale{PaidCents: paid, Receipt: rc, BalanceCents: m.balance}, nil
}

// ReturnCoins pays out the whole balance and resets it to zero. The reset
// happens even when the balance cannot be split into the machine's coins, in
// which case coins.ErrChangeNotRepresentable is returned.
func (m *Machine) ReturnCoins() ([]int64, error) {
	return m.ReturnCoinsContext(context.Background())
}

// ReturnCoinsContext is ReturnCoins with ctx carried to the emitted event.
func (m *Machine) ReturnCoinsContext(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.balance
	result, err := coins.ToCoins(amount, m.coins)
	m.balance = 0
	if err != nil {
		m.emit(ctx, model.Event{Type: model.EventChangeNotRepresentable, AmountCents: amount, Error: err.Error()})
		return nil, err
	}
	m.emit(ctx, model.Event{Type: model.EventCoinsReturned, AmountCents: amount, Coins: result})
	return result, nil
}

// emit is called with mu held.
func (m *Machine) emit(ctx context.Context, ev model.Event) {
	if m.sink == nil {
		return
	}
	ev.MachineID = m.id
	ev.BalanceCents = m.balance
	ev.At = m.now().UTC()
	m.sink.Enqueue(ctx, ev)
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// toCents returns 0 for amounts that are not positive, not finite or too
// large to count in int64 cents.
func toCents(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(amount).Shift(2).Truncate(0)
	if d.GreaterThan(maxCents) {
		return 0
	}
	return d.IntPart()
}

func centsToEUR(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
