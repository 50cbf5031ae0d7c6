package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"galapagosrental/internal/db"
	"galapagosrental/internal/pricing"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
)

// Item is one cart line. The embedded schedule is identical on every item of a cart.
type Item struct {
	Product  db.Product `json:"product"`
	Quantity int        `json:"quantity"`
	pricing.Schedule
}

// Cart reads and writes per-session carts through a Store.
type Cart struct {
	store Store
}

func New(store Store) *Cart {
	return &Cart{store: store}
}

func (c *Cart) Items(ctx context.Context, session string) ([]Item, error) {
	raw, err := c.store.Get(ctx, CartKey(session))
	if errors.Is(err, ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}
	return items, nil
}

func (c *Cart) save(ctx context.Context, session string, items []Item) ([]Item, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding cart: %w", err)
	}
	if err := c.store.Set(ctx, CartKey(session), raw); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return items, nil
}

// Add puts quantity units of product in the cart, merging with an existing line.
func (c *Cart) Add(ctx context.Context, session string, product db.Product, quantity int) ([]Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	items, err := c.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Product.ID == product.ID {
			items[i].Quantity += quantity
			items[i].Product = product
			return c.save(ctx, session, items)
		}
	}
	sched, err := c.Schedule(ctx, session)
	if err != nil {
		return nil, err
	}
	items = append(items, Item{Product: product, Quantity: quantity, Schedule: sched})
	return c.save(ctx, session, items)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, session string, productID, quantity int) ([]Item, error) {
	if quantity <= 0 {
		return c.Remove(ctx, session, productID)
	}
	items, err := c.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity = quantity
			return c.save(ctx, session, items)
		}
	}
	return nil, ErrItemNotFound
}

func (c *Cart) Remove(ctx context.Context, session string, productID int) ([]Item, error) {
	items, err := c.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	found := false
	for _, it := range items {
		if it.Product.ID == productID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return nil, ErrItemNotFound
	}
	return c.save(ctx, session, kept)
}

// SetSchedule stores the rental fields for the session and rewrites them on
// every item. Items added later pick up the stored schedule.
func (c *Cart) SetSchedule(ctx context.Context, session string, sched pricing.Schedule) ([]Item, error) {
	items, err := c.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	if sched.Pickup == "" {
		sched.Pickup = pricing.PickupSantaCruz
	}
	if sched.Pickup == pricing.PickupSantaCruz {
		sched.HotelName = ""
	}
	raw, err := json.Marshal(sched)
	if err != nil {
		return nil, fmt.Errorf("encoding schedule: %w", err)
	}
	if err := c.store.Set(ctx, ScheduleKey(session), raw); err != nil {
		return nil, fmt.Errorf("saving schedule: %w", err)
	}
	for i := range items {
		items[i].Schedule = sched
	}
	return c.save(ctx, session, items)
}

// Schedule returns the stored schedule of a session. Carts saved before the
// schedule had its own key fall back to the items.
func (c *Cart) Schedule(ctx context.Context, session string) (pricing.Schedule, error) {
	raw, err := c.store.Get(ctx, ScheduleKey(session))
	if errors.Is(err, ErrNotFound) {
		items, err := c.Items(ctx, session)
		if err != nil {
			return pricing.Schedule{}, err
		}
		return ScheduleOf(items), nil
	}
	if err != nil {
		return pricing.Schedule{}, fmt.Errorf("loading schedule: %w", err)
	}
	var sched pricing.Schedule
	if err := json.Unmarshal(raw, &sched); err != nil {
		return pricing.Schedule{}, fmt.Errorf("decoding schedule: %w", err)
	}
	return sched, nil
}

// Clear drops the cart with its schedule, cached return fee and pending payment.
func (c *Cart) Clear(ctx context.Context, session string) error {
	keys := []struct{ key, what string }{
		{CartKey(session), "cart"},
		{ScheduleKey(session), "schedule"},
		{ReturnFeeKey(session), "return fee"},
		{PaymentKey(session), "pending payment"},
	}
	for _, k := range keys {
		if err := c.store.Clear(ctx, k.key); err != nil {
			return fmt.Errorf("clearing %s: %w", k.what, err)
		}
	}
	return nil
}

// PendingPayment is the gateway reference issued for a session and the
// amount it was issued for.
type PendingPayment struct {
	DevReference string          `json:"dev_reference"`
	Amount       decimal.Decimal `json:"amount"`
}

func (c *Cart) SavePendingPayment(ctx context.Context, session string, p PendingPayment) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding pending payment: %w", err)
	}
	if err := c.store.Set(ctx, PaymentKey(session), raw); err != nil {
		return fmt.Errorf("saving pending payment: %w", err)
	}
	return nil
}

// LoadPendingPayment returns the last issued reference, or nil when none was issued.
func (c *Cart) LoadPendingPayment(ctx context.Context, session string) (*PendingPayment, error) {
	raw, err := c.store.Get(ctx, PaymentKey(session))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading pending payment: %w", err)
	}
	var p PendingPayment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding pending payment: %w", err)
	}
	return &p, nil
}

func (c *Cart) SaveReturnFee(ctx context.Context, session string, fee decimal.Decimal) error {
	return c.store.Set(ctx, ReturnFeeKey(session), []byte(fee.String()))
}

// ReturnFee returns the last cached return fee, or zero.
func (c *Cart) ReturnFee(ctx context.Context, session string) (decimal.Decimal, error) {
	raw, err := c.store.Get(ctx, ReturnFeeKey(session))
	if errors.Is(err, ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(raw))
}

// ScheduleOf returns the shared schedule of a cart, defaulting pickup to the shop.
func ScheduleOf(items []Item) pricing.Schedule {
	if len(items) == 0 {
		return pricing.Schedule{Pickup: pricing.PickupSantaCruz}
	}
	return items[0].Schedule
}

// Lines converts cart items to pricing input.
func Lines(items []Item) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Product: it.Product, Quantity: it.Quantity})
	}
	return lines
}
