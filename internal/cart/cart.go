// Package cart implements the in-progress order for one table: an ordered
// list of configured line items that merges equal configurations instead of
// duplicating them.
//
// All cart operations are total functions over the current contents; they
// never fail. The cart is written through to a lightweight state store after
// every mutation so an app restart resumes the order in progress; a write
// failure is logged and the in-memory contents stay authoritative until the
// next mutation retries the save.
package cart

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/core/ports"
)

// stateKey is the slot the cart occupies in the device state store.
const stateKey = "cart"

// Cart accumulates line items for the service in progress. Not safe for
// concurrent use; the caller serializes operations (single UI actor).
type Cart struct {
	store ports.StateStore // nil for an unpersisted cart
	items []domain.LineItem
}

// New returns an empty cart backed by the given state store. A nil store is
// allowed and yields a purely in-memory cart.
func New(store ports.StateStore) *Cart {
	return &Cart{store: store}
}

// Load restores the previously saved cart from the state store. A missing
// or unreadable snapshot yields an empty cart: losing a half-built cart is
// recoverable, refusing to start is not.
func Load(ctx context.Context, store ports.StateStore) *Cart {
	c := New(store)
	if store == nil {
		return c
	}
	raw, err := store.Load(ctx, stateKey)
	if err != nil {
		slog.Error("cart: restore failed, starting empty", "error", err)
		return c
	}
	if raw == nil {
		return c
	}
	if err := json.Unmarshal(raw, &c.items); err != nil {
		slog.Error("cart: corrupt snapshot, starting empty", "error", err)
		c.items = nil
	}
	return c
}

// Add merges the item into the cart. If a line with the same configuration
// (product, kind, note, crust, add-ons) already exists its quantity grows by
// the added quantity; otherwise the item is appended. Quantities below 1
// are clamped to 1.
func (c *Cart) Add(ctx context.Context, item domain.LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for n := range c.items {
		if c.items[n].SameConfiguration(item) {
			c.items[n].Quantity += item.Quantity
			c.persist(ctx)
			return
		}
	}
	c.items = append(c.items, item.Clone())
	c.persist(ctx)
}

// Remove drops every line matching the product and kind, regardless of note
// or toppings. This match is deliberately coarser than the merge rule used
// by Add: removal acts on the product, not on one configuration of it.
func (c *Cart) Remove(ctx context.Context, productID int, kind domain.ProductKind) {
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ProductID == productID && it.Kind == kind {
			continue
		}
		kept = append(kept, it)
	}
	c.items = kept
	c.persist(ctx)
}

// UpdateQuantity sets the quantity of the first line matching the product
// and kind. Values below 1 clamp to 1; removal is always the explicit
// Remove operation, never a zero quantity.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int, kind domain.ProductKind, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for n := range c.items {
		if c.items[n].ProductID == productID && c.items[n].Kind == kind {
			c.items[n].Quantity = quantity
			break
		}
	}
	c.persist(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.items = nil
	c.persist(ctx)
}

// Items returns a deep copy of the current contents in insertion order.
func (c *Cart) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(c.items))
	for n, it := range c.items {
		out[n] = it.Clone()
	}
	return out
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.items) == 0 }

// TotalItemCount is the sum of quantities across all lines.
func (c *Cart) TotalItemCount() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalValue is the sum of unit price times quantity across all lines.
func (c *Cart) TotalValue() float64 {
	var v float64
	for _, it := range c.items {
		v += it.Subtotal()
	}
	return v
}

func (c *Cart) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(c.items)
	if err != nil {
		slog.Error("cart: marshal failed", "error", err)
		return
	}
	if err := c.store.Save(ctx, stateKey, raw); err != nil {
		slog.Error("cart: save failed", "error", err)
	}
}
