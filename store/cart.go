package store

import "cardapio-telegram/models"

// Cart is one customer's in-progress selection. Lines are value snapshots
// of the menu item at add time, so catalog edits never alter a cart already
// being built. Carts live for the session only and are never persisted.
type Cart struct {
	items []models.CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add puts item in the cart. A line with the same id gets its quantity
// bumped by one; otherwise a new quantity-1 line is appended, copying the
// item's current fields. Availability is the caller's precondition (the
// button is disabled for unavailable items), not re-checked here.
func (c *Cart) Add(item models.MenuItem) {
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, models.CartItem{MenuItem: item, Quantity: 1})
}

// Remove drops the line with the given id. Absent ids are a no-op.
func (c *Cart) Remove(id string) {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity adds delta to the line's quantity, clamped at 1. Removing
// a line takes an explicit Remove, never a quantity reaching zero. Absent
// ids are a no-op.
func (c *Cart) UpdateQuantity(id string, delta int) {
	for i := range c.items {
		if c.items[i].ID == id {
			q := c.items[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			c.items[i].Quantity = q
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns the cart lines in insertion order. The slice is a copy.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// Count sums the quantities (the badge number on the cart button).
func (c *Cart) Count() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}
