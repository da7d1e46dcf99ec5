package store

import (
	"testing"

	"cardapio-telegram/models"
)

func burger() models.MenuItem {
	return models.MenuItem{
		ID:          "b1",
		Name:        "Burger",
		Description: "Pão, carne e queijo",
		Price:       10.00,
		Category:    models.CategoryLanches,
		IsAvailable: true,
	}
}

func soda() models.MenuItem {
	return models.MenuItem{
		ID:          "s1",
		Name:        "Soda",
		Price:       5.00,
		Category:    models.CategoryBebidas,
		IsAvailable: true,
	}
}

func TestCartAddIncrementsSameID(t *testing.T) {
	c := NewCart()
	for i := 0; i < 5; i++ {
		c.Add(burger())
	}
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", items[0].Quantity)
	}
}

func TestCartUpdateQuantityClampsAtOne(t *testing.T) {
	tests := []struct {
		delta int
		want  int
	}{
		{1, 3},
		{-1, 1},
		{-2, 1},
		{-1000, 1},
		{0, 2},
		{3, 5},
	}
	for _, tt := range tests {
		c := NewCart()
		c.Add(burger())
		c.Add(burger()) // quantity 2
		c.UpdateQuantity("b1", tt.delta)
		if got := c.Items()[0].Quantity; got != tt.want {
			t.Errorf("UpdateQuantity(%d): quantity = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestCartAbsentIDNoOps(t *testing.T) {
	c := NewCart()
	c.Add(burger())
	c.Remove("nope")
	c.UpdateQuantity("nope", 3)
	items := c.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("absent-id ops changed the cart: %+v", items)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	c := NewCart()
	c.Add(burger())
	c.Add(soda())
	c.Remove("b1")
	if len(c.Items()) != 1 || c.Items()[0].ID != "s1" {
		t.Errorf("after Remove: %+v", c.Items())
	}
	c.Clear()
	if !c.Empty() {
		t.Error("cart not empty after Clear")
	}
}

func TestCartTotalAndCount(t *testing.T) {
	c := NewCart()
	c.Add(burger())
	c.Add(burger())
	c.Add(soda())
	if got := c.Total(); got != 25.00 {
		t.Errorf("Total = %.2f, want 25.00", got)
	}
	if got := c.Count(); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}

func TestCartSnapshotUnaffectedByCatalogEdits(t *testing.T) {
	item := burger()
	c := NewCart()
	c.Add(item)

	// Mutate the source item after adding: name, price, availability.
	item.Name = "Mega Burger"
	item.Price = 99.00
	item.IsAvailable = false

	line := c.Items()[0]
	if line.Name != "Burger" || line.Price != 10.00 || !line.IsAvailable {
		t.Errorf("cart line changed with source item: %+v", line)
	}
}
