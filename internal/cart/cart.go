// Package cart is the shopper's cart: an ordered list of line items that merges
// repeated adds, plus the checkout session state machine around it.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
)

// MaxQuantity caps a single row. Adds and updates past it saturate.
const MaxQuantity = 10000

// Item is one cart row. Price is carried as a decimal, never a float.
type Item struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"imageUrl,omitempty"`
	ShopID   int64           `json:"shopId"`
}

// LineTotal is price × quantity, unrounded.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ValidateItems checks rows supplied by a client that keeps its own cart.
func ValidateItems(items []Item) error {
	fields := map[string]string{}
	for i, it := range items {
		if it.Price.IsNegative() {
			fields[fmt.Sprintf("items[%d].price", i)] = "cannot be negative"
		}
		if it.Quantity > MaxQuantity {
			fields[fmt.Sprintf("items[%d].quantity", i)] = fmt.Sprintf("must be at most %d", MaxQuantity)
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("cart.ValidateItems", fields)
	}
	return nil
}

// Cart keeps items in the order they were first added.
type Cart struct {
	items []Item
}

// New returns a cart holding items. Rows with the same ID are merged and
// rows with a non-positive quantity are dropped.
func New(items []Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		if it.Quantity > 0 {
			c.AddQuantity(it, it.Quantity)
		}
	}
	return c
}

func (c *Cart) index(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add puts one unit of item in the cart, incrementing an existing row.
func (c *Cart) Add(item Item) {
	c.AddQuantity(item, 1)
}

// AddQuantity adds n units of item, incrementing an existing row.
func (c *Cart) AddQuantity(item Item, n int) {
	if n <= 0 {
		return
	}
	n = min(n, MaxQuantity)
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity = min(c.items[i].Quantity+n, MaxQuantity)
		return
	}
	item.Quantity = n
	c.items = append(c.items, item)
}

// UpdateQuantity replaces a row's quantity. A quantity of zero or less removes the row.
func (c *Cart) UpdateQuantity(id int64, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	if i := c.index(id); i >= 0 {
		c.items[i].Quantity = min(quantity, MaxQuantity)
	}
}

// Remove deletes the row with the given id, if present.
func (c *Cart) Remove(id int64) {
	if i := c.index(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the rows in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// TotalQuantity is the number of units across all rows.
func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total is the unrounded sum of all line totals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}
