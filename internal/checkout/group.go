package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
)

// ShopGroup is the part of a cart sold by one shop.
type ShopGroup struct {
	ShopID   int64
	Items    []cart.Item
	Subtotal decimal.Decimal
}

// Group partitions items by shop. Groups appear in the order their shop was
// first seen and keep the items in cart order. Subtotals are not rounded.
func Group(items []cart.Item) []ShopGroup {
	var groups []ShopGroup
	index := make(map[int64]int)

	for _, it := range items {
		i, ok := index[it.ShopID]
		if !ok {
			i = len(groups)
			index[it.ShopID] = i
			groups = append(groups, ShopGroup{ShopID: it.ShopID, Subtotal: decimal.Zero})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal = groups[i].Subtotal.Add(it.LineTotal())
	}
	return groups
}

// GrandTotal sums the group subtotals. It is for display only and is never
// sent to a shop.
func GrandTotal(groups []ShopGroup) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Subtotal)
	}
	return total
}
