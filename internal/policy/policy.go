// Package policy decides which shop and product records a caller may read or change.
//
// Every function here is pure: callers load the records and the calling
// identity, and the policy answers. A nil *Caller is an anonymous request.
package policy

import (
	"strings"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

// Caller is the resolved identity of a request
type Caller struct {
	ID   int64
	Role models.Role
}

// CallerFromUser builds a Caller from a loaded user record.
func CallerFromUser(u *models.User) *Caller {
	if u == nil {
		return nil
	}
	return &Caller{ID: u.ID, Role: u.Role}
}

// IsAdmin reports whether the caller is an administrator.
func IsAdmin(c *Caller) bool {
	return c != nil && c.Role == models.RoleAdmin
}

// IsOwner reports whether the caller owns the record with the given owner id.
func IsOwner(c *Caller, ownerID int64) bool {
	return c != nil && c.ID == ownerID
}

// CanViewShop: approved shops are public; pending ones only to their owner and admins.
func CanViewShop(c *Caller, shop *models.Shop) bool {
	if shop == nil {
		return false
	}
	return shop.Approved || IsAdmin(c) || IsOwner(c, shop.OwnerID)
}

// CanListShop is the list variant: admins see everything, everyone else only approved shops.
func CanListShop(c *Caller, shop *models.Shop) bool {
	return shop != nil && (shop.Approved || IsAdmin(c))
}

// ShopReadError returns nil when the shop may be returned, NotFound for a
// missing shop and Forbidden for a pending shop the caller cannot see.
func ShopReadError(op string, c *Caller, shop *models.Shop) error {
	if shop == nil {
		return apperr.NotFound(op, "shop")
	}
	if !CanViewShop(c, shop) {
		return apperr.Forbidden(op, "this shop is pending approval")
	}
	return nil
}

// CanViewProduct derives product visibility from its shop.
func CanViewProduct(c *Caller, p *models.ProductWithShop) bool {
	if p == nil {
		return false
	}
	return p.ShopApproved || IsAdmin(c) || IsOwner(c, p.ShopOwnerID)
}

// CanMutate authorizes an update or delete of a record owned by ownerID.
func CanMutate(op string, c *Caller, ownerID int64) error {
	if c == nil {
		return apperr.Unauthenticated(op, "sign in required")
	}
	if IsAdmin(c) || IsOwner(c, ownerID) {
		return nil
	}
	return apperr.Forbidden(op, "only the owner or an admin may change this record")
}

// RequireCaller rejects anonymous callers.
func RequireCaller(op string, c *Caller) error {
	if c == nil {
		return apperr.Unauthenticated(op, "sign in required")
	}
	return nil
}

// RequireAdmin rejects anonymous and non-admin callers.
func RequireAdmin(op string, c *Caller) error {
	if err := RequireCaller(op, c); err != nil {
		return err
	}
	if !IsAdmin(c) {
		return apperr.Forbidden(op, "admin access required")
	}
	return nil
}

// Normalize lowercases s and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchesQuery reports whether any field contains q, case-insensitively.
// An empty query matches everything.
func MatchesQuery(q string, fields ...string) bool {
	q = Normalize(q)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Normalize(f), q) {
			return true
		}
	}
	return false
}

// CategoryMatches compares a record category with a filter category:
// case-insensitive, whitespace-normalized, substring in either direction.
// An empty filter matches everything; an empty category matches nothing.
func CategoryMatches(category, filter string) bool {
	f := Normalize(filter)
	if f == "" {
		return true
	}
	c := Normalize(category)
	if c == "" {
		return false
	}
	return strings.Contains(c, f) || strings.Contains(f, c)
}

// ProductMatchesCategory matches either the product's own category or its shop's.
func ProductMatchesCategory(p *models.ProductWithShop, filter string) bool {
	return CategoryMatches(p.Category, filter) || CategoryMatches(p.ShopCategory, filter)
}

// FilterShops keeps the shops the caller may list that match q and category, in order.
func FilterShops(c *Caller, shops []models.Shop, q, category string) []models.Shop {
	out := make([]models.Shop, 0, len(shops))
	for i := range shops {
		s := &shops[i]
		if !CanListShop(c, s) {
			continue
		}
		if !MatchesQuery(q, s.Name, s.Category) {
			continue
		}
		if !CategoryMatches(s.Category, category) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// FilterProducts keeps visible products matching q (name, category, description) and category.
func FilterProducts(c *Caller, products []models.ProductWithShop, q, category string) []models.ProductWithShop {
	out := make([]models.ProductWithShop, 0, len(products))
	for i := range products {
		p := &products[i]
		if !CanViewProduct(c, p) {
			continue
		}
		if !MatchesQuery(q, p.Name, p.Category, p.Description) {
			continue
		}
		if !ProductMatchesCategory(p, category) {
			continue
		}
		out = append(out, *p)
	}
	return out
}
