package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

var (
	admin    = &Caller{ID: 1, Role: models.RoleAdmin}
	owner    = &Caller{ID: 42, Role: models.RoleSeller}
	stranger = &Caller{ID: 7, Role: models.RoleCustomer}
)

func TestShopReadError(t *testing.T) {
	pending := &models.Shop{ID: 99, OwnerID: 42, Approved: false}
	approved := &models.Shop{ID: 5, OwnerID: 42, Approved: true}

	tests := []struct {
		name   string
		caller *Caller
		shop   *models.Shop
		kind   error
	}{
		{"missing shop", nil, nil, apperr.ErrNotFound},
		{"pending shop anonymous", nil, pending, apperr.ErrForbidden},
		{"pending shop stranger", stranger, pending, apperr.ErrForbidden},
		{"pending shop owner", owner, pending, nil},
		{"pending shop admin", admin, pending, nil},
		{"approved shop anonymous", nil, approved, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShopReadError("shops.Get", tt.caller, tt.shop)
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestFilterShopsNeverLeaksPendingToNonAdmins(t *testing.T) {
	shops := []models.Shop{
		{ID: 1, OwnerID: 42, Name: "Shahdol Medical Store", Category: "Medical", Approved: true},
		{ID: 2, OwnerID: 42, Name: "Pending Kirana", Category: "Grocery", Approved: false},
		{ID: 3, OwnerID: 8, Name: "New Bazaar Kirana", Category: "Grocery", Approved: true},
	}

	for _, c := range []*Caller{nil, stranger, owner} {
		for _, s := range FilterShops(c, shops, "", "") {
			assert.True(t, s.Approved, "caller %+v saw pending shop %d", c, s.ID)
		}
	}

	assert.Len(t, FilterShops(admin, shops, "", ""), 3)
}

func TestFilterShopsQueryAndCategory(t *testing.T) {
	shops := []models.Shop{
		{ID: 1, Name: "Shahdol Medical Store", Category: "Medical", Approved: true},
		{ID: 2, Name: "New Bazaar Kirana", Category: "Grocery", Approved: true},
		{ID: 3, Name: "Sohagpur Chat House", Category: "Restaurants", Approved: true},
	}

	got := FilterShops(nil, shops, "KIRANA", "")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got = FilterShops(nil, shops, "medical", "")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got = FilterShops(nil, shops, "", "restaurants")
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)

	assert.Empty(t, FilterShops(nil, shops, "kirana", "medical"))
}

func TestCategoryMatchesBothDirections(t *testing.T) {
	tests := []struct {
		category string
		filter   string
		want     bool
	}{
		{"Medical", "medical", true},
		{"Medical", "Medical Supplies", true},
		{"Medical Supplies", "medical", true},
		{"Beauty  &   Personal Care", "beauty & personal care", true},
		{"  Grocery ", "GROCERY", true},
		{"Medical", "Grocery", false},
		{"Medical", "", true},
		{"", "Medical", false},
	}

	for _, tt := range tests {
		t.Run(tt.category+"|"+tt.filter, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryMatches(tt.category, tt.filter))
		})
	}
}

func TestProductMatchesCategoryUsesShopCategory(t *testing.T) {
	p := &models.ProductWithShop{
		Product:      models.Product{Category: "Face Pack"},
		ShopCategory: "Beauty & Personal Care",
	}
	assert.True(t, ProductMatchesCategory(p, "beauty"))
	assert.True(t, ProductMatchesCategory(p, "face pack"))
	assert.False(t, ProductMatchesCategory(p, "grocery"))
}

func TestFilterProductsHidesUnapprovedShops(t *testing.T) {
	products := []models.ProductWithShop{
		{Product: models.Product{ID: 1, Name: "First Aid Kit", Category: "Medical"}, ShopApproved: true, ShopOwnerID: 8},
		{Product: models.Product{ID: 2, Name: "Paneer Tikka", Category: "Restaurants"}, ShopApproved: false, ShopOwnerID: 42},
	}

	assert.Len(t, FilterProducts(nil, products, "", ""), 1)
	assert.Len(t, FilterProducts(stranger, products, "", ""), 1)
	assert.Len(t, FilterProducts(owner, products, "", ""), 2)
	assert.Len(t, FilterProducts(admin, products, "", ""), 2)

	got := FilterProducts(admin, products, "tikka", "")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestCanMutate(t *testing.T) {
	assert.ErrorIs(t, CanMutate("op", nil, 42), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, CanMutate("op", stranger, 42), apperr.ErrForbidden)
	assert.NoError(t, CanMutate("op", owner, 42))
	assert.NoError(t, CanMutate("op", admin, 42))
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin("op", nil), apperr.ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin("op", owner), apperr.ErrForbidden)
	assert.NoError(t, RequireAdmin("op", admin))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, p)

	page, p = Paginate(items, 9, 2)
	assert.Empty(t, page)
	assert.Equal(t, 9, p.Page)

	page, p = Paginate(items, 0, 0)
	assert.Equal(t, items, page)
	assert.Equal(t, DefaultLimit, p.Limit)

	_, p = Paginate(items, 1, 1000)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestPaginateHugePageIsEmpty(t *testing.T) {
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, 4} {
		got, p := Paginate([]int{1, 2, 3}, page, 20)
		assert.Empty(t, got, "page %d", page)
		assert.Equal(t, page, p.Page)
		assert.Equal(t, 3, p.Total)
	}

	start, end, _ := PageBounds(0, math.MaxInt, MaxLimit)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
