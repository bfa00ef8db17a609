package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
	"github.com/shahdolbazaar/marketplace-go-app/internal/testutil"
)

func shopRequest(name, category string) models.CreateShopRequest {
	return models.CreateShopRequest{Name: name, Category: category, Phone: "9876543210", Address: "Gandhi Chowk, Shahdol"}
}

func TestCreateShopStartsUnapproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shop, err := f.shops.CreateShop(ctx, f.owner, shopRequest("Ravi Kirana", "Grocery"))
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, shop.OwnerID)
	assert.False(t, shop.Approved)
	assert.False(t, shop.IsVerified)

	_, err = f.shops.CreateShop(ctx, nil, shopRequest("Anon", "Grocery"))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.shops.CreateShop(ctx, f.owner, models.CreateShopRequest{})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.FieldErrors(err), "name")
	assert.Contains(t, apperr.FieldErrors(err), "phone")
}

func TestApplyAsSellerConflictsOnSecondShop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.shops.ApplyAsSeller(ctx, f.owner, shopRequest("Ravi Kirana", "Grocery"))
	require.NoError(t, err)

	_, err = f.shops.ApplyAsSeller(ctx, f.owner, shopRequest("Ravi Kirana 2", "Grocery"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestGetShopPendingIsForbiddenForPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := testutil.InsertShop(t, f.db, f.owner.ID, "Pending Kirana", "Grocery", "9876543210", false)

	_, err := f.shops.GetShop(ctx, nil, pending)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.shops.GetShop(ctx, f.stranger, pending)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	shop, err := f.shops.GetShop(ctx, f.owner, pending)
	require.NoError(t, err)
	assert.Equal(t, "Pending Kirana", shop.Name)

	_, err = f.shops.GetShop(ctx, f.admin, pending)
	assert.NoError(t, err)

	_, err = f.shops.GetShop(ctx, f.admin, 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListShopsVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.InsertShop(t, f.db, f.owner.ID, "Shahdol Medical Store", "Medical", "9876543210", true)
	testutil.InsertShop(t, f.db, f.owner.ID, "Pending Kirana", "Grocery", "9876543211", false)
	testutil.InsertShop(t, f.db, f.stranger.ID, "New Bazaar Kirana", "Grocery", "9876543212", true)

	for name, caller := range map[string]*policy.Caller{"anonymous": nil, "owner": f.owner, "stranger": f.stranger} {
		shops, p, err := f.shops.ListShops(ctx, caller, ShopFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, p.Total, name)
		for _, s := range shops {
			assert.True(t, s.Approved, "%s saw pending shop %q", name, s.Name)
		}
	}

	all, p, err := f.shops.ListShops(ctx, f.admin, ShopFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, p.Total)

	kirana, _, err := f.shops.ListShops(ctx, nil, ShopFilter{Q: "KIRANA"})
	require.NoError(t, err)
	require.Len(t, kirana, 1)
	assert.Equal(t, "New Bazaar Kirana", kirana[0].Name)

	pendingOnly := false
	queue, _, err := f.shops.ListAllShops(ctx, f.admin, ShopFilter{Approved: &pendingOnly})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Pending Kirana", queue[0].Name)

	_, _, err = f.shops.ListAllShops(ctx, f.owner, ShopFilter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	page, p, err := f.shops.ListShops(ctx, f.admin, ShopFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 2, p.TotalPages)
}

func TestListShopsSearchTreatsWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.InsertShop(t, f.db, f.owner.ID, `Gupta\Sons 100%_Pure`, "Grocery", "9876543210", true)
	testutil.InsertShop(t, f.db, f.owner.ID, "Sharma Stores", "Grocery", "9876543211", true)

	for _, q := range []string{`gupta\sons`, "100%", "%_pure", "_"} {
		shops, _, err := f.shops.ListShops(ctx, nil, ShopFilter{Q: q})
		require.NoError(t, err, q)
		require.Len(t, shops, 1, q)
		assert.Equal(t, `Gupta\Sons 100%_Pure`, shops[0].Name, q)
	}

	shops, _, err := f.shops.ListShops(ctx, nil, ShopFilter{Q: "%"})
	require.NoError(t, err)
	assert.Len(t, shops, 1)
}

func TestUpdateShopOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", true)

	name := "Ravi General Store"
	_, err := f.shops.UpdateShop(ctx, f.stranger, id, models.UpdateShopRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.shops.UpdateShop(ctx, f.stranger, 9999, models.UpdateShopRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound, "missing record is reported before ownership")

	_, err = f.shops.UpdateShop(ctx, nil, id, models.UpdateShopRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	shop, err := f.shops.UpdateShop(ctx, f.owner, id, models.UpdateShopRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, shop.Name)
	assert.True(t, shop.Approved)

	empty := "  "
	_, err = f.shops.UpdateShop(ctx, f.admin, id, models.UpdateShopRequest{Phone: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApproveAndUnapprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", false)

	_, err := f.shops.Approve(ctx, f.owner, id, true)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	shop, err := f.shops.Approve(ctx, f.admin, id, true)
	require.NoError(t, err)
	assert.True(t, shop.Approved)
	assert.False(t, shop.IsVerified)

	user, err := f.users.GetUser(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role, "approval must not promote the owner")

	shop, err = f.shops.Approve(ctx, f.admin, id, false)
	require.NoError(t, err)
	assert.False(t, shop.Approved)

	_, err = f.shops.Approve(ctx, f.admin, 9999, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerifyPromotesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", true)

	shop, err := f.shops.Verify(ctx, f.admin, id, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, shop.IsVerified)

	user, err := f.users.GetUser(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, user.Role)
}

func TestVerifyRejectsOwnerMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", true)

	_, err := f.shops.Verify(ctx, f.admin, id, f.stranger.ID)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.FieldErrors(err), "ownerId")

	_, err = f.shops.Verify(ctx, f.owner, id, f.owner.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestVerifyRollsBackWhenRoleUpdateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", true)

	_, err := f.db.ExecContext(ctx, `CREATE TRIGGER block_role BEFORE UPDATE OF role ON users
BEGIN SELECT RAISE(ABORT, 'role updates disabled'); END`)
	require.NoError(t, err)

	_, err = f.shops.Verify(ctx, f.admin, id, f.owner.ID)
	require.ErrorIs(t, err, apperr.ErrUpstream)

	shop, err := f.shops.GetShop(ctx, f.admin, id)
	require.NoError(t, err)
	assert.False(t, shop.IsVerified, "shop must not stay verified when the promotion failed")

	user, err := f.users.GetUser(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
}

func TestVerifyMissingOwnerLeavesShopUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, 777, "Orphan Store", "Services", "9876543210", true)

	_, err := f.shops.Verify(ctx, f.admin, id, 777)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	shop, err := f.shops.GetShop(ctx, f.admin, id)
	require.NoError(t, err)
	assert.False(t, shop.IsVerified)
}

func TestDeleteShopCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", true)
	testutil.InsertProduct(t, f.db, id, "Atta 5kg", "250", "Grocery")

	assert.ErrorIs(t, f.shops.DeleteShop(ctx, f.owner, id), apperr.ErrForbidden)
	require.NoError(t, f.shops.DeleteShop(ctx, f.admin, id))
	assert.ErrorIs(t, f.shops.DeleteShop(ctx, f.admin, id), apperr.ErrNotFound)

	var n int
	require.NoError(t, f.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM products WHERE shop_id = ?", id))
	assert.Zero(t, n)
}

func TestLookupContactIgnoresVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := testutil.InsertShop(t, f.db, f.owner.ID, "Pending Kirana", "Grocery", "9876543210", false)

	shop, err := f.shops.LookupContact(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", shop.Phone)

	_, err = f.shops.LookupContact(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetShopByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.InsertShop(t, f.db, f.owner.ID, "Ravi Kirana", "Grocery", "9876543210", false)

	shop, err := f.shops.GetShopByOwner(ctx, f.owner, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kirana", shop.Name)

	_, err = f.shops.GetShopByOwner(ctx, f.stranger, f.owner.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.shops.GetShopByOwner(ctx, f.stranger, f.stranger.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
