package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

var shopColumns = []string{
	"id", "owner_id", "name", "category", "description", "address", "phone", "image",
	"rating", "review_count", "avg_rating", "is_featured", "approved", "is_verified", "created_at",
}

// ShopFilter narrows a shop listing. Approved is honoured for admins only.
type ShopFilter struct {
	Q        string
	Category string
	Approved *bool
	Page     int
	Limit    int
}

// ShopService handles storefronts and their moderation
type ShopService struct {
	store
}

// NewShopService creates a new shop service
func NewShopService(database *db.DB, m *metrics.AppMetrics, logger *zap.Logger) *ShopService {
	return &ShopService{store: newStore(database, m, logger)}
}

func (s *ShopService) loadShop(ctx context.Context, q queryer, op string, id int64) (*models.Shop, error) {
	var shop models.Shop
	err := s.get(ctx, q, &shop, "shops", QB.Select(shopColumns...).From("shops").Where(squirrel.Eq{"id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "shop")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get shop")
	}
	return &shop, nil
}

// ListShops returns the shops the caller may list, filtered then paginated.
func (s *ShopService) ListShops(ctx context.Context, caller *policy.Caller, f ShopFilter) ([]models.Shop, models.Pagination, error) {
	b := QB.Select(shopColumns...).From("shops").OrderBy("is_featured DESC", "id")
	if !policy.IsAdmin(caller) {
		b = b.Where(squirrel.Eq{"approved": true})
	} else if f.Approved != nil {
		b = b.Where(squirrel.Eq{"approved": *f.Approved})
	}

	shops := []models.Shop{}
	if err := s.selectAll(ctx, s.db, &shops, "shops", b); err != nil {
		return nil, models.Pagination{}, apperr.Wrapf("shops.List", err, "failed to list shops")
	}

	page, p := policy.Paginate(policy.FilterShops(caller, shops, f.Q, f.Category), f.Page, f.Limit)
	return page, p, nil
}

// ListAllShops is the admin moderation listing, including pending shops.
func (s *ShopService) ListAllShops(ctx context.Context, caller *policy.Caller, f ShopFilter) ([]models.Shop, models.Pagination, error) {
	if err := policy.RequireAdmin("shops.ListAll", caller); err != nil {
		return nil, models.Pagination{}, err
	}
	return s.ListShops(ctx, caller, f)
}

// GetShop returns a shop the caller may see: NotFound when missing,
// Forbidden while pending unless the caller is its owner or an admin.
func (s *ShopService) GetShop(ctx context.Context, caller *policy.Caller, id int64) (*models.Shop, error) {
	const op = "shops.Get"
	shop, err := s.loadShop(ctx, s.db, op, id)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if err := policy.ShopReadError(op, caller, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// GetShopByOwner returns the shop owned by ownerID, for its owner or an admin.
func (s *ShopService) GetShopByOwner(ctx context.Context, caller *policy.Caller, ownerID int64) (*models.Shop, error) {
	const op = "shops.GetByOwner"
	if err := policy.CanMutate(op, caller, ownerID); err != nil {
		return nil, err
	}
	return s.shopByOwner(ctx, op, ownerID)
}

func (s *ShopService) shopByOwner(ctx context.Context, op string, ownerID int64) (*models.Shop, error) {
	var shop models.Shop
	err := s.get(ctx, s.db, &shop, "shops", QB.Select(shopColumns...).From("shops").
		Where(squirrel.Eq{"owner_id": ownerID}).OrderBy("id").Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "shop")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get shop")
	}
	return &shop, nil
}

// LookupContact loads a shop regardless of visibility. Checkout uses it to
// route order messages to shops whatever their current moderation state.
func (s *ShopService) LookupContact(ctx context.Context, id int64) (*models.Shop, error) {
	return s.loadShop(ctx, s.db, "shops.LookupContact", id)
}

func validateShop(op string, req models.CreateShopRequest) error {
	fields := map[string]string{}
	if blank(req.Name) {
		fields["name"] = "is required"
	}
	if blank(req.Category) {
		fields["category"] = "is required"
	}
	if blank(req.Phone) {
		fields["phone"] = "is required"
	}
	if len(fields) > 0 {
		return apperr.Validation(op, fields)
	}
	return nil
}

// CreateShop opens a shop owned by the caller. New shops wait for admin approval.
func (s *ShopService) CreateShop(ctx context.Context, caller *policy.Caller, req models.CreateShopRequest) (*models.Shop, error) {
	const op = "shops.Create"
	if err := policy.RequireCaller(op, caller); err != nil {
		return nil, err
	}
	if err := validateShop(op, req); err != nil {
		return nil, err
	}

	id, err := s.insert(ctx, s.db, "shops", QB.Insert("shops").
		Columns("owner_id", "name", "category", "description", "address", "phone", "image", "is_featured", "approved", "is_verified").
		Values(caller.ID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Category), req.Description,
			req.Address, strings.TrimSpace(req.Phone), req.Image, req.IsFeatured, false, false))
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to create shop")
	}

	s.metrics.Add(ctx, s.metrics.ShopsCreated, attribute.String("category", req.Category))
	s.logger.Info("shop created", zap.Int64("shop_id", id), zap.Int64("owner_id", caller.ID))
	return s.loadShop(ctx, s.db, op, id)
}

// ApplyAsSeller is seller onboarding: it opens the caller's first shop.
func (s *ShopService) ApplyAsSeller(ctx context.Context, caller *policy.Caller, req models.CreateShopRequest) (*models.Shop, error) {
	const op = "shops.ApplyAsSeller"
	if err := policy.RequireCaller(op, caller); err != nil {
		return nil, err
	}

	_, err := s.shopByOwner(ctx, op, caller.ID)
	if err == nil {
		return nil, apperr.Conflict(op, "you already have a shop")
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}
	return s.CreateShop(ctx, caller, req)
}

// UpdateShop applies a partial update. Moderation flags cannot be changed here.
func (s *ShopService) UpdateShop(ctx context.Context, caller *policy.Caller, id int64, req models.UpdateShopRequest) (*models.Shop, error) {
	const op = "shops.Update"
	if err := policy.RequireCaller(op, caller); err != nil {
		return nil, err
	}
	shop, err := s.loadShop(ctx, s.db, op, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutate(op, caller, shop.OwnerID); err != nil {
		return nil, err
	}

	set := map[string]any{}
	fields := map[string]string{}
	required := func(col, field string, v *string) {
		if v == nil {
			return
		}
		if blank(*v) {
			fields[field] = "cannot be empty"
			return
		}
		set[col] = strings.TrimSpace(*v)
	}
	required("name", "name", req.Name)
	required("category", "category", req.Category)
	required("phone", "phone", req.Phone)
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Address != nil {
		set["address"] = *req.Address
	}
	if req.Image != nil {
		set["image"] = *req.Image
	}
	if req.IsFeatured != nil {
		set["is_featured"] = *req.IsFeatured
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(op, fields)
	}
	if len(set) == 0 {
		return shop, nil
	}

	if _, err := s.exec(ctx, s.db, "UPDATE", "shops", QB.Update("shops").SetMap(set).Where(squirrel.Eq{"id": id})); err != nil {
		return nil, apperr.Wrapf(op, err, "failed to update shop")
	}
	return s.loadShop(ctx, s.db, op, id)
}

// DeleteShop removes a shop with its products and reviews. Admin only.
func (s *ShopService) DeleteShop(ctx context.Context, caller *policy.Caller, id int64) error {
	const op = "shops.Delete"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return err
	}

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.loadShop(ctx, tx, op, id); err != nil {
			return err
		}
		for _, table := range []string{"reviews", "products"} {
			if _, err := s.exec(ctx, tx, "DELETE", table, QB.Delete(table).Where(squirrel.Eq{"shop_id": id})); err != nil {
				return err
			}
		}
		_, err := s.exec(ctx, tx, "DELETE", "shops", QB.Delete("shops").Where(squirrel.Eq{"id": id}))
		return err
	})
	if err != nil {
		return apperr.Wrapf(op, err, "failed to delete shop")
	}

	s.logger.Info("shop deleted", zap.Int64("shop_id", id), zap.Int64("admin_id", caller.ID))
	return nil
}

// Approve sets or clears the approved flag. It touches nothing else.
func (s *ShopService) Approve(ctx context.Context, caller *policy.Caller, id int64, approved bool) (*models.Shop, error) {
	const op = "shops.Approve"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}
	if _, err := s.loadShop(ctx, s.db, op, id); err != nil {
		return nil, err
	}

	if _, err := s.exec(ctx, s.db, "UPDATE", "shops", QB.Update("shops").
		Set("approved", approved).Where(squirrel.Eq{"id": id})); err != nil {
		return nil, apperr.Wrapf(op, err, "failed to update approval")
	}

	action := "approve"
	if !approved {
		action = "unapprove"
	}
	s.metrics.Add(ctx, s.metrics.ShopsModerated, attribute.String("action", action))
	s.logger.Info("shop moderated", zap.Int64("shop_id", id), zap.String("action", action))
	return s.loadShop(ctx, s.db, op, id)
}

// Verify marks the shop verified and promotes its owner to seller.
// Both writes commit together or not at all. Admin owners keep their role.
func (s *ShopService) Verify(ctx context.Context, caller *policy.Caller, shopID, ownerID int64) (*models.Shop, error) {
	const op = "shops.Verify"
	if err := policy.RequireAdmin(op, caller); err != nil {
		return nil, err
	}

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		shop, err := s.loadShop(ctx, tx, op, shopID)
		if err != nil {
			return err
		}
		if shop.OwnerID != ownerID {
			return apperr.Validation(op, map[string]string{"ownerId": "does not match the shop owner"})
		}

		var owner models.User
		err = s.get(ctx, tx, &owner, "users", QB.Select(userColumns...).From("users").Where(squirrel.Eq{"id": ownerID}))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound(op, "user")
		}
		if err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, "UPDATE", "shops", QB.Update("shops").
			Set("is_verified", true).Where(squirrel.Eq{"id": shopID})); err != nil {
			return err
		}

		if owner.Role == models.RoleCustomer {
			res, err := s.exec(ctx, tx, "UPDATE", "users", QB.Update("users").
				Set("role", string(models.RoleSeller)).Where(squirrel.Eq{"id": ownerID}))
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n != 1 {
				return apperr.Upstream(op, errors.New("owner role was not updated"))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("shop verification rolled back", zap.Int64("shop_id", shopID), zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, apperr.Wrapf(op, err, "failed to verify shop")
	}

	s.metrics.Add(ctx, s.metrics.ShopsModerated, attribute.String("action", "verify"))
	s.logger.Info("shop verified", zap.Int64("shop_id", shopID), zap.Int64("owner_id", ownerID))
	return s.loadShop(ctx, s.db, op, shopID)
}
