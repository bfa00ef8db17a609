package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
)

var productColumns = []string{
	"p.id", "p.shop_id", "p.name", "p.price", "p.image_url", "p.category", "p.description", "p.status", "p.created_at",
	"s.name AS shop_name", "s.category AS shop_category", "s.owner_id AS shop_owner_id", "s.approved AS shop_approved",
}

// ProductFilter narrows the aggregate product feed
type ProductFilter struct {
	Q        string
	Category string
	Page     int
	Limit    int
}

// ProductService handles product listings. Ownership always resolves through the shop.
type ProductService struct {
	store
	shops *ShopService
}

// NewProductService creates a new product service
func NewProductService(database *db.DB, m *metrics.AppMetrics, shops *ShopService, logger *zap.Logger) *ProductService {
	return &ProductService{store: newStore(database, m, logger), shops: shops}
}

func productQuery() squirrel.SelectBuilder {
	return QB.Select(productColumns...).From("products p").Join("shops s ON s.id = p.shop_id")
}

func (s *ProductService) loadProduct(ctx context.Context, op string, id int64) (*models.ProductWithShop, error) {
	var p models.ProductWithShop
	err := s.get(ctx, s.db, &p, "products", productQuery().Where(squirrel.Eq{"p.id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "product")
	}
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to get product")
	}
	return &p, nil
}

// ListByShop returns a shop's products behind the single-shop visibility gate.
func (s *ProductService) ListByShop(ctx context.Context, caller *policy.Caller, shopID int64) ([]models.ProductWithShop, error) {
	if _, err := s.shops.GetShop(ctx, caller, shopID); err != nil {
		return nil, err
	}

	products := []models.ProductWithShop{}
	if err := s.selectAll(ctx, s.db, &products, "products", productQuery().
		Where(squirrel.Eq{"p.shop_id": shopID}).OrderBy("p.id DESC")); err != nil {
		return nil, apperr.Wrapf("products.ListByShop", err, "failed to list products")
	}
	return products, nil
}

// ListAll is the home feed. Products of unapproved shops are hidden unless
// the caller owns the shop or is an admin.
func (s *ProductService) ListAll(ctx context.Context, caller *policy.Caller, f ProductFilter) ([]models.ProductWithShop, models.Pagination, error) {
	b := productQuery().OrderBy("p.created_at DESC", "p.id DESC")
	if caller == nil {
		b = b.Where(squirrel.Eq{"s.approved": true})
	} else if !policy.IsAdmin(caller) {
		b = b.Where(squirrel.Or{squirrel.Eq{"s.approved": true}, squirrel.Eq{"s.owner_id": caller.ID}})
	}

	products := []models.ProductWithShop{}
	if err := s.selectAll(ctx, s.db, &products, "products", b); err != nil {
		return nil, models.Pagination{}, apperr.Wrapf("products.ListAll", err, "failed to list products")
	}

	page, p := policy.Paginate(policy.FilterProducts(caller, products, f.Q, f.Category), f.Page, f.Limit)
	return page, p, nil
}

// GetProduct returns a single product if its shop is visible to the caller.
func (s *ProductService) GetProduct(ctx context.Context, caller *policy.Caller, id int64) (*models.ProductWithShop, error) {
	const op = "products.Get"
	p, err := s.loadProduct(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProduct(caller, p) {
		return nil, apperr.Forbidden(op, "this product's shop is pending approval")
	}

	s.metrics.Add(ctx, s.metrics.ProductsViewed,
		attribute.Int64("product_id", id),
		attribute.String("product_category", p.Category),
	)
	return p, nil
}

// maxPrice is the first value a DECIMAL(12,2) column cannot hold.
var maxPrice = decimal.New(1, 10)

func parsePrice(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, "is required"
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "must be a number"
	}
	if price.IsNegative() {
		return decimal.Zero, "cannot be negative"
	}
	if !price.Equal(price.Truncate(2)) {
		return decimal.Zero, "must have at most 2 decimal places"
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, "is too large"
	}
	return price, ""
}

// CreateProduct lists a product in an existing shop owned by the caller.
func (s *ProductService) CreateProduct(ctx context.Context, caller *policy.Caller, req models.CreateProductRequest) (*models.ProductWithShop, error) {
	const op = "products.Create"
	if err := policy.RequireCaller(op, caller); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if blank(req.Name) {
		fields["name"] = "is required"
	}
	price, msg := parsePrice(req.Price)
	if msg != "" {
		fields["price"] = msg
	}
	if req.ShopID <= 0 {
		fields["shopId"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(op, fields)
	}

	shop, err := s.shops.loadShop(ctx, s.db, op, req.ShopID)
	if apperr.IsNotFound(err) {
		return nil, apperr.Validation(op, map[string]string{"shopId": "shop does not exist"})
	}
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutate(op, caller, shop.OwnerID); err != nil {
		return nil, err
	}

	status := models.ProductPending
	if policy.IsAdmin(caller) || shop.IsVerified {
		status = models.ProductApproved
	}

	id, err := s.insert(ctx, s.db, "products", QB.Insert("products").
		Columns("shop_id", "name", "price", "image_url", "category", "description", "status").
		Values(shop.ID, strings.TrimSpace(req.Name), price.StringFixed(2), req.ImageURL, req.Category, req.Description, string(status)))
	if err != nil {
		return nil, apperr.Wrapf(op, err, "failed to create product")
	}

	s.logger.Info("product created", zap.Int64("product_id", id), zap.Int64("shop_id", shop.ID))
	return s.loadProduct(ctx, op, id)
}

// UpdateProduct applies a partial update. Only admins may change the status.
func (s *ProductService) UpdateProduct(ctx context.Context, caller *policy.Caller, id int64, req models.UpdateProductRequest) (*models.ProductWithShop, error) {
	const op = "products.Update"
	if err := policy.RequireCaller(op, caller); err != nil {
		return nil, err
	}
	p, err := s.loadProduct(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMutate(op, caller, p.ShopOwnerID); err != nil {
		return nil, err
	}

	set := map[string]any{}
	fields := map[string]string{}
	if req.Name != nil {
		if blank(*req.Name) {
			fields["name"] = "cannot be empty"
		}
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		price, msg := parsePrice(*req.Price)
		if msg != "" {
			fields["price"] = msg
		}
		set["price"] = price.StringFixed(2)
	}
	if req.ImageURL != nil {
		set["image_url"] = *req.ImageURL
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			fields["status"] = "must be pending, approved or rejected"
		} else if !policy.IsAdmin(caller) {
			return nil, apperr.Forbidden(op, "only an admin may change product status")
		}
		set["status"] = string(*req.Status)
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(op, fields)
	}
	if len(set) == 0 {
		return p, nil
	}

	if _, err := s.exec(ctx, s.db, "UPDATE", "products", QB.Update("products").SetMap(set).Where(squirrel.Eq{"id": id})); err != nil {
		return nil, apperr.Wrapf(op, err, "failed to update product")
	}
	return s.loadProduct(ctx, op, id)
}

// DeleteProduct removes a product. NotFound is reported before ownership.
func (s *ProductService) DeleteProduct(ctx context.Context, caller *policy.Caller, id int64) error {
	const op = "products.Delete"
	if err := policy.RequireCaller(op, caller); err != nil {
		return err
	}
	p, err := s.loadProduct(ctx, op, id)
	if err != nil {
		return err
	}
	if err := policy.CanMutate(op, caller, p.ShopOwnerID); err != nil {
		return err
	}

	if _, err := s.exec(ctx, s.db, "DELETE", "products", QB.Delete("products").Where(squirrel.Eq{"id": id})); err != nil {
		return apperr.Wrapf(op, err, "failed to delete product")
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id), zap.Int64("caller_id", caller.ID))
	return nil
}
