package checkout

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
)

// FallbackShopName labels groups whose shop could not be resolved.
const FallbackShopName = "Shop"

// ShopContact is what checkout needs to know about a shop.
type ShopContact struct {
	Name  string
	Phone string
}

// ShopResolver looks up the contact of one shop.
type ShopResolver interface {
	ResolveShop(ctx context.Context, shopID int64) (ShopContact, error)
}

// ShopLookup is satisfied by services.ShopService.
type ShopLookup interface {
	LookupContact(ctx context.Context, id int64) (*models.Shop, error)
}

// LookupResolver adapts a ShopLookup to ShopResolver.
type LookupResolver struct {
	Shops ShopLookup
}

func (r LookupResolver) ResolveShop(ctx context.Context, shopID int64) (ShopContact, error) {
	shop, err := r.Shops.LookupContact(ctx, shopID)
	if err != nil {
		return ShopContact{}, err
	}
	return ShopContact{Name: shop.Name, Phone: shop.Phone}, nil
}

// Contact is the resolved destination of one group.
type Contact struct {
	ShopName     string
	Phone        string
	UsedFallback bool
}

// NormalizePhone keeps digits only and prefixes countryCode to a 10-digit
// local number. It returns "" when nothing usable remains.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return countryCode + digits
	}
	return digits
}

// Resolver resolves every group's contact, each lookup independently.
type Resolver struct {
	Shops           ShopResolver
	FallbackContact string
	CountryCode     string
	Metrics         *metrics.AppMetrics
	Logger          *zap.Logger
}

// ResolveAll looks up all shops in parallel. A failed lookup or a shop
// without a usable number falls back without affecting the others.
func (r *Resolver) ResolveAll(ctx context.Context, shopIDs []int64) map[int64]Contact {
	out := make(map[int64]Contact, len(shopIDs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, id := range shopIDs {
		eg.Go(func() error {
			c := r.resolve(egCtx, id)
			mu.Lock()
			out[id] = c
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return out
}

func (r *Resolver) resolve(ctx context.Context, shopID int64) Contact {
	fallback := NormalizePhone(r.FallbackContact, r.CountryCode)

	shop, err := r.Shops.ResolveShop(ctx, shopID)
	if err != nil {
		r.logger().Warn("shop lookup failed, using fallback contact", zap.Int64("shop_id", shopID), zap.Error(err))
		r.countFallback(ctx, "lookup_failed")
		return Contact{ShopName: FallbackShopName, Phone: fallback, UsedFallback: true}
	}

	name := strings.TrimSpace(shop.Name)
	if name == "" {
		name = FallbackShopName
	}
	phone := NormalizePhone(shop.Phone, r.CountryCode)
	if phone == "" {
		r.countFallback(ctx, "no_phone")
		return Contact{ShopName: name, Phone: fallback, UsedFallback: true}
	}
	return Contact{ShopName: name, Phone: phone}
}

func (r *Resolver) countFallback(ctx context.Context, reason string) {
	if r.Metrics != nil {
		r.Metrics.Add(ctx, r.Metrics.ShopLookupFallbacks, attribute.String("reason", reason))
	}
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
