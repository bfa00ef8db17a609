package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
)

// operator acts for the seed command; it is not a stored account.
var operator = &policy.Caller{Role: models.RoleAdmin}

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data: a verified seller shop, products and news",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(false)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		m := metrics.NewNoop()
		shops := services.NewShopService(database, m, logger)
		s := &seeder{
			users:    userService(database),
			shops:    shops,
			products: services.NewProductService(database, m, shops, logger),
			offers:   services.NewOfferService(database, m, logger),
			logger:   logger,
		}
		return s.seed(ctx, seedPassword)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "seller-password", "password123", "Password of the demo seller account")
}

type seeder struct {
	users    *services.UserService
	shops    *services.ShopService
	products *services.ProductService
	offers   *services.OfferService
	logger   *zap.Logger
}

var seedProducts = []models.CreateProductRequest{
	{Name: "Fresh Apples", Price: "150", Category: "Grocery", Description: "Kinnaur apples directly from farm"},
	{Name: "Amul Butter 100g", Price: "60", Category: "Grocery", Description: "Pure cow milk butter"},
}

var seedOffers = []string{
	"शहडोल में आज का मौसम: हल्की ठंड के साथ तापमान 17°C रहेगा।",
	"कल विराटेश्वर मंदिर में विशेष आरती और भंडारा दोपहर 12 बजे से।",
	"शहडोल बाज़ार में ताज़ा फल और सब्जियों की नई आवक शुरू - देखें किराना सेक्शन।",
	"नगर पालिका सूचना: बुढ़ार रोड पर पाइपलाइन मरम्मत के कारण आज जल आपूर्ति बाधित रह सकती है।",
}

// seed is a no-op when the demo seller already has a shop.
func (s *seeder) seed(ctx context.Context, password string) error {
	seller, err := s.users.GetUserByUsername(ctx, "seller1")
	if apperr.IsNotFound(err) {
		seller, err = s.users.Register(ctx, models.RegisterRequest{Username: "seller1", Password: password})
	}
	if err != nil {
		return fmt.Errorf("seller account: %w", err)
	}
	sellerCaller := policy.CallerFromUser(seller)

	if _, err := s.shops.GetShopByOwner(ctx, sellerCaller, seller.ID); err == nil {
		s.logger.Info("demo data already present, skipping")
		return nil
	} else if !apperr.IsNotFound(err) {
		return err
	}

	shop, err := s.shops.CreateShop(ctx, sellerCaller, models.CreateShopRequest{
		Name:        "Shahdol General Store",
		Category:    "Grocery",
		Description: "Everything you need in one place",
		Address:     "Main Road, Shahdol",
		Phone:       "919999999999",
	})
	if err != nil {
		return fmt.Errorf("shop: %w", err)
	}
	if _, err := s.shops.Approve(ctx, operator, shop.ID, true); err != nil {
		return fmt.Errorf("approve shop: %w", err)
	}
	if _, err := s.shops.Verify(ctx, operator, shop.ID, seller.ID); err != nil {
		return fmt.Errorf("verify shop: %w", err)
	}

	for _, p := range seedProducts {
		p.ShopID = shop.ID
		if _, err := s.products.CreateProduct(ctx, sellerCaller, p); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
	}

	for _, content := range seedOffers {
		if _, err := s.offers.Create(ctx, operator, models.OfferRequest{Content: &content}); err != nil {
			return fmt.Errorf("offer: %w", err)
		}
	}

	s.logger.Info("demo data seeded",
		zap.Int64("shop_id", shop.ID),
		zap.Int("products", len(seedProducts)),
		zap.Int("offers", len(seedOffers)),
	)
	return nil
}
