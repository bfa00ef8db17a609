package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/policy"
	"github.com/shahdolbazaar/marketplace-go-app/internal/testutil"
)

type fixture struct {
	db       *db.DB
	users    *UserService
	shops    *ShopService
	products *ProductService
	offers   *OfferService
	reviews  *ReviewService

	admin    *policy.Caller
	owner    *policy.Caller
	stranger *policy.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := testutil.NewDB(t)
	m := metrics.NewNoop()
	logger := testutil.Logger(t)

	shops := NewShopService(d, m, logger)
	f := &fixture{
		db:       d,
		users:    NewUserService(d, m, &auth.BcryptVerifier{Cost: bcrypt.MinCost}, logger),
		shops:    shops,
		products: NewProductService(d, m, shops, logger),
		offers:   NewOfferService(d, m, logger),
		reviews:  NewReviewService(d, m, shops, logger),
	}

	f.admin = policy.CallerFromUser(testutil.InsertUser(t, d, "admin", models.RoleAdmin))
	f.owner = policy.CallerFromUser(testutil.InsertUser(t, d, "ravi", models.RoleCustomer))
	f.stranger = policy.CallerFromUser(testutil.InsertUser(t, d, "meena", models.RoleCustomer))
	return f
}
