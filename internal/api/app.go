package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
	"github.com/shahdolbazaar/marketplace-go-app/internal/checkout"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/imagestore"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/middleware"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
	"github.com/shahdolbazaar/marketplace-go-app/pkg/config"
)

// Services bundles the collaborators the handlers call into
type Services struct {
	Users    *services.UserService
	Shops    *services.ShopService
	Products *services.ProductService
	Offers   *services.OfferService
	Reviews  *services.ReviewService
	Tokens   *auth.TokenIssuer
	Images   imagestore.Store
	Carts    cart.Store
	Checkout *checkout.Service
}

// App holds application dependencies
type App struct {
	config  *config.Config
	db      *db.DB
	metrics *metrics.AppMetrics
	logger  *zap.Logger
	Services
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, database *db.DB, m *metrics.AppMetrics, logger *zap.Logger, svc Services) *App {
	return &App{
		config:   cfg,
		db:       database,
		metrics:  m,
		logger:   logger,
		Services: svc,
	}
}

// Handler builds the router and wraps it with recovery and CORS
func (a *App) Handler() http.Handler {
	router := mux.NewRouter()
	a.SetupRoutes(router)
	return middleware.Recovery(a.logger)(middleware.CORS(a.config.CORSAllowedOrigins)(router))
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	identity := &auth.Identity{
		Tokens:            a.Tokens,
		Users:             a.Users,
		AllowUserIDHeader: a.config.AllowUserIDHeader,
		Logger:            a.logger,
	}

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics, a.logger))
	r.Use(identity.Middleware)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/register", a.RegisterHandler).Methods("POST")
	api.HandleFunc("/login", a.LoginHandler).Methods("POST")
	api.HandleFunc("/me", a.MeHandler).Methods("GET")

	// Shops
	api.HandleFunc("/shops", a.ListShopsHandler).Methods("GET")
	api.HandleFunc("/shops", a.CreateShopHandler).Methods("POST")
	api.HandleFunc("/shops/{id:[0-9]+}", a.GetShopHandler).Methods("GET")
	api.HandleFunc("/shops/{id:[0-9]+}", a.UpdateShopHandler).Methods("PATCH")
	api.HandleFunc("/shops/{id:[0-9]+}", a.DeleteShopHandler).Methods("DELETE")
	api.HandleFunc("/shops/{id:[0-9]+}/approve", a.ApproveShopHandler(true)).Methods("PATCH")
	api.HandleFunc("/shops/{id:[0-9]+}/unapprove", a.ApproveShopHandler(false)).Methods("PATCH")
	api.HandleFunc("/shops/{id:[0-9]+}/verify", a.VerifyShopHandler).Methods("PATCH")
	api.HandleFunc("/shops/{id:[0-9]+}/products", a.ListShopProductsHandler).Methods("GET")
	api.HandleFunc("/shops/{id:[0-9]+}/reviews", a.ListShopReviewsHandler).Methods("GET")
	api.HandleFunc("/shops/{id:[0-9]+}/reviews", a.CreateReviewHandler).Methods("POST")
	api.HandleFunc("/shops/{id:[0-9]+}/image", a.UploadShopImageHandler).Methods("POST")

	// Partner
	api.HandleFunc("/partner/shop/{ownerId:[0-9]+}", a.PartnerShopHandler).Methods("GET")
	api.HandleFunc("/seller/apply", a.ApplySellerHandler).Methods("POST")

	// Products
	api.HandleFunc("/products/all", a.ListProductsHandler).Methods("GET")
	api.HandleFunc("/products", a.CreateProductHandler).Methods("POST")
	api.HandleFunc("/products/{id:[0-9]+}", a.GetProductHandler).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", a.UpdateProductHandler).Methods("PATCH")
	api.HandleFunc("/products/{id:[0-9]+}", a.DeleteProductHandler).Methods("DELETE")
	api.HandleFunc("/uploads", a.UploadImageHandler).Methods("POST")

	// Offers
	api.HandleFunc("/offers", a.ListOffersHandler).Methods("GET")
	api.HandleFunc("/offers", a.CreateOfferHandler).Methods("POST")
	api.HandleFunc("/offers/{id:[0-9]+}", a.UpdateOfferHandler).Methods("PATCH")
	api.HandleFunc("/offers/{id:[0-9]+}", a.DeleteOfferHandler).Methods("DELETE")

	// Admin
	api.HandleFunc("/admin/shops", a.AdminShopsHandler).Methods("GET")
	api.HandleFunc("/admin/offers", a.AdminOffersHandler).Methods("GET")
	api.HandleFunc("/admin/reviews", a.AdminReviewsHandler).Methods("GET")
	api.HandleFunc("/admin/reviews/{id:[0-9]+}/approve", a.ApproveReviewHandler).Methods("PATCH")
	api.HandleFunc("/admin/reviews/{id:[0-9]+}", a.DeleteReviewHandler).Methods("DELETE")

	// Cart and checkout
	api.HandleFunc("/cart/{session}", a.GetCartHandler).Methods("GET")
	api.HandleFunc("/cart/{session}", a.ClearCartHandler).Methods("DELETE")
	api.HandleFunc("/cart/{session}/items", a.AddCartItemHandler).Methods("POST")
	api.HandleFunc("/cart/{session}/items/{id:[0-9]+}", a.UpdateCartItemHandler).Methods("PATCH")
	api.HandleFunc("/cart/{session}/items/{id:[0-9]+}", a.RemoveCartItemHandler).Methods("DELETE")
	api.HandleFunc("/cart/{session}/checkout", a.CartCheckoutHandler).Methods("POST")
	api.HandleFunc("/checkout", a.CheckoutHandler).Methods("POST")

	api.HandleFunc("/categories", a.CategoriesHandler).Methods("GET")
	api.HandleFunc("/health", a.HealthHandler).Methods("GET")

	// Uploaded images
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.config.UploadDir))))
}
