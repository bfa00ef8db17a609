package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/api"
	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
	"github.com/shahdolbazaar/marketplace-go-app/internal/checkout"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/imagestore"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
	"github.com/shahdolbazaar/marketplace-go-app/pkg/config"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	appMetrics, _, meterShutdown, err := metrics.InitMetrics(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down meter provider", zap.Error(err))
		}
	}()

	database, err := openDB(serveMigrate)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	app, err := buildApp(cfg, database, appMetrics, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("environment", cfg.Environment),
			zap.Bool("metrics", cfg.MetricsEnabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// buildApp wires services, stores and the checkout pipeline into the API.
func buildApp(cfg *config.Config, database *db.DB, m *metrics.AppMetrics, logger *zap.Logger) (*api.App, error) {
	carts, err := cart.NewFileStore(cfg.CartDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cart store: %w", err)
	}
	renderer, err := checkout.NewRenderer(cfg.CurrencySymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order template: %w", err)
	}

	shops := services.NewShopService(database, m, logger)

	return api.NewApp(cfg, database, m, logger, api.Services{
		Users:    services.NewUserService(database, m, auth.NewBcryptVerifier(), logger),
		Shops:    shops,
		Products: services.NewProductService(database, m, shops, logger),
		Offers:   services.NewOfferService(database, m, logger),
		Reviews:  services.NewReviewService(database, m, shops, logger),
		Tokens:   auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Images: &imagestore.LocalStore{
			Dir:           cfg.UploadDir,
			PublicBaseURL: cfg.PublicBaseURL,
			MaxBytes:      cfg.MaxUploadBytes,
			Metrics:       m,
			Logger:        logger,
		},
		Carts: carts,
		Checkout: &checkout.Service{
			StoreName:        cfg.StoreName,
			MessagingBaseURL: cfg.MessagingBaseURL,
			Resolver: &checkout.Resolver{
				Shops:           checkout.LookupResolver{Shops: shops},
				FallbackContact: cfg.FallbackContact,
				CountryCode:     cfg.CountryCode,
				Metrics:         m,
				Logger:          logger,
			},
			Renderer: renderer,
			// links are returned to the browser, which opens them DispatchStagger apart
			Dispatcher: &checkout.Dispatcher{Logger: logger},
			Metrics:    m,
			Logger:     logger,
		},
	}), nil
}
