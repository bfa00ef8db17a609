// Package cli is the bazaar command: the HTTP server plus the operator scripts
// for migrations, admin accounts and demo data.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/db"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
	"github.com/shahdolbazaar/marketplace-go-app/pkg/config"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bazaar",
	Short: "Shahdol Bazaar marketplace service",
	Long: `bazaar runs the Shahdol Bazaar directory API and its maintenance tasks.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		var err error
		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(makeAdminCmd)
	rootCmd.AddCommand(listUsersCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

// openDB connects to MySQL, optionally applying migrations first.
func openDB(migrate bool) (*db.DB, error) {
	database, err := db.NewDB(cfg.GetDSN(), cfg.OTELServiceName, logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}

// userService builds a UserService for the maintenance commands, which do not export metrics.
func userService(database *db.DB) *services.UserService {
	return services.NewUserService(database, metrics.NewNoop(), auth.NewBcryptVerifier(), logger)
}
