package cli

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(true)
		if err != nil {
			return err
		}
		defer database.Close()

		logger.Info("migrations applied")
		return nil
	},
}
