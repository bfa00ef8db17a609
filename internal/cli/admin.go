package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shahdolbazaar/marketplace-go-app/internal/models"
	"github.com/shahdolbazaar/marketplace-go-app/internal/services"
)

var adminPassword string

var makeAdminCmd = &cobra.Command{
	Use:   "make-admin <username>",
	Short: "Promote a user to admin",
	Long: `Promote an existing user to the admin role.

With --password the account is created when it does not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(false)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		user, err := makeAdmin(ctx, userService(database), args[0], adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", user.Username)
		return printUsers(cmd.OutOrStdout(), []models.User{*user})
	},
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List all accounts and their roles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB(false)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		users, err := userService(database).ListUsers(ctx)
		if err != nil {
			return err
		}
		return printUsers(cmd.OutOrStdout(), users)
	},
}

func init() {
	makeAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Create the account with this password if it does not exist")
}

func makeAdmin(ctx context.Context, users *services.UserService, username, password string) (*models.User, error) {
	if password != "" {
		return users.EnsureAdmin(ctx, username, password)
	}
	return users.SetRole(ctx, username, models.RoleAdmin)
}

func printUsers(w io.Writer, users []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}
