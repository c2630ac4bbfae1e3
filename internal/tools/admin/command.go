// Package admin is the operational CLI: schema migration, seeding, and
// one-off account fixes that should not ride on API endpoints.
package admin

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/database"
	"vue-dashboard-api/internal/repository"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Administrative tooling"}
	cmd.AddCommand(newMigrateCommand(), newSeedCommand(), newPromoteCommand())
	return cmd
}

func loadConfigDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Println("migration complete")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var bootstrapAdminEmail string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed default roles and permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			email := cfg.BootstrapAdminEmail
			if bootstrapAdminEmail != "" {
				email = bootstrapAdminEmail
			}
			if err := database.Seed(db, email); err != nil {
				return err
			}
			fmt.Println("seeded default roles and permissions")
			if email != "" {
				fmt.Println("bootstrap admin attempted for: " + email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	return cmd
}

// newPromoteCommand grants the admin role to an existing account.
func newPromoteCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(strings.ToLower(email))
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			_, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(db)
			roles := repository.NewRoleRepository(db)
			user, err := users.FindByEmail(email)
			if err != nil {
				return fmt.Errorf("user %s: %w", email, err)
			}
			adminRole, err := roles.FindByName("admin")
			if err != nil {
				return fmt.Errorf("admin role: %w", err)
			}
			if err := users.AddRole(user.ID, adminRole.ID); err != nil {
				return err
			}
			fmt.Printf("granted admin role to %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	return cmd
}
