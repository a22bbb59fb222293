package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/database"
	"github.com/01moynul/pharmastore-golang/internal/repository/sqlstore"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the MySQL schema",
	RunE:  runMigrate,
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a platform administrator account",
	RunE:  runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Administrator password (at least 8 characters)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	db, err := database.OpenDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	log.Info("schema is up to date")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	db, err := database.OpenDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := services.NewAccountService(sqlstore.New(db), log)
	u, err := accounts.CreateAdmin(ctx, services.RegisterInput{Email: adminEmail, Password: adminPassword, FullName: adminName})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Info("administrator created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
