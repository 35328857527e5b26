package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/cache"
	"github.com/diewo77/festakit/internal/db"
	"github.com/diewo77/festakit/internal/services"
)

var (
	migrateSQL bool
	migrateDir string
	adminEmail string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Connect(cfg.Database, log.Logger)
		if err != nil {
			return err
		}
		if err := db.Migrate(conn, cfg.Database, migrateDir, migrateSQL); err != nil {
			return err
		}
		log.Info().Bool("sql", migrateSQL).Msg("migrations completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert roles, capabilities and reference data",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Connect(cfg.Database, log.Logger)
		if err != nil {
			return err
		}
		return seed(cmd.Context(), conn)
	},
}

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin",
	Short: "Give the admin role to an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(adminEmail)
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		conn, err := db.Connect(cfg.Database, log.Logger)
		if err != nil {
			return err
		}
		if err := db.SeedRoles(conn); err != nil {
			return err
		}
		accounts := services.NewAccountService(conn, nil, cfg.App.BaseURL, "", log.Logger)
		if err := accounts.GrantAdmin(cmd.Context(), email); err != nil {
			return fmt.Errorf("grant admin to %s: %w", email, err)
		}
		log.Info().Str("email", email).Msg("admin role granted")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSQL, "sql", false, "apply the versioned SQL files instead of gorm AutoMigrate")
	migrateCmd.Flags().StringVar(&migrateDir, "dir", "migrations", "directory holding the SQL migrations")
	grantAdminCmd.Flags().StringVar(&adminEmail, "email", "", "e-mail of the account")
}

// seed runs the idempotent seed and drops cached reference data so the
// catalog filters pick up new rows.
func seed(ctx context.Context, conn *gorm.DB) error {
	if err := db.Seed(conn, cfg.App.AdminEmail); err != nil {
		return err
	}
	rc, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, cached reference data not cleared")
		return nil
	}
	defer rc.Close()
	services.NewCatalogService(conn, rc, log.Logger).InvalidateReferenceData(ctx)
	log.Info().Msg("seed completed")
	return nil
}
