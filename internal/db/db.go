// Package db opens the gorm connection, applies migrations and seeds
// reference data and roles.
package db

import (
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/festakit/internal/config"
	"github.com/diewo77/festakit/internal/models"
)

// Models lists every table managed by AutoMigrate, in dependency order.
func Models() []any {
	return []any{
		&models.Capability{}, &models.Role{},
		&models.User{}, &models.PasswordReset{},
		&models.StoreProfile{}, &models.Subscription{},
		&models.Category{}, &models.Theme{}, &models.PieceType{}, &models.Format{},
		&models.Material{}, &models.DownloadHistory{},
		&models.Kit{}, &models.Contract{},
	}
}

// requiredTables must exist after migrations.
var requiredTables = []string{"users", "roles", "contracts", "materials"}

// Connect opens the Postgres connection, retrying while the server starts.
func Connect(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.DSN())
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level), TranslateError: true}

	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("database not ready, retrying")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", retries, err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Info().Str("dsn", MaskDSN(dsn)).Msg("database connected")
	return db, nil
}

// Migrate brings the schema up to date. With useSQL the versioned files in
// dir are applied with golang-migrate, otherwise gorm AutoMigrate is used.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, dir string, useSQL bool) error {
	if useSQL {
		if err := RunSQLMigrations(cfg.MigrateURL(), dir); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return err
		}
	}
	for _, table := range requiredTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or updates every model table.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range Models() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// RunSQLMigrations applies the migrations found in dir.
func RunSQLMigrations(url, dir string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
