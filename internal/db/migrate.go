package db

import (
	"errors"
	"fmt"

	"github.com/senyabanana/bid-award/internal/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies migrations from migrationURL. With down set, every
// migration is rolled back instead.
func RunMigrations(migrationURL, dbSource string, down bool) error {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer migration.Close()

	if down {
		err = migration.Down()
	} else {
		err = migration.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := migration.Version()
	utils.Info("db migrated successfully", map[string]any{"version": version, "dirty": dirty, "down": down})
	return nil
}
