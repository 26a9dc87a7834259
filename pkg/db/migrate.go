// pkg/db/migrate.go
package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the postgres:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Migrate applies the embedded schema migrations against the database described by cfg.
// It opens its own connection so the application's pool is never closed by the migrator.
// Reaching the target version with nothing to apply is not an error; applied reports
// whether anything changed.
func Migrate(cfg Config, direction Direction) (applied bool, err error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return false, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return false, fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	switch direction {
	case DirectionUp:
		err = m.Up()
	case DirectionDown:
		err = m.Down()
	default:
		return false, fmt.Errorf("unknown migration direction %q", direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to migrate %s: %w", direction, err)
	}
	return true, nil
}
