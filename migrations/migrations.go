package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"fundfinder-backend/conn"
)

//go:embed sql
var files embed.FS

// Run applies every pending migration for the dialect. An up-to-date schema
// is not an error.
func Run(db *sql.DB, dialect conn.Dialect) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	src, err := iofs.New(files, "sql/"+string(dialect))
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case conn.MySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case conn.Postgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	case conn.SQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
