package conn

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"fundfinder-backend/config"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Open connects to the store selected by DB_DRIVER.
func Open(cfg *config.Config) (*sql.DB, Dialect, error) {
	d := Dialect(cfg.DBDriver)
	var (
		db  *sql.DB
		err error
	)
	switch d {
	case MySQL:
		db, err = NewMySQL(cfg)
	case Postgres:
		db, err = NewPostgres(cfg)
	case SQLite:
		db, err = NewSQLite(cfg.SQLitePath)
	default:
		return nil, "", fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", d, err)
	}
	return db, d, nil
}

// Rebind rewrites '?' placeholders into the form the dialect expects.
// Queries in this module never carry literal question marks.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
