// Package storetest opens throwaway SQLite databases with the production
// schema applied.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fundfinder-backend/conn"
	"fundfinder-backend/migrations"
)

func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := conn.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db, conn.SQLite))
	return db
}

// InsertUser adds a bare user row and returns its id.
func InsertUser(t testing.TB, db *sql.DB, id, status string) string {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, name, email, password_hash, subscription_status) VALUES (?, ?, ?, ?, ?)`,
		id, "Test "+id, id+"@example.com", "x", status,
	)
	require.NoError(t, err)
	return id
}
