package conn

import (
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	q := "SELECT id FROM users WHERE email = ? AND status = ?"
	if got := Rebind(MySQL, q); got != q {
		t.Fatalf("mysql query changed: %s", got)
	}
	if got := Rebind(SQLite, q); got != q {
		t.Fatalf("sqlite query changed: %s", got)
	}
	want := "SELECT id FROM users WHERE email = $1 AND status = $2"
	if got := Rebind(Postgres, q); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestNewSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
