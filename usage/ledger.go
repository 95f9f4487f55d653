package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fundfinder-backend/conn"
)

// Ledger keeps one row per (user, day) with the number of successful
// searches. Rows are only ever mutated by IncrementToday's single upsert.
type Ledger struct {
	db      *sql.DB
	dialect conn.Dialect
}

func NewLedger(db *sql.DB, dialect conn.Dialect) *Ledger {
	return &Ledger{db: db, dialect: dialect}
}

// CountToday returns the stored count, or 0 when the user has no row for day.
func (l *Ledger) CountToday(ctx context.Context, userID string, day Day) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		conn.Rebind(l.dialect, `SELECT search_count FROM search_usage WHERE user_id = ? AND usage_date = ?`),
		userID, string(day),
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return n, nil
}

// IncrementToday adds one to the user's count for day and returns the new
// value.
func (l *Ledger) IncrementToday(ctx context.Context, userID string, day Day) (int, error) {
	now := time.Now().UTC()
	switch l.dialect {
	case conn.MySQL:
		// LAST_INSERT_ID(expr) hands the written value back on the same
		// connection without a second read.
		res, err := l.db.ExecContext(ctx,
			`INSERT INTO search_usage (user_id, usage_date, search_count, updated_at) VALUES (?, ?, LAST_INSERT_ID(1), ?)
			 ON DUPLICATE KEY UPDATE search_count = LAST_INSERT_ID(search_count + 1), updated_at = VALUES(updated_at)`,
			userID, string(day), now,
		)
		if err != nil {
			return 0, fmt.Errorf("increment usage: %w", err)
		}
		n, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("increment usage: %w", err)
		}
		return int(n), nil
	case conn.Postgres, conn.SQLite:
		current := "search_usage.search_count"
		if l.dialect == conn.SQLite {
			current = "search_count"
		}
		var n int
		err := l.db.QueryRowContext(ctx, conn.Rebind(l.dialect,
			`INSERT INTO search_usage (user_id, usage_date, search_count, updated_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT (user_id, usage_date) DO UPDATE SET search_count = `+current+` + 1, updated_at = excluded.updated_at
			 RETURNING search_count`),
			userID, string(day), now,
		).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("increment usage: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("increment usage: unsupported dialect %q", l.dialect)
	}
}

// Exhausted lists the users whose count on day reached limit.
func (l *Ledger) Exhausted(ctx context.Context, day Day, limit int) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		conn.Rebind(l.dialect, `SELECT user_id FROM search_usage WHERE usage_date = ? AND search_count >= ? ORDER BY user_id`),
		string(day), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list exhausted: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DayCount is one stored ledger row.
type DayCount struct {
	Day   Day `json:"date"`
	Count int `json:"count"`
}

// History returns the user's rows with from <= day <= to, oldest first. Days
// without searches have no row and are absent.
func (l *Ledger) History(ctx context.Context, userID string, from, to Day) ([]DayCount, error) {
	rows, err := l.db.QueryContext(ctx,
		conn.Rebind(l.dialect, `SELECT usage_date, search_count FROM search_usage WHERE user_id = ? AND usage_date >= ? AND usage_date <= ? ORDER BY usage_date`),
		userID, string(from), string(to),
	)
	if err != nil {
		return nil, fmt.Errorf("usage history: %w", err)
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var (
			d string
			n int
		)
		if err := rows.Scan(&d, &n); err != nil {
			return nil, err
		}
		out = append(out, DayCount{Day: Day(d), Count: n})
	}
	return out, rows.Err()
}
