package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"

	"fundfinder-backend/conn"
)

type Repository struct {
	db      *sql.DB
	dialect conn.Dialect
}

func NewRepository(db *sql.DB, dialect conn.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

const userColumns = `id, name, email, password_hash, subscription_status, stripe_customer_id, last_checkout_session_id, created_at, updated_at`

func (r *Repository) q(query string) string { return conn.Rebind(r.dialect, query) }

// Create stores a new free user. The email is lower-cased before insert.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	u := &User{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(name),
		Email:              strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:       passwordHash,
		SubscriptionStatus: StatusFree,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err := r.db.ExecContext(ctx, r.q(
		`INSERT INTO users (id, name, email, password_hash, subscription_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.SubscriptionStatus), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u      User
		status string
	)
	err := r.db.QueryRowContext(ctx, r.q(query), arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &status,
		&u.StripeCustomerID, &u.LastCheckoutSessionID, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.SubscriptionStatus = Status(status)
	return &u, nil
}

// SubscriptionStatus reads only the status column.
func (r *Repository) SubscriptionStatus(ctx context.Context, id string) (Status, error) {
	var status string
	err := r.db.QueryRowContext(ctx, r.q(`SELECT subscription_status FROM users WHERE id = ?`), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load subscription status: %w", err)
	}
	return Status(status), nil
}

// SetSubscriptionStatus updates the status and records the checkout session
// that caused it. It reports whether the status actually changed.
func (r *Repository) SetSubscriptionStatus(ctx context.Context, id string, status Status, checkoutSessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(
		`UPDATE users SET subscription_status = ?, last_checkout_session_id = ?, updated_at = ? WHERE id = ? AND subscription_status <> ?`),
		string(status), checkoutSessionID, time.Now().UTC(), id, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("update subscription status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	// nothing changed: either already at the status or unknown id
	if _, err := r.SubscriptionStatus(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *Repository) SetStripeCustomer(ctx context.Context, id, customerID string) error {
	_, err := r.db.ExecContext(ctx, r.q(`UPDATE users SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`),
		customerID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update stripe customer: %w", err)
	}
	return nil
}

// ListByStatus returns users with the given status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+userColumns+` FROM users WHERE subscription_status = ? ORDER BY created_at`), string(status))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var (
			u  User
			st string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &st,
			&u.StripeCustomerID, &u.LastCheckoutSessionID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.SubscriptionStatus = Status(st)
		out = append(out, u)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (r *Repository) UpdateName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, r.q(`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`),
		strings.TrimSpace(name), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
