package saved

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fundfinder-backend/conn"
	"fundfinder-backend/search"
)

var ErrNotFound = errors.New("saved lead not found")

type SavedLead struct {
	ID string `json:"id"`
	search.Lead
	CreatedAt time.Time `json:"createdAt"`
}

type Repository struct {
	db      *sql.DB
	dialect conn.Dialect
}

func NewRepository(db *sql.DB, dialect conn.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

func (r *Repository) Create(ctx context.Context, userID string, lead search.Lead) (*SavedLead, error) {
	s := &SavedLead{ID: uuid.NewString(), Lead: lead, CreatedAt: time.Now().UTC()}
	_, err := r.db.ExecContext(ctx, conn.Rebind(r.dialect,
		`INSERT INTO saved_leads (id, user_id, name, type, amount, deadline, link, match_reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, userID, lead.Name, string(lead.Type), lead.Amount, lead.Deadline, lead.Link, lead.MatchReason, s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	return s, nil
}

// List returns the user's saved leads, newest first.
func (r *Repository) List(ctx context.Context, userID string) ([]SavedLead, error) {
	rows, err := r.db.QueryContext(ctx, conn.Rebind(r.dialect,
		`SELECT id, name, type, amount, deadline, link, match_reason, created_at FROM saved_leads WHERE user_id = ? ORDER BY created_at DESC, id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list saved leads: %w", err)
	}
	defer rows.Close()
	out := []SavedLead{}
	for rows.Next() {
		var (
			s  SavedLead
			lt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &lt, &s.Amount, &s.Deadline, &s.Link, &s.MatchReason, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Type = search.LeadType(lt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a lead owned by userID.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, conn.Rebind(r.dialect, `DELETE FROM saved_leads WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete saved lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
