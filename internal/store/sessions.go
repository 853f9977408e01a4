package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labdesk/internal/wizard"
)

// timeLayout is fixed width so updated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Sessions is the SQLite wizard.SessionStore.
type Sessions struct {
	db *sql.DB
}

func NewSessions(db *sql.DB) *Sessions {
	return &Sessions{db: db}
}

// Save upserts s. Uploaded file bytes are not stored, only their metadata.
func (r *Sessions) Save(ctx context.Context, s *wizard.Session) error {
	state, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("encode wizard state: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO wizard_sessions (id, current_step, state, submitted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_step = excluded.current_step,
			state = excluded.state,
			submitted = excluded.submitted,
			updated_at = excluded.updated_at`,
		s.ID, s.CurrentStep, string(state), boolToInt(s.Submitted),
		s.CreatedAt.UTC().Format(timeLayout), s.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save wizard session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns wizard.ErrSessionNotFound for an unknown id.
func (r *Sessions) Load(ctx context.Context, id string) (*wizard.Session, error) {
	var (
		s                wizard.Session
		state            string
		submitted        int
		created, updated string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, current_step, state, submitted, created_at, updated_at
		FROM wizard_sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.CurrentStep, &state, &submitted, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wizard.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(state), &s.State); err != nil {
		return nil, fmt.Errorf("decode wizard state %s: %w", id, err)
	}
	s.Submitted = submitted != 0
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &s, nil
}

// List returns sessions, most recently updated first.
func (r *Sessions) List(ctx context.Context) ([]wizard.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, current_step, submitted, created_at, updated_at
		FROM wizard_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []wizard.Session{}
	for rows.Next() {
		var (
			s                wizard.Session
			submitted        int
			created, updated string
		)
		if err := rows.Scan(&s.ID, &s.CurrentStep, &submitted, &created, &updated); err != nil {
			return nil, err
		}
		s.Submitted = submitted != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *Sessions) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
