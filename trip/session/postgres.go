package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/triplog/trip/flow"
)

// SQLStore persists sessions in the user_sessions table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database. Bind variables follow the driver.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type sessionRow struct {
	UserID    string `db:"user_id"`
	State     string `db:"state"`
	Draft     string `db:"draft"`
	UpdatedAt string `db:"updated_at"`
}

// Get loads the session of userID.
func (s *SQLStore) Get(ctx context.Context, userID string) (*Session, error) {
	var row sessionRow
	q := s.db.Rebind(`SELECT user_id, state, draft, updated_at FROM user_sessions WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get %s: %w", userID, err)
	}

	out := &Session{UserID: row.UserID, State: flow.State(row.State), Draft: map[string]string{}}
	if row.Draft != "" {
		if err := json.Unmarshal([]byte(row.Draft), &out.Draft); err != nil {
			return nil, fmt.Errorf("session: decode draft of %s: %w", userID, err)
		}
	}
	if row.UpdatedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("session: decode updated_at of %s: %w", userID, err)
		}
		out.UpdatedAt = ts
	}
	return out, nil
}

// Put upserts s.
func (s *SQLStore) Put(ctx context.Context, sess *Session) error {
	draft := sess.Draft
	if draft == nil {
		draft = map[string]string{}
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("session: encode draft of %s: %w", sess.UserID, err)
	}
	q := s.db.Rebind(`INSERT INTO user_sessions (user_id, state, draft, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			state = excluded.state,
			draft = excluded.draft,
			updated_at = excluded.updated_at`)
	_, err = s.db.ExecContext(ctx, q,
		sess.UserID, string(sess.State), string(data), sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("session: put %s: %w", sess.UserID, err)
	}
	return nil
}
