// Package session holds the per-user conversation state and the stores that
// persist it between events.
package session

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/m3rciful/triplog/trip/flow"
)

// ErrNotFound is returned by Store.Get when the user has no stored session.
var ErrNotFound = errors.New("session: not found")

// Session is the conversation state of one user.
type Session struct {
	UserID    string            `json:"user_id"`
	State     flow.State        `json:"state"`
	Draft     map[string]string `json:"draft"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an idle session for userID.
func New(userID string) *Session {
	return &Session{UserID: userID, State: flow.StateIdle, Draft: map[string]string{}}
}

// Clone returns a deep copy so callers can mutate the draft freely.
func (s *Session) Clone() *Session {
	c := *s
	c.Draft = maps.Clone(s.Draft)
	if c.Draft == nil {
		c.Draft = map[string]string{}
	}
	return &c
}

// Reset returns the session to idle and discards the draft.
func (s *Session) Reset() {
	s.State = flow.StateIdle
	s.Draft = map[string]string{}
}

// Idle reports whether no workflow is active.
func (s *Session) Idle() bool {
	return s.State == flow.StateIdle
}

// Store persists sessions keyed by user id. Writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
}

// Load returns the stored session or a fresh idle one when none exists.
func Load(ctx context.Context, store Store, userID string) (*Session, error) {
	s, err := store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return New(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if s.Draft == nil {
		s.Draft = map[string]string{}
	}
	return s, nil
}
