package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/session"
)

// WithTimeout guards next against stale entries. Text arriving for a
// session that has sat in the entry workflow for at least timeout is not
// processed; the user is asked to resume or reset instead. Report and
// delete states are exempt.
func WithTimeout(next Handler, timeout time.Duration, now func() time.Time) Handler {
	if now == nil {
		now = time.Now
	}
	return HandlerFunc(func(ctx context.Context, s *session.Session, in Input) (Result, error) {
		if !Stale(s, timeout, now()) || in.Kind != InputText {
			return next.Handle(ctx, s, in)
		}
		logger.Info(ctx, logger.CompEngine, "engine.timeout",
			slog.String("state", string(s.State)),
			slog.Duration("idle", now().Sub(s.UpdatedAt)),
		)
		c := s.Clone()
		return kept(c, Outcome{Kind: OutcomeTimeout, State: c.State}), nil
	})
}

// Stale reports whether s is an entry in progress untouched for timeout.
func Stale(s *session.Session, timeout time.Duration, now time.Time) bool {
	if timeout <= 0 || s.UpdatedAt.IsZero() {
		return false
	}
	if flow.WorkflowOf(s.State) != flow.WorkflowEntry {
		return false
	}
	return now.Sub(s.UpdatedAt) >= timeout
}
