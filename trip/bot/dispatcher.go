// Package bot connects the conversation engine to its stores and to the
// chat transport.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/core/metrics"
	"github.com/m3rciful/triplog/trip/engine"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/render"
	"github.com/m3rciful/triplog/trip/session"
)

// Replier delivers a rendered message to the user who sent the event.
type Replier interface {
	Reply(ctx context.Context, msg render.Message) error
}

// Options wires a Dispatcher.
type Options struct {
	Sessions session.Store
	Records  record.Store
	Handler  engine.Handler
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Dispatcher runs one inbound event through load, decide, apply, save,
// render and send.
type Dispatcher struct {
	sessions session.Store
	records  record.Store
	handler  engine.Handler
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewDispatcher returns a dispatcher using opts.
func NewDispatcher(opts Options) *Dispatcher {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		sessions: opts.Sessions,
		records:  opts.Records,
		handler:  opts.Handler,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Dispatch handles in for userID and sends the reply through out. When a
// store fails nothing is committed and the user is asked to retry later;
// the store error is returned. A record appended before a failed session
// save is removed again so a retried confirm cannot store the trip twice.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, in engine.Input, out Replier) error {
	start := time.Now()

	s, err := session.Load(ctx, d.sessions, userID)
	if err != nil {
		return d.fail(ctx, out, "session.load", fmt.Errorf("bot: load session: %w", err))
	}
	from := s.State
	// A stored session always carries UpdatedAt.
	first := s.UpdatedAt.IsZero()

	res, err := d.handler.Handle(ctx, s, in)
	if err != nil {
		return d.fail(ctx, out, "engine.handle", err)
	}

	appended, err := d.apply(ctx, &res)
	if err != nil {
		d.rollback(ctx, appended)
		return d.fail(ctx, out, "record.effect", err)
	}

	if res.Save || first {
		res.Session.UpdatedAt = d.now()
		if err := d.sessions.Put(ctx, res.Session); err != nil {
			d.rollback(ctx, appended)
			return d.fail(ctx, out, "session.save", fmt.Errorf("bot: save session: %w", err))
		}
	}

	d.metrics.ObserveTransition(string(from), string(res.Session.State))
	d.metrics.ObserveOutcome(string(res.Outcome.Kind))

	msg := render.Render(res.Outcome)
	sendErr := out.Reply(ctx, msg)

	logger.Info(ctx, logger.CompSessions, "dispatch.done",
		slog.String("status", logger.Status(sendErr)),
		slog.String("input", in.Kind.String()),
		slog.String("state", string(from)),
		slog.String("next_state", string(res.Session.State)),
		slog.String("outcome", string(res.Outcome.Kind)),
		slog.Bool("saved", res.Save || first),
		slog.Int("effects", len(res.Effects)),
		slog.Duration("duration", logger.Took(start)),
	)
	if sendErr != nil {
		return fmt.Errorf("bot: send reply: %w", sendErr)
	}
	return nil
}

// apply runs record mutations in order and returns the numbers of the
// records it appended. An appended record replaces the outcome's record so
// the reply can show its assigned number.
func (d *Dispatcher) apply(ctx context.Context, res *engine.Result) ([]int64, error) {
	var appended []int64
	for _, eff := range res.Effects {
		switch eff.Kind {
		case engine.EffectAppend:
			stored, err := d.records.Append(ctx, eff.Record)
			if err != nil {
				return appended, fmt.Errorf("bot: append record: %w", err)
			}
			appended = append(appended, stored.No)
			res.Outcome.Record = &stored
		case engine.EffectDelete:
			err := d.records.Delete(ctx, eff.No)
			if errors.Is(err, record.ErrNotFound) {
				logger.Warn(ctx, logger.CompRecords, "record.delete",
					slog.String("status", "skip"),
					slog.Int64("no", eff.No),
					slog.String("reason", "not_found"),
				)
				continue
			}
			if err != nil {
				return appended, fmt.Errorf("bot: delete record %d: %w", eff.No, err)
			}
		}
	}
	return appended, nil
}

// rollback removes records appended by an event that failed later on.
// Deletes are not undone: repeating one is harmless.
func (d *Dispatcher) rollback(ctx context.Context, appended []int64) {
	for _, no := range appended {
		if err := d.records.Delete(ctx, no); err != nil {
			logger.Error(ctx, logger.CompRecords, "record.rollback",
				slog.String("status", "fail"),
				slog.Int64("no", no),
				slog.String("err", err.Error()),
			)
			continue
		}
		logger.Warn(ctx, logger.CompRecords, "record.rollback",
			slog.String("status", "ok"),
			slog.Int64("no", no),
		)
	}
}

func (d *Dispatcher) fail(ctx context.Context, out Replier, stage string, err error) error {
	logger.Error(ctx, logger.CompSessions, "dispatch.fail",
		slog.String("status", "fail"),
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)
	d.metrics.ObserveOutcome("error")
	if sendErr := out.Reply(ctx, render.Message{Kind: render.KindText, Text: render.TextRetryLater}); sendErr != nil {
		return errors.Join(err, fmt.Errorf("bot: send retry notice: %w", sendErr))
	}
	return err
}
