package middleware

import (
	"log/slog"

	"github.com/m3rciful/triplog/core/logger"
	tghelpers "github.com/m3rciful/triplog/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AccessOptions restricts the bot to a set of Telegram user IDs.
type AccessOptions struct {
	// Allowed is the whitelist; empty allows everyone.
	Allowed  []int64
	OnReject tele.HandlerFunc
}

// AllowedUsersMiddleware drops updates from users outside opts.Allowed.
func AllowedUsersMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(opts.Allowed))
	for _, id := range opts.Allowed {
		allowed[id] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if len(allowed) == 0 {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil {
				if _, ok := allowed[user.ID]; ok {
					return next(c)
				}
			}
			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, logger.CompTG, "tg.access_denied",
				slog.String("status", "skip"),
				slog.String("kind", UpdateKind(c.Update())),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream
// handlers. A zero AdminID rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if opts.AdminID == 0 || user == nil || user.ID != opts.AdminID {
				logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.admin_only",
					slog.String("status", "skip"),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
