package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/triplog/core/telegram"
	"github.com/m3rciful/triplog/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation receives free-form chat input that is not a command.
type Conversation interface {
	OnText(c tele.Context) error
	OnLocation(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text, location and document updates.
// Slash text matching a registered command alias runs that command; the
// rest goes to conv, so free-form answers never trigger commands.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(commandName(text)); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if conv != nil {
			return handleWithSummary(c, "conversation.text", start, "", "", func() error {
				return conv.OnText(c)
			})
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	locationHandler := func(c tele.Context) error {
		start := time.Now()
		if conv == nil {
			logHandlerSummary(c, "conversation.location", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "conversation.location", start, "", "", func() error {
			return conv.OnLocation(c)
		})
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handler)},
		{Endpoint: tele.OnLocation, Handler: wrap(locationHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}

// commandName strips arguments and a @botname suffix from slash text.
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}
