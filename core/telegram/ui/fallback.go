// Package ui declares the replies a bot gives to updates no route expects.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates cannot be
// mapped to commands, callbacks, or the conversation.
type FallbackProvider interface {
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
