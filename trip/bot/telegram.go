package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/triplog/core/logger"
	tg "github.com/m3rciful/triplog/core/telegram"
	"github.com/m3rciful/triplog/core/telegram/callbacks"
	"github.com/m3rciful/triplog/core/telegram/commands"
	"github.com/m3rciful/triplog/core/telegram/format"
	tghelpers "github.com/m3rciful/triplog/core/telegram/helpers"
	"github.com/m3rciful/triplog/core/telegram/keyboard"
	"github.com/m3rciful/triplog/trip/engine"
	"github.com/m3rciful/triplog/trip/render"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques of inline buttons.
const (
	callbackAction = "act"
	callbackPick   = "pick"
)

const (
	labelShareLocation = "📍 Share location"
	choicesPerRow      = 2
	actionsPerRow      = 2

	textExpiredButton = "This button is no longer active."
	textSendText      = "Please send text or share your location."
	textRefreshed     = "Reference lists reloaded."
	textRefreshFailed = "Could not reload reference lists."
)

// Refresher reloads cached reference lists.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Telegram adapts chat updates to Dispatch calls.
type Telegram struct {
	dispatcher *Dispatcher
	refresher  Refresher
}

// NewTelegram returns the Telegram glue. refresher may be nil, which
// leaves out the /refresh command.
func NewTelegram(d *Dispatcher, refresher Refresher) *Telegram {
	return &Telegram{dispatcher: d, refresher: refresher}
}

// Register adds the chat commands and inline button callbacks to reg.
func (t *Telegram) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: t.guidance, Description: "What this bot does", Hidden: true})
	reg.RegisterCommand("/help", commands.Command{Handler: t.guidance, Description: "Show help"})
	reg.RegisterCommand("/new", commands.Command{Handler: t.action(engine.ActionNew), Description: "Record a new trip"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: t.action(engine.ActionCancel), Description: "Cancel the current entry"})
	reg.RegisterCommand("/report", commands.Command{Handler: t.action(engine.ActionReport), Description: "Daily report for a vehicle"})
	reg.RegisterCommand("/delete", commands.Command{Handler: t.action(engine.ActionDelete), Description: "Delete a record"})
	if t.refresher != nil {
		reg.RegisterCommand("/refresh", commands.Command{Handler: t.refresh, Description: "Reload vehicles and stores", AdminOnly: true})
	}

	if err := reg.RegisterCallback(callbackAction, t.onAction); err != nil {
		return err
	}
	if err := reg.RegisterCallback(callbackPick, t.onPick); err != nil {
		return err
	}
	reg.SetCallbackNotFound(t.UnknownCallback())
	return nil
}

// OnText handles free text. Navigation labels from the reply keyboard map
// to their actions.
func (t *Telegram) OnText(c tele.Context) error {
	text := c.Text()
	if a, ok := render.ActionForLabel(text); ok {
		return t.dispatch(c, engine.Act(a))
	}
	return t.dispatch(c, engine.Text(text))
}

// OnLocation handles a shared location.
func (t *Telegram) OnLocation(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil {
		return nil
	}
	return t.dispatch(c, engine.Location(float64(msg.Location.Lat), float64(msg.Location.Lng)))
}

func (t *Telegram) onAction(c tele.Context) error {
	a, ok := engine.ParseAction(callbacks.CallbackPayload(c))
	if !ok {
		return tghelpers.SendText(c, textExpiredButton)
	}
	clearInline(c)
	return t.dispatch(c, engine.Act(a))
}

func (t *Telegram) onPick(c tele.Context) error {
	value := callbacks.CallbackPayload(c)
	if value == "" {
		return tghelpers.SendText(c, textExpiredButton)
	}
	clearInline(c)
	return t.dispatch(c, engine.Text(value))
}

func (t *Telegram) action(a engine.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		return t.dispatch(c, engine.Act(a))
	}
}

func (t *Telegram) guidance(c tele.Context) error {
	return tghelpers.SendText(c, render.TextGuidance)
}

func (t *Telegram) refresh(c tele.Context) error {
	if err := t.refresher.Refresh(tghelpers.BuildContext(c)); err != nil {
		_ = tghelpers.SendText(c, textRefreshFailed)
		return err
	}
	return tghelpers.SendText(c, textRefreshed)
}

func (t *Telegram) dispatch(c tele.Context, in engine.Input) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return t.dispatcher.Dispatch(ctx, strconv.FormatInt(user.ID, 10), in, teleReplier{c: c})
}

// UnknownDocument answers files and media the conversation cannot take.
func (t *Telegram) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textSendText) }
}

// UnknownCallback answers presses on buttons from old builds.
func (t *Telegram) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, textExpiredButton) }
}

// clearInline removes the inline keyboard of the pressed message so the
// same answer cannot be sent twice.
func clearInline(c tele.Context) {
	if c.Callback() == nil || c.Callback().Message == nil {
		return
	}
	if _, err := c.Bot().EditReplyMarkup(c.Callback().Message, nil); err != nil {
		logger.Debug(tghelpers.BuildContext(c), logger.CompTG, "callback.clear_markup",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// teleReplier sends render messages through the current update's chat.
type teleReplier struct {
	c tele.Context
}

func (r teleReplier) Reply(_ context.Context, msg render.Message) error {
	kb := markup(msg)
	if msg.Card != nil {
		return tghelpers.SendMDV2(r.c, cardMarkdown(msg), kb)
	}
	return tghelpers.SendMarkup(r.c, msg.Text, kb)
}

// markup builds the keyboard for msg. Inline actions win over the reply
// keyboard because a message carries a single markup.
func markup(msg render.Message) *tele.ReplyMarkup {
	if len(msg.Actions) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(msg.Actions))
		for _, b := range msg.Actions {
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: callbackAction, Data: string(b.Action)})
		}
		return keyboard.InlineButtonsNPerRow(btns, actionsPerRow)
	}
	if msg.CloseKeyboard {
		return keyboard.RemoveKeyboard()
	}
	if labelledChoices(msg) {
		btns := make([]keyboard.InlineBtn, 0, len(msg.Choices))
		for _, ch := range msg.Choices {
			btns = append(btns, keyboard.InlineBtn{Text: ch.Label, Unique: callbackPick, Data: ch.Value})
		}
		return keyboard.InlineButtons(btns)
	}

	var rows [][]string
	labels := make([]string, 0, len(msg.Choices))
	for _, ch := range msg.Choices {
		labels = append(labels, ch.Label)
	}
	rows = append(rows, keyboard.Chunk(labels, choicesPerRow)...)
	if len(msg.Nav) > 0 {
		nav := make([]string, 0, len(msg.Nav))
		for _, b := range msg.Nav {
			nav = append(nav, b.Label)
		}
		rows = append(rows, nav)
	}
	location := ""
	if msg.RequestLocation {
		location = labelShareLocation
	}
	if len(rows) == 0 && location == "" {
		return nil
	}
	return keyboard.ReplyKeyboard(rows, location)
}

// labelledChoices reports whether a choice sends a value different from
// its label, which a reply keyboard cannot express.
func labelledChoices(msg render.Message) bool {
	for _, ch := range msg.Choices {
		if ch.Label != ch.Value {
			return true
		}
	}
	return false
}

// cardMarkdown formats a card message as MarkdownV2.
func cardMarkdown(msg render.Message) string {
	var b strings.Builder
	if msg.Text != "" {
		b.WriteString(format.V2(msg.Text))
		b.WriteString("\n\n")
	}
	card := msg.Card
	if card.Title != "" {
		b.WriteString(format.Bold(format.V2(card.Title)))
		b.WriteString("\n")
	}
	for _, row := range card.Rows {
		b.WriteString(format.V2(row.Label))
		b.WriteString(": ")
		b.WriteString(format.V2(row.Value))
		b.WriteString("\n")
	}
	if card.Footer != "" {
		b.WriteString("\n")
		b.WriteString(format.V2(card.Footer))
	}
	return strings.TrimRight(b.String(), "\n")
}
