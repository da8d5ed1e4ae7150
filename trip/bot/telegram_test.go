package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/triplog/trip/engine"
	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/reference"
	"github.com/m3rciful/triplog/trip/render"
)

func TestMarkupPromptWithChoicesAndLocation(t *testing.T) {
	msg := render.Message{
		Kind:            render.KindChoices,
		Choices:         []reference.Choice{{Label: "Ginza", Value: "Ginza"}, {Label: "Ueno", Value: "Ueno"}, {Label: "Oji", Value: "Oji"}},
		Nav:             []render.Button{{Label: render.LabelBack, Action: engine.ActionBack}, {Label: render.LabelCancel, Action: engine.ActionCancel}},
		RequestLocation: true,
	}
	kb := markup(msg)
	require.NotNil(t, kb)
	require.Len(t, kb.ReplyKeyboard, 4)
	assert.Equal(t, "Ginza", kb.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Oji", kb.ReplyKeyboard[1][0].Text)
	assert.Equal(t, render.LabelBack, kb.ReplyKeyboard[2][0].Text)
	assert.True(t, kb.ReplyKeyboard[3][0].Location)
	assert.Empty(t, kb.InlineKeyboard)
}

func TestMarkupActionsAreInline(t *testing.T) {
	msg := render.Render(engine.Outcome{Kind: engine.OutcomeTimeout, State: flow.StateStoreName})
	kb := markup(msg)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "\f"+callbackAction+"|"+string(engine.ActionTimeoutContinue), kb.InlineKeyboard[0][0].Data)
	assert.Empty(t, kb.ReplyKeyboard)
}

func TestMarkupLabelledChoicesAreInline(t *testing.T) {
	msg := render.Message{
		Kind:    render.KindChoices,
		Choices: []reference.Choice{{Label: "#3 2025/01/02 21:00 Ginza", Value: "3"}},
	}
	kb := markup(msg)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "\f"+callbackPick+"|3", kb.InlineKeyboard[0][0].Data)
}

func TestMarkupClosing(t *testing.T) {
	kb := markup(render.Render(engine.Outcome{Kind: engine.OutcomeCancelled}))
	require.NotNil(t, kb)
	assert.True(t, kb.RemoveKeyboard)

	assert.Nil(t, markup(render.Message{Kind: render.KindText, Text: "hi"}))
}

func TestCardMarkdownEscapes(t *testing.T) {
	msg := render.Render(engine.Outcome{
		Kind:  engine.OutcomeReport,
		Draft: map[string]string{flow.FieldReportDate: "2025/01/02", flow.FieldVehicleNumber: "A-1"},
		Records: []record.Record{{
			No: 1, DepartureTime: "2025/01/02 21:00", StoreName: "Ginza", Destination: "Home",
			Distance: "12.5", Amount: "3000", VehicleNumber: "A-1",
		}},
	})
	require.NotNil(t, msg.Card)
	text := cardMarkdown(msg)
	assert.Contains(t, text, `*Daily report 2025/01/02 A\-1*`)
	assert.Contains(t, text, `12\.5`)
	assert.NotContains(t, text, "A-1")
}
