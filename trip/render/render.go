// Package render turns engine outcomes into transport-agnostic messages.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/triplog/trip/engine"
	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/reference"
)

// Kind selects how a transport presents a message.
type Kind string

const (
	// KindText is plain text, optionally with navigation buttons.
	KindText Kind = "text"
	// KindChoices offers up to engine.MaxChoices quick replies.
	KindChoices Kind = "choices"
	// KindConfirm is a question answered with inline action buttons.
	KindConfirm Kind = "confirm"
	// KindCard is a structured summary, optionally with inline actions.
	KindCard Kind = "card"
)

// Button triggers an engine action.
type Button struct {
	Label  string
	Action engine.Action
}

// Row is one labelled line of a card.
type Row struct {
	Label string
	Value string
}

// Card is a titled list of rows.
type Card struct {
	Title  string
	Rows   []Row
	Footer string
}

// Message is what the transport sends for one outcome. Nav buttons travel
// with the reply keyboard; Actions are inline buttons for KindConfirm and
// KindCard.
type Message struct {
	Kind            Kind
	Text            string
	Choices         []reference.Choice
	Nav             []Button
	Actions         []Button
	Card            *Card
	RequestLocation bool
	// CloseKeyboard asks the transport to remove any reply keyboard.
	CloseKeyboard bool
}

// Navigation labels shown on the reply keyboard.
const (
	LabelBack    = "« Back"
	LabelSkip    = "Skip »"
	LabelArrived = "Arrived now"
	LabelCancel  = "Cancel"
)

var navActions = map[string]engine.Action{
	LabelBack:    engine.ActionBack,
	LabelSkip:    engine.ActionForward,
	LabelArrived: engine.ActionArrived,
	LabelCancel:  engine.ActionCancel,
}

// ActionForLabel maps a tapped navigation label back to its action.
func ActionForLabel(text string) (engine.Action, bool) {
	a, ok := navActions[strings.TrimSpace(text)]
	return a, ok
}

var prompts = map[flow.State]string{
	flow.StateDeparturePoint: "Enter the departure point.\nShare your location or type an address.",
	flow.StateStoreName:      "Enter the store name.",
	flow.StateViaPoint:       "Enter the via point.\nShare your location or type an address. Tap \"" + LabelSkip + "\" if there is none.",
	flow.StateArrivalTime:    "Tap \"" + LabelArrived + "\" or enter the arrival time.\n(format: yyyy/MM/dd HHmm)",
	flow.StateDestination:    "Enter the destination.\nShare your location or type an address.",
	flow.StateDistance:       "Enter the distance driven (numbers only).",
	flow.StateAmount:         "Enter the amount (numbers only).",
	flow.StateVehicleNumber:  "Choose or enter the vehicle number.",
	flow.StateNote:           "Enter a note. Tap \"" + LabelSkip + "\" to leave it empty.",
	flow.StateReportDate:     "Choose the date of the daily report.",
	flow.StateReportVehicle:  "Choose the vehicle number.",
	flow.StateDeleteDate:     "Choose the date of the record to delete.",
	flow.StateDeleteFilter:   "Narrow the list: enter an hour (HH) or a store name. Tap \"" + LabelSkip + "\" to list every record.",
	flow.StateDeleteRecord:   "Choose the record to delete, or type its number.",
}

var starts = map[flow.Workflow]string{
	flow.WorkflowEntry:  "Starting a new trip record.",
	flow.WorkflowReport: "Daily report.",
	flow.WorkflowDelete: "Delete a record.",
}

var fieldLabels = map[string]string{
	flow.FieldDepartureTime:  "Departure time",
	flow.FieldDeparturePoint: "Departure point",
	flow.FieldStoreName:      "Store",
	flow.FieldViaPoint:       "Via point",
	flow.FieldArrivalTime:    "Arrival time",
	flow.FieldDestination:    "Destination",
	flow.FieldDistance:       "Distance",
	flow.FieldAmount:         "Amount",
	flow.FieldVehicleNumber:  "Vehicle",
	flow.FieldNote:           "Note",
}

// FieldLabel returns the display name of a draft field.
func FieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// Fixed replies.
const (
	TextRetryLater = "Something went wrong while saving. Please try again later."
	TextGuidance   = "Send \"new\" or /new to record a trip. /report shows a day, /delete removes a record."
	textRestart    = "Something went wrong. Please start again with /new."
	textCancelled  = "Cancelled."
	textReset      = "Your previous input was discarded."
	textAbandoned  = "New record cancelled."
	textNoRecords  = "No records for this day."
)

var notices = map[engine.Notice]string{
	engine.NoticeInvalidFormat:       "The input format is not valid. Please try again.",
	engine.NoticeCannotSkip:          "This item cannot be skipped.",
	engine.NoticeLocationNotAccepted: "A location cannot be used for this item.",
	engine.NoticeArrivedOnly:         "This action is only available when entering the arrival time.",
	engine.NoticeUnavailable:         "This action is not available right now.",
	engine.NoticeUseButtons:          "Please use the buttons below the summary.",
	engine.NoticeNoRecords:           "No records match. Try another hour or store name.",
}

// Render describes out as a message.
func Render(out engine.Outcome) Message {
	switch out.Kind {
	case engine.OutcomePrompt:
		return prompt(out, startText(out))
	case engine.OutcomeConfirm:
		return confirmCard(out.Draft, "")
	case engine.OutcomeRejected:
		return rejected(out)
	case engine.OutcomeSaved:
		text := "Trip saved."
		if out.Record != nil && out.Record.No > 0 {
			text = fmt.Sprintf("Trip saved as #%d.", out.Record.No)
		}
		return closing(text)
	case engine.OutcomeCancelled:
		return closing(textCancelled)
	case engine.OutcomeReset:
		return closing(textReset)
	case engine.OutcomeAbandoned:
		return closing(textAbandoned)
	case engine.OutcomeGuidance:
		return closing(TextGuidance)
	case engine.OutcomeRestart:
		return closing(textRestart)
	case engine.OutcomeTimeout:
		return Message{
			Kind: KindConfirm,
			Text: fmt.Sprintf("An unfinished entry is waiting (%s).\nContinue where you left off?", stepLabel(out.State)),
			Actions: []Button{
				{Label: "Continue", Action: engine.ActionTimeoutContinue},
				{Label: "Start over", Action: engine.ActionTimeoutReset},
			},
		}
	case engine.OutcomeReport:
		return report(out)
	case engine.OutcomeDeleteConfirm:
		return deleteCard(out.Record, "")
	case engine.OutcomeDeleted:
		if out.Record != nil {
			return closing(fmt.Sprintf("Record #%d deleted.", out.Record.No))
		}
		return closing("Record deleted.")
	default:
		return closing(textRestart)
	}
}

func startText(out engine.Outcome) string {
	if out.Notice != engine.NoticeStarted {
		return ""
	}
	return starts[flow.WorkflowOf(out.State)]
}

// prompt asks for the field of out.State, keeping the keyboard of that node.
func prompt(out engine.Outcome, lead string) Message {
	text := prompts[out.State]
	if lead != "" {
		text = lead + "\n\n" + text
	}
	msg := Message{Kind: KindText, Text: text, Choices: out.Choices}
	if len(out.Choices) > 0 {
		msg.Kind = KindChoices
	}
	if g := flow.GraphOf(out.State); g != nil {
		if node, ok := g.Node(out.State); ok {
			msg.Nav = nav(node)
			msg.RequestLocation = node.Input.AcceptsLocation()
		}
	}
	return msg
}

func nav(node flow.Node) []Button {
	var out []Button
	out = append(out, Button{Label: LabelBack, Action: engine.ActionBack})
	if node.Arrival {
		out = append(out, Button{Label: LabelArrived, Action: engine.ActionArrived})
	}
	if node.Skippable {
		out = append(out, Button{Label: LabelSkip, Action: engine.ActionForward})
	}
	return append(out, Button{Label: LabelCancel, Action: engine.ActionCancel})
}

func rejected(out engine.Outcome) Message {
	notice := notices[out.Notice]
	if out.Notice == engine.NoticeMissingField {
		notice = fmt.Sprintf("The required item %q is missing.", FieldLabel(out.Field))
	}
	switch out.State {
	case flow.StateConfirm:
		return confirmCard(out.Draft, notice)
	case flow.StateDeleteConfirm:
		return deleteCard(out.Record, notice)
	}
	msg := prompt(out, "")
	msg.Text = notice
	return msg
}

func confirmCard(draft map[string]string, lead string) Message {
	card := &Card{Title: "Please confirm the trip"}
	for _, f := range []string{
		flow.FieldDepartureTime, flow.FieldDeparturePoint, flow.FieldStoreName, flow.FieldViaPoint,
		flow.FieldArrivalTime, flow.FieldDestination, flow.FieldDistance, flow.FieldAmount,
		flow.FieldVehicleNumber, flow.FieldNote,
	} {
		card.Rows = append(card.Rows, Row{Label: FieldLabel(f), Value: orDash(draft[f])})
	}
	return Message{
		Kind:          KindCard,
		Text:          lead,
		Card:          card,
		CloseKeyboard: true,
		Actions: []Button{
			{Label: "Save", Action: engine.ActionConfirm},
			{Label: "Modify", Action: engine.ActionModify},
		},
	}
}

func deleteCard(r *record.Record, lead string) Message {
	if r == nil {
		return Message{
			Kind:    KindConfirm,
			Text:    "That record no longer exists.",
			Actions: []Button{{Label: LabelCancel, Action: engine.ActionDeleteCancel}},
		}
	}
	card := &Card{Title: fmt.Sprintf("Delete record #%d?", r.No), Rows: recordRows(*r)}
	return Message{
		Kind:          KindCard,
		Text:          lead,
		Card:          card,
		CloseKeyboard: true,
		Actions: []Button{
			{Label: "Delete", Action: engine.ActionDeleteExecute},
			{Label: LabelCancel, Action: engine.ActionDeleteCancel},
		},
	}
}

func recordRows(r record.Record) []Row {
	return []Row{
		{Label: FieldLabel(flow.FieldDepartureTime), Value: orDash(r.DepartureTime)},
		{Label: FieldLabel(flow.FieldDeparturePoint), Value: orDash(r.DeparturePoint)},
		{Label: FieldLabel(flow.FieldStoreName), Value: orDash(r.StoreName)},
		{Label: FieldLabel(flow.FieldViaPoint), Value: orDash(r.ViaPoint)},
		{Label: FieldLabel(flow.FieldArrivalTime), Value: orDash(r.ArrivalTime)},
		{Label: FieldLabel(flow.FieldDestination), Value: orDash(r.Destination)},
		{Label: FieldLabel(flow.FieldDistance), Value: orDash(r.Distance)},
		{Label: FieldLabel(flow.FieldAmount), Value: orDash(r.Amount)},
		{Label: FieldLabel(flow.FieldVehicleNumber), Value: orDash(r.VehicleNumber)},
		{Label: FieldLabel(flow.FieldNote), Value: orDash(r.Note)},
	}
}

func report(out engine.Outcome) Message {
	if len(out.Records) == 0 {
		return closing(textNoRecords)
	}
	card := &Card{Title: fmt.Sprintf("Daily report %s %s",
		out.Draft[flow.FieldReportDate], out.Draft[flow.FieldVehicleNumber])}
	var distance, amount float64
	for _, r := range out.Records {
		card.Rows = append(card.Rows, Row{
			Label: fmt.Sprintf("#%d %s", r.No, clock(r.DepartureTime)),
			Value: fmt.Sprintf("%s -> %s, %s km, %s", orDash(r.StoreName), orDash(r.Destination), orDash(r.Distance), orDash(r.Amount)),
		})
		distance += number(r.Distance)
		amount += number(r.Amount)
	}
	card.Footer = fmt.Sprintf("%d trips, %s km, total %s",
		len(out.Records), strconv.FormatFloat(distance, 'f', -1, 64), strconv.FormatFloat(amount, 'f', -1, 64))
	return Message{Kind: KindCard, Card: card, CloseKeyboard: true}
}

func closing(text string) Message {
	return Message{Kind: KindText, Text: text, CloseKeyboard: true}
}

// stepLabel names the field a state collects, for the timeout question.
func stepLabel(s flow.State) string {
	if g := flow.GraphOf(s); g != nil {
		if n, ok := g.Node(s); ok && n.Field != "" {
			return FieldLabel(n.Field)
		}
	}
	if s == flow.StateConfirm {
		return "confirmation"
	}
	return string(s)
}

func clock(ts string) string {
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		return ts[i+1:]
	}
	return ts
}

func number(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
