package engine

import "strings"

// Action is a named button or command.
type Action string

const (
	ActionNew             Action = "new"
	ActionCancel          Action = "cancel"
	ActionBack            Action = "back"
	ActionForward         Action = "forward"
	ActionArrived         Action = "arrived"
	ActionConfirm         Action = "confirm"
	ActionModify          Action = "modify"
	ActionTimeoutContinue Action = "timeout_continue"
	ActionTimeoutReset    Action = "timeout_reset"
	ActionReport          Action = "report"
	ActionDelete          Action = "delete"
	ActionDeleteExecute   Action = "delete_execute"
	ActionDeleteCancel    Action = "delete_cancel"
)

var actions = map[Action]struct{}{
	ActionNew: {}, ActionCancel: {}, ActionBack: {}, ActionForward: {},
	ActionArrived: {}, ActionConfirm: {}, ActionModify: {},
	ActionTimeoutContinue: {}, ActionTimeoutReset: {},
	ActionReport: {}, ActionDelete: {}, ActionDeleteExecute: {}, ActionDeleteCancel: {},
}

// ParseAction recognizes an action token.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	_, ok := actions[a]
	return a, ok
}

// keywords are typed words treated as actions in every state.
var keywords = map[string]Action{
	"new":    ActionNew,
	"新規":     ActionNew,
	"新規登録":   ActionNew,
	"cancel": ActionCancel,
	"取消":     ActionCancel,
	"キャンセル":  ActionCancel,
}

func keyword(text string) (Action, bool) {
	a, ok := keywords[strings.ToLower(strings.TrimSpace(text))]
	return a, ok
}

// InputKind tells which Input fields are set.
type InputKind int

const (
	InputText InputKind = iota
	InputAction
	InputLocation
)

func (k InputKind) String() string {
	switch k {
	case InputAction:
		return "action"
	case InputLocation:
		return "location"
	default:
		return "text"
	}
}

// Input is one inbound user event.
type Input struct {
	Kind   InputKind
	Text   string
	Action Action
	Lat    float64
	Lon    float64
}

// Text wraps typed text.
func Text(s string) Input { return Input{Kind: InputText, Text: s} }

// Act wraps a button action.
func Act(a Action) Input { return Input{Kind: InputAction, Action: a} }

// Location wraps a shared location.
func Location(lat, lon float64) Input { return Input{Kind: InputLocation, Lat: lat, Lon: lon} }
