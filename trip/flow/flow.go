// Package flow declares the conversation states and the ordered graphs that
// connect them. Every ordering, field mapping and skip rule lives in the node
// tables below; nothing else in the bot hard-codes a transition.
package flow

// State identifies a position in a workflow.
type State string

// StateIdle means no workflow is active for the user.
const StateIdle State = "idle"

// Entry workflow states, in order.
const (
	StateDeparturePoint State = "new.departure_point"
	StateStoreName      State = "new.store_name"
	StateViaPoint       State = "new.via_point"
	StateArrivalTime    State = "new.arrival_time"
	StateDestination    State = "new.destination"
	StateDistance       State = "new.distance"
	StateAmount         State = "new.amount"
	StateVehicleNumber  State = "new.vehicle_number"
	StateNote           State = "new.note"
	StateConfirm        State = "new.confirm"
)

// Report workflow states.
const (
	StateReportDate    State = "report.date"
	StateReportVehicle State = "report.vehicle"
)

// Delete workflow states.
const (
	StateDeleteDate    State = "delete.date"
	StateDeleteFilter  State = "delete.filter"
	StateDeleteRecord  State = "delete.record"
	StateDeleteConfirm State = "delete.confirm"
)

// Draft field names.
const (
	FieldDepartureTime  = "departure_time"
	FieldDeparturePoint = "departure_point"
	FieldStoreName      = "store_name"
	FieldViaPoint       = "via_point"
	FieldArrivalTime    = "arrival_time"
	FieldDestination    = "destination"
	FieldDistance       = "distance"
	FieldAmount         = "amount"
	FieldVehicleNumber  = "vehicle_number"
	FieldNote           = "note"

	FieldReportDate   = "report_date"
	FieldDeleteDate   = "delete_date"
	FieldDeleteFilter = "delete_filter"
	// FieldDeleteFilterKind records whether delete_filter is an hour or a
	// store name. It is set together with delete_filter.
	FieldDeleteFilterKind = "delete_filter_kind"
	FieldDeleteRecord     = "delete_record"
)

// RequiredFields must all be present in the draft before a record is finalized.
var RequiredFields = []string{
	FieldStoreName,
	FieldArrivalTime,
	FieldDestination,
	FieldDistance,
	FieldAmount,
	FieldVehicleNumber,
}

// Input describes what a node accepts.
type Input int

const (
	// InputText accepts any non-empty text.
	InputText Input = iota
	// InputTextOrLocation accepts text or a shared location.
	InputTextOrLocation
	// InputNumber accepts an unsigned integer or decimal.
	InputNumber
	// InputDateTime accepts "YYYY/M/D HMM" or a bare date.
	InputDateTime
	// InputDate accepts a bare "YYYY/M/D" date.
	InputDate
	// InputHourOrText accepts an hour of day or a free-text filter.
	InputHourOrText
	// InputActionOnly accepts button actions only.
	InputActionOnly
)

// AcceptsLocation reports whether a geolocation may stand in for text.
func (i Input) AcceptsLocation() bool {
	return i == InputTextOrLocation
}

// Choices names the list a prompt offers as buttons.
type Choices int

const (
	ChoicesNone Choices = iota
	ChoicesStores
	ChoicesVehicles
	ChoicesDates
	ChoicesRecords
)

// Node is one step of a workflow.
type Node struct {
	State     State
	Field     string
	Input     Input
	Skippable bool
	Choices   Choices
	// Arrival marks the node that accepts the "arrived" action.
	Arrival bool
}

// Entry is the record entry workflow.
var Entry = NewGraph(
	Node{State: StateDeparturePoint, Field: FieldDeparturePoint, Input: InputTextOrLocation},
	Node{State: StateStoreName, Field: FieldStoreName, Input: InputText, Choices: ChoicesStores},
	Node{State: StateViaPoint, Field: FieldViaPoint, Input: InputTextOrLocation, Skippable: true},
	Node{State: StateArrivalTime, Field: FieldArrivalTime, Input: InputDateTime, Arrival: true},
	Node{State: StateDestination, Field: FieldDestination, Input: InputTextOrLocation},
	Node{State: StateDistance, Field: FieldDistance, Input: InputNumber},
	Node{State: StateAmount, Field: FieldAmount, Input: InputNumber},
	Node{State: StateVehicleNumber, Field: FieldVehicleNumber, Input: InputText, Choices: ChoicesVehicles},
	Node{State: StateNote, Field: FieldNote, Input: InputText, Skippable: true},
	Node{State: StateConfirm, Input: InputActionOnly},
)

// Report is the daily report workflow.
var Report = NewGraph(
	Node{State: StateReportDate, Field: FieldReportDate, Input: InputDate, Choices: ChoicesDates},
	Node{State: StateReportVehicle, Input: InputText, Choices: ChoicesVehicles},
)

// Delete is the record deletion workflow.
var Delete = NewGraph(
	Node{State: StateDeleteDate, Field: FieldDeleteDate, Input: InputDate, Choices: ChoicesDates},
	Node{State: StateDeleteFilter, Field: FieldDeleteFilter, Input: InputHourOrText, Skippable: true},
	Node{State: StateDeleteRecord, Field: FieldDeleteRecord, Input: InputNumber, Choices: ChoicesRecords},
	Node{State: StateDeleteConfirm, Input: InputActionOnly},
)

// Workflow classifies a state.
type Workflow int

const (
	WorkflowNone Workflow = iota
	WorkflowEntry
	WorkflowReport
	WorkflowDelete
)

func (w Workflow) String() string {
	switch w {
	case WorkflowEntry:
		return "entry"
	case WorkflowReport:
		return "report"
	case WorkflowDelete:
		return "delete"
	default:
		return "none"
	}
}

// WorkflowOf returns the workflow a state belongs to.
func WorkflowOf(s State) Workflow {
	switch {
	case Entry.Contains(s):
		return WorkflowEntry
	case Report.Contains(s):
		return WorkflowReport
	case Delete.Contains(s):
		return WorkflowDelete
	default:
		return WorkflowNone
	}
}

// GraphOf returns the graph owning s, or nil for idle and unknown states.
func GraphOf(s State) *Graph {
	switch WorkflowOf(s) {
	case WorkflowEntry:
		return Entry
	case WorkflowReport:
		return Report
	case WorkflowDelete:
		return Delete
	default:
		return nil
	}
}

// Known reports whether s is idle or belongs to a workflow.
func Known(s State) bool {
	return s == StateIdle || WorkflowOf(s) != WorkflowNone
}
