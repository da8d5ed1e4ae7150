package engine

import (
	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/reference"
	"github.com/m3rciful/triplog/trip/session"
)

// MaxChoices bounds every offered choice list.
const MaxChoices = 4

// OutcomeKind tells the renderer what happened.
type OutcomeKind string

const (
	// OutcomePrompt asks for the field of Outcome.State.
	OutcomePrompt OutcomeKind = "prompt"
	// OutcomeConfirm shows the draft card with confirm/modify buttons.
	OutcomeConfirm OutcomeKind = "confirm"
	// OutcomeRejected keeps the state and explains why in Notice.
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeSaved     OutcomeKind = "saved"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeReset     OutcomeKind = "reset"
	OutcomeAbandoned OutcomeKind = "abandoned"
	// OutcomeTimeout offers resume or reset for a stale entry.
	OutcomeTimeout  OutcomeKind = "timeout"
	OutcomeGuidance OutcomeKind = "guidance"
	// OutcomeRestart follows a session found in an unknown state.
	OutcomeRestart       OutcomeKind = "restart"
	OutcomeReport        OutcomeKind = "report"
	OutcomeDeleteConfirm OutcomeKind = "delete_confirm"
	OutcomeDeleted       OutcomeKind = "deleted"
)

// Notice qualifies an outcome.
type Notice string

const (
	NoticeNone                Notice = ""
	NoticeStarted             Notice = "started"
	NoticeInvalidFormat       Notice = "invalid_format"
	NoticeCannotSkip          Notice = "cannot_skip"
	NoticeLocationNotAccepted Notice = "location_not_accepted"
	NoticeArrivedOnly         Notice = "arrived_only"
	NoticeUnavailable         Notice = "unavailable"
	NoticeMissingField        Notice = "missing_field"
	NoticeUseButtons          Notice = "use_buttons"
	NoticeNoRecords           Notice = "no_records"
)

// Outcome is the transport-agnostic result of one input.
type Outcome struct {
	Kind   OutcomeKind
	Notice Notice
	// State is the state the user is in after the input.
	State flow.State
	// Field names the missing field for NoticeMissingField.
	Field   string
	Draft   map[string]string
	Choices []reference.Choice
	Records []record.Record
	Record  *record.Record
}

// EffectKind names a side effect the dispatcher must apply before saving.
type EffectKind int

const (
	EffectAppend EffectKind = iota + 1
	EffectDelete
)

// Effect is a record store mutation.
type Effect struct {
	Kind   EffectKind
	Record record.Record
	No     int64
}

// Result is the outcome of Handle. Save is false when the session must not
// be written back, which keeps UpdatedAt at the last successful transition.
type Result struct {
	Session *session.Session
	Outcome Outcome
	Save    bool
	Effects []Effect
}
