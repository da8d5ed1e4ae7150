// Package engine decides how a session reacts to one inbound event. It never
// touches the session store or the chat transport: it returns the new
// session, an outcome for the renderer and the record mutations to apply.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/triplog/core/logger"
	"github.com/m3rciful/triplog/trip/flow"
	"github.com/m3rciful/triplog/trip/geocode"
	"github.com/m3rciful/triplog/trip/record"
	"github.com/m3rciful/triplog/trip/reference"
	"github.com/m3rciful/triplog/trip/session"
	"github.com/m3rciful/triplog/trip/validate"
)

// Handler processes one input for a session.
type Handler interface {
	Handle(ctx context.Context, s *session.Session, in Input) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s *session.Session, in Input) (Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, s *session.Session, in Input) (Result, error) {
	return f(ctx, s, in)
}

// Searcher finds stored records for the report and delete workflows.
type Searcher interface {
	Search(ctx context.Context, q record.Query) ([]record.Record, error)
}

// Deps are the read-only collaborators of the engine.
type Deps struct {
	Reference reference.Source
	Records   Searcher
	// Geocoder may be nil; locations are then stored as coordinates.
	Geocoder geocode.Reverser
	Now      func() time.Time
}

// Engine is the conversation state machine.
type Engine struct {
	ref      reference.Source
	records  Searcher
	geocoder geocode.Reverser
	now      func() time.Time
}

// New builds an engine.
func New(d Deps) *Engine {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{ref: d.Reference, records: d.Records, geocoder: d.Geocoder, now: now}
}

// Handle applies in to a copy of s. The input session is never modified.
func (e *Engine) Handle(ctx context.Context, s *session.Session, in Input) (Result, error) {
	s = s.Clone()
	if in.Kind == InputText {
		if a, ok := keyword(in.Text); ok {
			in = Act(a)
		}
	}

	from := s.State
	res, err := e.dispatch(ctx, s, in)
	if err != nil {
		return Result{}, err
	}
	logger.Debug(ctx, logger.CompEngine, "engine.handle",
		slog.String("input", in.Kind.String()),
		slog.String("action", string(in.Action)),
		slog.String("state", string(from)),
		slog.String("next_state", string(res.Session.State)),
		slog.String("outcome", string(res.Outcome.Kind)),
	)
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, s *session.Session, in Input) (Result, error) {
	if in.Kind == InputAction {
		switch in.Action {
		case ActionNew:
			return e.start(ctx, s, flow.Entry, map[string]string{
				flow.FieldDepartureTime: e.now().Format(reference.TimeLayout),
			})
		case ActionReport:
			return e.start(ctx, s, flow.Report, nil)
		case ActionDelete:
			return e.start(ctx, s, flow.Delete, nil)
		case ActionCancel, ActionDeleteCancel:
			s.Reset()
			return saved(s, Outcome{Kind: OutcomeCancelled, State: s.State}), nil
		case ActionTimeoutReset:
			s.Reset()
			return saved(s, Outcome{Kind: OutcomeReset, State: s.State}), nil
		}
	}

	if !flow.Known(s.State) {
		logger.Warn(ctx, logger.CompEngine, "engine.unknown_state",
			slog.String("state", string(s.State)),
		)
		s.Reset()
		return saved(s, Outcome{Kind: OutcomeRestart, State: s.State}), nil
	}
	if s.Idle() {
		return kept(s, Outcome{Kind: OutcomeGuidance, State: s.State}), nil
	}

	g := flow.GraphOf(s.State)
	node, _ := g.Node(s.State)
	switch in.Kind {
	case InputAction:
		return e.action(ctx, s, g, node, in.Action)
	case InputLocation:
		return e.location(ctx, s, g, node, in.Lat, in.Lon)
	default:
		return e.text(ctx, s, g, node, in.Text)
	}
}

func (e *Engine) start(ctx context.Context, s *session.Session, g *flow.Graph, draft map[string]string) (Result, error) {
	s.State = g.First()
	s.Draft = map[string]string{}
	maps.Copy(s.Draft, draft)
	out, err := e.enter(ctx, s)
	if err != nil {
		return Result{}, err
	}
	out.Notice = NoticeStarted
	return saved(s, out), nil
}

func (e *Engine) action(ctx context.Context, s *session.Session, g *flow.Graph, node flow.Node, a Action) (Result, error) {
	switch a {
	case ActionBack:
		return e.back(ctx, s, g)
	case ActionForward:
		if !node.Skippable {
			return e.reject(ctx, s, NoticeCannotSkip)
		}
		return e.advance(ctx, s, g, node, "")
	case ActionArrived:
		if !node.Arrival {
			return e.reject(ctx, s, NoticeArrivedOnly)
		}
		return e.advance(ctx, s, g, node, e.now().Format(reference.TimeLayout))
	case ActionConfirm:
		if s.State != flow.StateConfirm {
			return e.reject(ctx, s, NoticeUnavailable)
		}
		return e.finalize(s)
	case ActionModify:
		if s.State != flow.StateConfirm {
			return e.reject(ctx, s, NoticeUnavailable)
		}
		s.State = flow.StateNote
		return e.prompt(ctx, s)
	case ActionTimeoutContinue:
		return e.prompt(ctx, s)
	case ActionDeleteExecute:
		if s.State != flow.StateDeleteConfirm {
			return e.reject(ctx, s, NoticeUnavailable)
		}
		no, err := strconv.ParseInt(s.Draft[flow.FieldDeleteRecord], 10, 64)
		if err != nil {
			s.Reset()
			return saved(s, Outcome{Kind: OutcomeRestart, State: s.State}), nil
		}
		s.Reset()
		res := saved(s, Outcome{Kind: OutcomeDeleted, State: s.State, Record: &record.Record{No: no}})
		res.Effects = []Effect{{Kind: EffectDelete, No: no}}
		return res, nil
	default:
		return e.reject(ctx, s, NoticeUnavailable)
	}
}

// back returns to the previous node and forgets the value collected there.
func (e *Engine) back(ctx context.Context, s *session.Session, g *flow.Graph) (Result, error) {
	prev := g.Previous(s.State)
	if prev == flow.StateIdle {
		s.Reset()
		return saved(s, Outcome{Kind: OutcomeAbandoned, State: s.State}), nil
	}
	if n, ok := g.Node(prev); ok && n.Field != "" {
		delete(s.Draft, n.Field)
	}
	if prev == flow.StateDeleteFilter {
		clearFilter(s.Draft)
	}
	s.State = prev
	return e.prompt(ctx, s)
}

func (e *Engine) location(ctx context.Context, s *session.Session, g *flow.Graph, node flow.Node, lat, lon float64) (Result, error) {
	if !node.Input.AcceptsLocation() {
		return e.reject(ctx, s, NoticeLocationNotAccepted)
	}
	addr := geocode.Coordinates(lat, lon)
	if e.geocoder != nil {
		if resolved, err := e.geocoder.Reverse(ctx, lat, lon); err == nil {
			addr = resolved
		}
	}
	return e.advance(ctx, s, g, node, addr)
}

func (e *Engine) text(ctx context.Context, s *session.Session, g *flow.Graph, node flow.Node, text string) (Result, error) {
	if node.Input == flow.InputActionOnly {
		return e.reject(ctx, s, NoticeUseButtons)
	}
	value, ok := accept(node.Input, text)
	if !ok {
		return e.reject(ctx, s, NoticeInvalidFormat)
	}

	switch s.State {
	case flow.StateReportVehicle:
		return e.report(ctx, s, value)
	case flow.StateDeleteFilter:
		value, kind := e.deleteFilter(ctx, text)
		s.Draft[flow.FieldDeleteFilterKind] = kind
		return e.advance(ctx, s, g, node, value)
	case flow.StateDeleteRecord:
		candidates, err := e.candidates(ctx, s.Draft)
		if err != nil {
			return Result{}, err
		}
		if findRecord(candidates, value) == nil {
			return e.reject(ctx, s, NoticeInvalidFormat)
		}
	}
	return e.advance(ctx, s, g, node, value)
}

// accept validates and normalizes text for an input kind.
func accept(kind flow.Input, text string) (string, bool) {
	v := strings.TrimSpace(text)
	switch kind {
	case flow.InputNumber:
		if !validate.Number(v) {
			return "", false
		}
		return validate.NormalizeDigits(v), true
	case flow.InputDateTime:
		switch {
		case validate.DateTime(v, true):
			return validate.NormalizeDateTime(v), true
		case validate.DateTime(v, false):
			return validate.NormalizeDate(v), true
		}
		return "", false
	case flow.InputDate:
		if !validate.Date(v) {
			return "", false
		}
		return validate.NormalizeDate(v), true
	case flow.InputHourOrText:
		if h, ok := validate.Hour(v); ok {
			return fmt.Sprintf("%02d", h), true
		}
		return v, v != ""
	default:
		return v, v != ""
	}
}

// advance stores value for the current node and moves to the next one.
func (e *Engine) advance(ctx context.Context, s *session.Session, g *flow.Graph, node flow.Node, value string) (Result, error) {
	if node.Field != "" {
		s.Draft[node.Field] = value
	}
	if s.State == flow.StateDeleteFilter {
		return e.advanceToRecords(ctx, s, g)
	}
	s.State = g.Next(s.State)
	return e.prompt(ctx, s)
}

func (e *Engine) advanceToRecords(ctx context.Context, s *session.Session, g *flow.Graph) (Result, error) {
	candidates, err := e.candidates(ctx, s.Draft)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		clearFilter(s.Draft)
		return e.reject(ctx, s, NoticeNoRecords)
	}
	s.State = g.Next(s.State)
	return e.prompt(ctx, s)
}

func (e *Engine) finalize(s *session.Session) (Result, error) {
	for _, f := range flow.RequiredFields {
		if s.Draft[f] == "" {
			return kept(s, Outcome{
				Kind:   OutcomeRejected,
				Notice: NoticeMissingField,
				State:  s.State,
				Field:  f,
				Draft:  maps.Clone(s.Draft),
			}), nil
		}
	}
	rec := record.FromDraft(s.Draft)
	s.Reset()
	res := saved(s, Outcome{Kind: OutcomeSaved, State: s.State, Record: &rec})
	res.Effects = []Effect{{Kind: EffectAppend, Record: rec}}
	return res, nil
}

func (e *Engine) report(ctx context.Context, s *session.Session, vehicle string) (Result, error) {
	from, to, err := e.bounds(ctx, s.Draft[flow.FieldReportDate])
	if err != nil {
		return e.reject(ctx, s, NoticeInvalidFormat)
	}
	recs, err := e.search(ctx, record.Query{From: from, To: to, Vehicle: vehicle})
	if err != nil {
		return Result{}, err
	}
	draft := maps.Clone(s.Draft)
	draft[flow.FieldVehicleNumber] = vehicle
	s.Reset()
	return saved(s, Outcome{Kind: OutcomeReport, State: s.State, Draft: draft, Records: recs}), nil
}

// prompt saves the session at its current state and describes that state.
func (e *Engine) prompt(ctx context.Context, s *session.Session) (Result, error) {
	out, err := e.enter(ctx, s)
	if err != nil {
		return Result{}, err
	}
	return saved(s, out), nil
}

// reject leaves the session untouched and repeats the current choices.
func (e *Engine) reject(ctx context.Context, s *session.Session, n Notice) (Result, error) {
	out, err := e.enter(ctx, s)
	if err != nil {
		return Result{}, err
	}
	out.Kind = OutcomeRejected
	out.Notice = n
	return kept(s, out), nil
}

// enter describes the state s is in.
func (e *Engine) enter(ctx context.Context, s *session.Session) (Outcome, error) {
	out := Outcome{Kind: OutcomePrompt, State: s.State}
	switch s.State {
	case flow.StateConfirm:
		out.Kind = OutcomeConfirm
		out.Draft = maps.Clone(s.Draft)
		return out, nil
	case flow.StateDeleteConfirm:
		candidates, err := e.candidates(ctx, s.Draft)
		if err != nil {
			return Outcome{}, err
		}
		out.Kind = OutcomeDeleteConfirm
		out.Record = findRecord(candidates, s.Draft[flow.FieldDeleteRecord])
		return out, nil
	}

	node, ok := flow.GraphOf(s.State).Node(s.State)
	if !ok {
		return out, nil
	}
	switch node.Choices {
	case flow.ChoicesStores:
		if e.ref != nil {
			stores, err := e.ref.Stores(ctx)
			if err != nil {
				logger.Warn(ctx, logger.CompEngine, "choices.stores",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			out.Choices = limit(reference.StoreChoices(stores))
		}
	case flow.ChoicesVehicles:
		if e.ref != nil {
			vehicles, err := e.ref.Vehicles(ctx)
			if err != nil {
				logger.Warn(ctx, logger.CompEngine, "choices.vehicles",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			out.Choices = limit(reference.VehicleChoices(vehicles))
		}
	case flow.ChoicesDates:
		out.Choices = e.dateChoices()
	case flow.ChoicesRecords:
		candidates, err := e.candidates(ctx, s.Draft)
		if err != nil {
			return Outcome{}, err
		}
		out.Records = candidates
		for _, r := range candidates {
			out.Choices = append(out.Choices, reference.Choice{Label: r.Summary(), Value: strconv.FormatInt(r.No, 10)})
		}
		out.Choices = limit(out.Choices)
	}
	return out, nil
}

// dateChoices offers today and the three days before it.
func (e *Engine) dateChoices() []reference.Choice {
	now := e.now()
	out := make([]reference.Choice, 0, MaxChoices)
	for i := 0; i < MaxChoices; i++ {
		d := now.AddDate(0, 0, -i).Format("2006/01/02")
		out = append(out, reference.Choice{Label: d, Value: d})
	}
	return out
}

// candidates lists the records the delete workflow may remove.
func (e *Engine) candidates(ctx context.Context, draft map[string]string) ([]record.Record, error) {
	from, to, err := e.bounds(ctx, draft[flow.FieldDeleteDate])
	if err != nil {
		return nil, nil
	}
	q := record.Query{From: from, To: to}
	if f := draft[flow.FieldDeleteFilter]; f != "" {
		if draft[flow.FieldDeleteFilterKind] == filterHour {
			q.Hour = f
		} else {
			q.Store = f
		}
	}
	return e.search(ctx, q)
}

const (
	filterHour  = "hour"
	filterStore = "store"
)

// deleteFilter classifies the filter once, when it is entered. A known
// store name wins over an hour so stores named like "12" stay reachable.
func (e *Engine) deleteFilter(ctx context.Context, text string) (string, string) {
	v := strings.TrimSpace(text)
	if e.ref != nil {
		if stores, err := e.ref.Stores(ctx); err == nil {
			for _, st := range stores {
				if st.Name == v {
					return v, filterStore
				}
			}
		}
	}
	if h, ok := validate.Hour(v); ok {
		return fmt.Sprintf("%02d", h), filterHour
	}
	return v, filterStore
}

func clearFilter(draft map[string]string) {
	delete(draft, flow.FieldDeleteFilter)
	delete(draft, flow.FieldDeleteFilterKind)
}

func (e *Engine) search(ctx context.Context, q record.Query) ([]record.Record, error) {
	if e.records == nil {
		return nil, nil
	}
	recs, err := e.records.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("engine: search records: %w", err)
	}
	return recs, nil
}

// bounds turns a "YYYY/MM/DD" day into the reporting window of that day.
func (e *Engine) bounds(ctx context.Context, day string) (string, string, error) {
	d, err := time.ParseInLocation("2006/01/02", day, e.now().Location())
	if err != nil {
		return "", "", err
	}
	w := reference.DefaultWindow()
	if e.ref != nil {
		if got, err := e.ref.Window(ctx); err == nil {
			w = got
		}
	}
	from, to := w.Bounds(d)
	return from, to, nil
}

func findRecord(recs []record.Record, no string) *record.Record {
	n, err := strconv.ParseInt(strings.TrimSpace(no), 10, 64)
	if err != nil {
		return nil
	}
	for i := range recs {
		if recs[i].No == n {
			r := recs[i]
			return &r
		}
	}
	return nil
}

func limit(cs []reference.Choice) []reference.Choice {
	if len(cs) > MaxChoices {
		return cs[:MaxChoices]
	}
	return cs
}

func saved(s *session.Session, out Outcome) Result {
	return Result{Session: s, Outcome: out, Save: true}
}

func kept(s *session.Session, out Outcome) Result {
	return Result{Session: s, Outcome: out}
}
