// Package record stores finalized trip records.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/triplog/trip/flow"
)

// ErrNotFound is returned when a record number does not exist.
var ErrNotFound = errors.New("record: not found")

// Record is one completed trip. Times use the "YYYY/MM/DD HH:MM" layout so
// lexical order matches chronological order.
type Record struct {
	No             int64  `db:"no"`
	DepartureTime  string `db:"departure_time"`
	DeparturePoint string `db:"departure_point"`
	StoreName      string `db:"store_name"`
	ViaPoint       string `db:"via_point"`
	ArrivalTime    string `db:"arrival_time"`
	Destination    string `db:"destination"`
	Distance       string `db:"distance"`
	Amount         string `db:"amount"`
	VehicleNumber  string `db:"vehicle_number"`
	Note           string `db:"note"`
}

// FromDraft builds a record from a completed entry draft. The sequence
// number is assigned by the store.
func FromDraft(d map[string]string) Record {
	return Record{
		DepartureTime:  d[flow.FieldDepartureTime],
		DeparturePoint: d[flow.FieldDeparturePoint],
		StoreName:      d[flow.FieldStoreName],
		ViaPoint:       d[flow.FieldViaPoint],
		ArrivalTime:    d[flow.FieldArrivalTime],
		Destination:    d[flow.FieldDestination],
		Distance:       d[flow.FieldDistance],
		Amount:         d[flow.FieldAmount],
		VehicleNumber:  d[flow.FieldVehicleNumber],
		Note:           d[flow.FieldNote],
	}
}

// Hour returns the departure hour as two digits, or "" for malformed times.
func (r Record) Hour() string {
	if len(r.DepartureTime) < 13 || r.DepartureTime[10] != ' ' {
		return ""
	}
	return r.DepartureTime[11:13]
}

// Summary is a one-line description used in choice lists.
func (r Record) Summary() string {
	parts := []string{fmt.Sprintf("#%d", r.No), r.DepartureTime}
	if r.StoreName != "" {
		parts = append(parts, r.StoreName)
	}
	if r.Destination != "" {
		parts = append(parts, "-> "+r.Destination)
	}
	return strings.Join(parts, " ")
}

// Query selects records whose departure time falls in [From, To).
// Empty filters match everything.
type Query struct {
	From    string
	To      string
	Vehicle string
	// Hour is a two-digit departure hour.
	Hour  string
	Store string
}

// Store appends, searches and deletes records.
type Store interface {
	Append(ctx context.Context, r Record) (Record, error)
	Search(ctx context.Context, q Query) ([]Record, error)
	Delete(ctx context.Context, no int64) error
}
