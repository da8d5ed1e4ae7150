// Package reference serves the vehicle and store lists offered as quick
// choices, and the reporting window used to group trips into a working day.
package reference

import (
	"context"
	"time"
)

// Vehicle is a registered vehicle.
type Vehicle struct {
	No     int64  `db:"no"`
	Number string `db:"vehicle_number"`
	Info   string `db:"info"`
}

// Store is a registered pickup store.
type Store struct {
	No      int64  `db:"no"`
	Name    string `db:"store_name"`
	Address string `db:"address"`
}

// Choice is one selectable item: Label is shown, Value is submitted.
type Choice struct {
	Label string
	Value string
}

// Default reporting window: 19:00 to 04:00 the next day.
const (
	DefaultStartHour = 19
	DefaultEndHour   = 28
)

// Window is the span of a working day in hours from midnight of its date.
// EndHour may exceed 24 to reach into the next day.
type Window struct {
	StartHour int `db:"start_hour"`
	EndHour   int `db:"end_hour"`
}

// DefaultWindow returns the 19..28 window.
func DefaultWindow() Window {
	return Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
}

// TimeLayout matches the canonical record timestamp.
const TimeLayout = "2006/01/02 15:04"

// Bounds returns the [from, to) timestamps of the working day starting on
// day. An end hour before the start hour also rolls into the next day.
func (w Window) Bounds(day time.Time) (string, string) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	from := midnight.Add(time.Duration(w.StartHour) * time.Hour)
	to := midnight.Add(time.Duration(w.EndHour) * time.Hour)
	if w.EndHour < w.StartHour {
		to = to.Add(24 * time.Hour)
	}
	return from.Format(TimeLayout), to.Format(TimeLayout)
}

// Source reads reference data.
type Source interface {
	Vehicles(ctx context.Context) ([]Vehicle, error)
	Stores(ctx context.Context) ([]Store, error)
	Window(ctx context.Context) (Window, error)
}

// VehicleChoices maps vehicles to choices in list order.
func VehicleChoices(vs []Vehicle) []Choice {
	out := make([]Choice, 0, len(vs))
	for _, v := range vs {
		out = append(out, Choice{Label: v.Number, Value: v.Number})
	}
	return out
}

// StoreChoices maps stores to choices in list order.
func StoreChoices(ss []Store) []Choice {
	out := make([]Choice, 0, len(ss))
	for _, s := range ss {
		out = append(out, Choice{Label: s.Name, Value: s.Name})
	}
	return out
}
