package record

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/triplog/core/logger"
)

// SQLStore keeps records in the trip_records table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const recordColumns = `no, departure_time, departure_point, store_name, via_point,
	arrival_time, destination, distance, amount, vehicle_number, note`

// Append inserts r and returns it with the assigned sequence number.
func (s *SQLStore) Append(ctx context.Context, r Record) (Record, error) {
	start := time.Now()
	q := s.db.Rebind(`INSERT INTO trip_records (departure_time, departure_point, store_name,
		via_point, arrival_time, destination, distance, amount, vehicle_number, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING no`)
	err := s.db.QueryRowxContext(ctx, q,
		r.DepartureTime, r.DeparturePoint, r.StoreName, r.ViaPoint, r.ArrivalTime,
		r.Destination, r.Distance, r.Amount, r.VehicleNumber, r.Note,
	).Scan(&r.No)
	if err != nil {
		logger.Error(ctx, logger.CompRecords, "record.append",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return Record{}, fmt.Errorf("record: append: %w", err)
	}
	logger.Info(ctx, logger.CompRecords, "record.append",
		slog.String("status", "ok"),
		slog.Int64("record_no", r.No),
		slog.Duration("duration", logger.Took(start)),
	)
	return r, nil
}

// Search returns matching records ordered by departure time then number.
func (s *SQLStore) Search(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if q.From != "" {
		add("departure_time >= ?", q.From)
	}
	if q.To != "" {
		add("departure_time < ?", q.To)
	}
	if q.Vehicle != "" {
		add("vehicle_number = ?", q.Vehicle)
	}
	if q.Hour != "" {
		add("substr(departure_time, 12, 2) = ?", q.Hour)
	}
	if q.Store != "" {
		add("store_name = ?", q.Store)
	}

	stmt := "SELECT " + recordColumns + " FROM trip_records"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY departure_time, no"

	var out []Record
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(stmt), args...); err != nil {
		return nil, fmt.Errorf("record: search: %w", err)
	}
	logger.Debug(ctx, logger.CompRecords, "record.search",
		slog.String("status", "ok"),
		slog.Int("count", len(out)),
	)
	return out, nil
}

// Delete removes record no. Missing records yield ErrNotFound.
func (s *SQLStore) Delete(ctx context.Context, no int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM trip_records WHERE no = ?`), no)
	if err != nil {
		return fmt.Errorf("record: delete %d: %w", no, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record: delete %d: %w", no, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, logger.CompRecords, "record.delete",
		slog.String("status", "ok"),
		slog.Int64("record_no", no),
	)
	return nil
}
