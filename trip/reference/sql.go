package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/logger"
)

// SQLSource reads the vehicles, stores and report_window tables.
type SQLSource struct {
	db *sqlx.DB
}

// NewSQLSource wraps an open database.
func NewSQLSource(db *sqlx.DB) *SQLSource {
	return &SQLSource{db: db}
}

// Vehicles lists vehicles by number.
func (s *SQLSource) Vehicles(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	if err := s.db.SelectContext(ctx, &out, `SELECT no, vehicle_number, info FROM vehicles ORDER BY no`); err != nil {
		return nil, fmt.Errorf("reference: vehicles: %w", err)
	}
	return out, nil
}

// Stores lists stores by number.
func (s *SQLSource) Stores(ctx context.Context) ([]Store, error) {
	var out []Store
	if err := s.db.SelectContext(ctx, &out, `SELECT no, store_name, address FROM stores ORDER BY no`); err != nil {
		return nil, fmt.Errorf("reference: stores: %w", err)
	}
	return out, nil
}

// Window returns the configured reporting window. A missing row, a read
// failure or a zero hour falls back to the default window.
func (s *SQLSource) Window(ctx context.Context) (Window, error) {
	var w Window
	err := s.db.GetContext(ctx, &w, `SELECT start_hour, end_hour FROM report_window ORDER BY id LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return DefaultWindow(), nil
	case err != nil:
		logger.Warn(ctx, logger.CompReference, "window.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return DefaultWindow(), nil
	}
	if w.StartHour <= 0 {
		w.StartHour = DefaultStartHour
	}
	if w.EndHour <= 0 {
		w.EndHour = DefaultEndHour
	}
	return w, nil
}

// Seeder inserts the vehicles and stores listed in configuration. Existing
// entries are left untouched.
type Seeder struct {
	Vehicles []config.VehicleSeed
	Stores   []config.StoreSeed
}

// NewSeeder returns a seeder for the reference section of cfg.
func NewSeeder(cfg config.ReferenceConfig) Seeder {
	return Seeder{Vehicles: cfg.Vehicles, Stores: cfg.Stores}
}

// Seed runs all inserts in one transaction.
func (s Seeder) Seed(ctx context.Context, db *sqlx.DB) error {
	if len(s.Vehicles) == 0 && len(s.Stores) == 0 {
		return nil
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reference: seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	vq := tx.Rebind(`INSERT INTO vehicles (vehicle_number, info) VALUES (?, ?) ON CONFLICT (vehicle_number) DO NOTHING`)
	for _, v := range s.Vehicles {
		if v.Number == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, vq, v.Number, v.Info); err != nil {
			return fmt.Errorf("reference: seed vehicle %s: %w", v.Number, err)
		}
	}
	sq := tx.Rebind(`INSERT INTO stores (store_name, address) VALUES (?, ?) ON CONFLICT (store_name) DO NOTHING`)
	for _, st := range s.Stores {
		if st.Name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, sq, st.Name, st.Address); err != nil {
			return fmt.Errorf("reference: seed store %s: %w", st.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reference: seed: %w", err)
	}
	logger.Info(ctx, logger.CompSeed, "seed.reference",
		slog.String("status", "ok"),
		slog.Int("vehicles", len(s.Vehicles)),
		slog.Int("stores", len(s.Stores)),
	)
	return nil
}
