package rates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"parkingfee/parking"
)

// Store persists rate profiles by category. Save overwrites any existing
// profile for the category. Load reports a missing category with
// found == false and a nil error.
type Store interface {
	Save(ctx context.Context, category string, p parking.Profile) error
	Load(ctx context.Context, category string) (parking.Profile, bool, error)
	Exists(ctx context.Context, category string) (bool, error)
}

const schema = `CREATE TABLE IF NOT EXISTS parking_rates (
	category           TEXT PRIMARY KEY,
	unit_minutes       INTEGER NOT NULL,
	unit_price         INTEGER NOT NULL,
	cap_minutes        INTEGER NOT NULL,
	cap_fee            INTEGER NOT NULL,
	night_unit_minutes INTEGER NOT NULL,
	night_unit_price   INTEGER NOT NULL,
	night_cap_minutes  INTEGER NOT NULL,
	night_cap_fee      INTEGER NOT NULL,
	updated_at         DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps one row per category in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the rates
// table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create parking_rates: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already open database that has the rates table.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Save(ctx context.Context, category string, p parking.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parking_rates (
			category, unit_minutes, unit_price, cap_minutes, cap_fee,
			night_unit_minutes, night_unit_price, night_cap_minutes, night_cap_fee
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			unit_minutes       = excluded.unit_minutes,
			unit_price         = excluded.unit_price,
			cap_minutes        = excluded.cap_minutes,
			cap_fee            = excluded.cap_fee,
			night_unit_minutes = excluded.night_unit_minutes,
			night_unit_price   = excluded.night_unit_price,
			night_cap_minutes  = excluded.night_cap_minutes,
			night_cap_fee      = excluded.night_cap_fee,
			updated_at         = CURRENT_TIMESTAMP`,
		category, p.UnitMinutes, p.UnitPrice, p.CapMinutes, p.CapFee,
		p.NightUnitMinutes, p.NightUnitPrice, p.NightCapMinutes, p.NightCapFee,
	)
	if err != nil {
		return fmt.Errorf("save rates %q: %w", category, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, category string) (parking.Profile, bool, error) {
	var p parking.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT unit_minutes, unit_price, cap_minutes, cap_fee,
		       night_unit_minutes, night_unit_price, night_cap_minutes, night_cap_fee
		FROM parking_rates
		WHERE category = ?`,
		category,
	).Scan(
		&p.UnitMinutes, &p.UnitPrice, &p.CapMinutes, &p.CapFee,
		&p.NightUnitMinutes, &p.NightUnitPrice, &p.NightCapMinutes, &p.NightCapFee,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return parking.Profile{}, false, nil
	}
	if err != nil {
		return parking.Profile{}, false, fmt.Errorf("load rates %q: %w", category, err)
	}
	return p, true, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, category string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM parking_rates WHERE category = ?", category).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check rates %q: %w", category, err)
	}
	return true, nil
}

// Categories returns the stored category keys in ascending order.
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT category FROM parking_rates ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
