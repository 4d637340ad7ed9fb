// Package sqlite implements the Persister on an embedded SQLite database.
// Suitable for single-process deployments and local backfills.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/storage"
)

// Store persists canonical records to a SQLite database. A process-wide
// mutex serializes writers; SQLite allows only one anyway.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open opens (or creates) the database and runs migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so coverage reads proceed while a sync run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			symbol       TEXT    NOT NULL,
			date         INTEGER NOT NULL,
			frequency    TEXT    NOT NULL,
			market       TEXT    NOT NULL,
			class        TEXT    NOT NULL,
			has_conflict INTEGER NOT NULL,
			quality      TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (symbol, date, frequency)
		)`,
		`CREATE TABLE IF NOT EXISTS record_fields (
			symbol     TEXT    NOT NULL,
			date       INTEGER NOT NULL,
			frequency  TEXT    NOT NULL,
			field      TEXT    NOT NULL,
			kind       INTEGER NOT NULL,
			num_value  REAL    NOT NULL,
			text_value TEXT    NOT NULL,
			provider   TEXT    NOT NULL,
			fetched_at INTEGER NOT NULL,
			confidence REAL    NOT NULL,
			PRIMARY KEY (symbol, date, frequency, field)
		)`,
		`CREATE TABLE IF NOT EXISTS coverage (
			symbol     TEXT    NOT NULL,
			frequency  TEXT    NOT NULL,
			start_date INTEGER NOT NULL,
			end_date   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coverage_symbol ON coverage(symbol, frequency)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			id             TEXT    PRIMARY KEY,
			symbol         TEXT    NOT NULL,
			date           INTEGER NOT NULL,
			frequency      TEXT    NOT NULL,
			field          TEXT    NOT NULL,
			chosen         TEXT    NOT NULL,
			chosen_val     REAL    NOT NULL,
			other_provider TEXT    NOT NULL,
			other_val      REAL    NOT NULL,
			rel_diff       REAL    NOT NULL,
			tolerance      REAL    NOT NULL,
			detected_at    INTEGER NOT NULL,
			UNIQUE (symbol, date, frequency, field, chosen, other_provider)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *Store) Close() { s.db.Close() }

// ReadCoverage returns the committed ranges for an instrument/frequency.
func (s *Store) ReadCoverage(ctx context.Context, inst model.Instrument, freq model.Frequency) (model.Coverage, error) {
	cov := model.Coverage{Instrument: inst, Frequency: freq}

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = ? AND frequency = ? ORDER BY start_date`,
		inst.Symbol, string(freq),
	)
	if err != nil {
		return cov, &storage.Error{Op: "read_coverage", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var start, end int64
		if err := rows.Scan(&start, &end); err != nil {
			return cov, &storage.Error{Op: "read_coverage", Err: err}
		}
		cov.Ranges = append(cov.Ranges, model.DateRange{Start: model.Date(start), End: model.Date(end)})
	}
	if err := rows.Err(); err != nil {
		return cov, &storage.Error{Op: "read_coverage", Err: err}
	}
	return cov, nil
}

// UpsertDay writes one reconciled record and extends coverage atomically.
func (s *Store) UpsertDay(ctx context.Context, rec model.CanonicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (symbol, date, frequency, market, class, has_conflict, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date, frequency) DO UPDATE
		SET has_conflict = excluded.has_conflict, quality = excluded.quality
	`, rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency),
		rec.Instrument.Market, rec.Instrument.Class,
		boolInt(rec.HasConflict), strings.Join(rec.Quality, ","),
	); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_fields WHERE symbol = ? AND date = ? AND frequency = ?`,
		rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency),
	); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}

	for name, cell := range rec.Fields {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_fields (symbol, date, frequency, field, kind, num_value, text_value, provider, fetched_at, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency), name,
			int(cell.Value.Kind), cell.Value.Num, cell.Value.Str,
			cell.Provider, cell.FetchedAt.UnixMicro(), cell.Confidence,
		); err != nil {
			return &storage.Error{Op: "upsert_day", Err: err}
		}
	}

	if err := s.extendCoverage(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}
	return nil
}

func (s *Store) extendCoverage(ctx context.Context, tx *sql.Tx, rec model.CanonicalRecord) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = ? AND frequency = ? ORDER BY start_date`,
		rec.Instrument.Symbol, string(rec.Frequency),
	)
	if err != nil {
		return &storage.Error{Op: "extend_coverage", Err: err}
	}
	cov := model.Coverage{}
	for rows.Next() {
		var start, end int64
		if err := rows.Scan(&start, &end); err != nil {
			rows.Close()
			return &storage.Error{Op: "extend_coverage", Err: err}
		}
		cov.Ranges = append(cov.Ranges, model.DateRange{Start: model.Date(start), End: model.Date(end)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &storage.Error{Op: "extend_coverage", Err: err}
	}

	cov.Add(model.DateRange{Start: rec.Date, End: rec.Date})

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM coverage WHERE symbol = ? AND frequency = ?`,
		rec.Instrument.Symbol, string(rec.Frequency),
	); err != nil {
		return &storage.Error{Op: "extend_coverage", Err: err}
	}
	for _, r := range cov.Ranges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO coverage (symbol, frequency, start_date, end_date) VALUES (?, ?, ?, ?)`,
			rec.Instrument.Symbol, string(rec.Frequency), int64(r.Start), int64(r.End),
		); err != nil {
			return &storage.Error{Op: "extend_coverage", Err: err}
		}
	}
	return nil
}

// SaveConflicts inserts conflict records, ignoring logical duplicates.
func (s *Store) SaveConflicts(ctx context.Context, conflicts []model.ConflictRecord) error {
	if len(conflicts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range conflicts {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO conflicts (id, symbol, date, frequency, field, chosen, chosen_val, other_provider, other_val, rel_diff, tolerance, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID.String(), c.Instrument.Symbol, int64(c.Date), string(c.Frequency), c.Field,
			c.Chosen, c.ChosenVal, c.Other, c.OtherVal, c.RelDiff, c.Tolerance, c.DetectedAt.UnixMicro(),
		); err != nil {
			return &storage.Error{Op: "save_conflicts", Err: err}
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
