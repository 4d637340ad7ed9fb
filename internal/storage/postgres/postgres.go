// Package postgres implements the Persister on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lihao-quant/equidata/internal/config"
	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	symbol        TEXT    NOT NULL,
	date          BIGINT  NOT NULL,
	frequency     TEXT    NOT NULL,
	market        TEXT    NOT NULL,
	class         TEXT    NOT NULL,
	has_conflict  BOOLEAN NOT NULL,
	quality       TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (symbol, date, frequency)
);
CREATE TABLE IF NOT EXISTS record_fields (
	symbol     TEXT             NOT NULL,
	date       BIGINT           NOT NULL,
	frequency  TEXT             NOT NULL,
	field      TEXT             NOT NULL,
	kind       INT              NOT NULL,
	num_value  DOUBLE PRECISION NOT NULL,
	text_value TEXT             NOT NULL,
	provider   TEXT             NOT NULL,
	fetched_at TIMESTAMPTZ      NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (symbol, date, frequency, field)
);
CREATE TABLE IF NOT EXISTS coverage (
	symbol     TEXT   NOT NULL,
	frequency  TEXT   NOT NULL,
	start_date BIGINT NOT NULL,
	end_date   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coverage_symbol ON coverage (symbol, frequency);
CREATE TABLE IF NOT EXISTS conflicts (
	id             UUID             PRIMARY KEY,
	symbol         TEXT             NOT NULL,
	date           BIGINT           NOT NULL,
	frequency      TEXT             NOT NULL,
	field          TEXT             NOT NULL,
	chosen         TEXT             NOT NULL,
	chosen_val     DOUBLE PRECISION NOT NULL,
	other_provider TEXT             NOT NULL,
	other_val      DOUBLE PRECISION NOT NULL,
	rel_diff       DOUBLE PRECISION NOT NULL,
	tolerance      DOUBLE PRECISION NOT NULL,
	detected_at    TIMESTAMPTZ      NOT NULL,
	UNIQUE (symbol, date, frequency, field, chosen, other_provider)
);
`

// Store is a PostgreSQL-backed Persister.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects, verifies the connection and ensures the schema exists.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("postgres store opened", "host", cfg.Host, "database", cfg.Name)
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() { s.pool.Close() }

// ReadCoverage returns the committed ranges for an instrument/frequency.
func (s *Store) ReadCoverage(ctx context.Context, inst model.Instrument, freq model.Frequency) (model.Coverage, error) {
	cov := model.Coverage{Instrument: inst, Frequency: freq}

	rows, err := s.pool.Query(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = $1 AND frequency = $2 ORDER BY start_date`,
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

// UpsertDay writes one reconciled record and extends coverage in a single
// transaction. Writers serialize per instrument at the engine level; the
// transaction makes the write atomic from the reader's perspective.
func (s *Store) UpsertDay(ctx context.Context, rec model.CanonicalRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO records (symbol, date, frequency, market, class, has_conflict, quality)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date, frequency) DO UPDATE
		SET has_conflict = EXCLUDED.has_conflict, quality = EXCLUDED.quality
	`, rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency),
		rec.Instrument.Market, rec.Instrument.Class,
		rec.HasConflict, strings.Join(rec.Quality, ","),
	); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM record_fields WHERE symbol = $1 AND date = $2 AND frequency = $3`,
		rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency),
	); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}

	batch := &pgx.Batch{}
	for name, cell := range rec.Fields {
		batch.Queue(`
			INSERT INTO record_fields (symbol, date, frequency, field, kind, num_value, text_value, provider, fetched_at, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, rec.Instrument.Symbol, int64(rec.Date), string(rec.Frequency), name,
			int(cell.Value.Kind), cell.Value.Num, cell.Value.Str,
			cell.Provider, cell.FetchedAt, cell.Confidence,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range rec.Fields {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return &storage.Error{Op: "upsert_day", Err: err}
		}
	}
	if err := results.Close(); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}

	if err := s.extendCoverage(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &storage.Error{Op: "upsert_day", Err: err}
	}
	return nil
}

// extendCoverage merges the record's date into the stored ranges. The
// row set per (symbol, frequency) is small, so rewrite-on-change is cheaper
// than range arithmetic in SQL.
func (s *Store) extendCoverage(ctx context.Context, tx pgx.Tx, rec model.CanonicalRecord) error {
	rows, err := tx.Query(ctx,
		`SELECT start_date, end_date FROM coverage WHERE symbol = $1 AND frequency = $2 ORDER BY start_date FOR UPDATE`,
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

	if _, err := tx.Exec(ctx,
		`DELETE FROM coverage WHERE symbol = $1 AND frequency = $2`,
		rec.Instrument.Symbol, string(rec.Frequency),
	); err != nil {
		return &storage.Error{Op: "extend_coverage", Err: err}
	}
	for _, r := range cov.Ranges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO coverage (symbol, frequency, start_date, end_date) VALUES ($1, $2, $3, $4)`,
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
	batch := &pgx.Batch{}
	for _, c := range conflicts {
		batch.Queue(`
			INSERT INTO conflicts (id, symbol, date, frequency, field, chosen, chosen_val, other_provider, other_val, rel_diff, tolerance, detected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (symbol, date, frequency, field, chosen, other_provider) DO NOTHING
		`, c.ID, c.Instrument.Symbol, int64(c.Date), string(c.Frequency), c.Field,
			c.Chosen, c.ChosenVal, c.Other, c.OtherVal, c.RelDiff, c.Tolerance, c.DetectedAt,
		)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range conflicts {
		if _, err := results.Exec(); err != nil {
			return &storage.Error{Op: "save_conflicts", Err: err}
		}
	}
	return nil
}
