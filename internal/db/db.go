// Package db provides optional PostgreSQL persistence for scout runs.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/types"
)

// Pool is the subset of *pgxpool.Pool used by Store. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scout_runs (
	id          UUID PRIMARY KEY,
	source      TEXT NOT NULL DEFAULT '',
	input_hash  TEXT NOT NULL DEFAULT '',
	companies   INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS scout_results (
	run_id      UUID NOT NULL REFERENCES scout_runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	company     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	name        TEXT NOT NULL,
	job_title   TEXT NOT NULL,
	profile_url TEXT NOT NULL,
	confidence  TEXT NOT NULL,
	reasoning   TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
)`

// ResultColumns is the COPY column order for scout_results.
var ResultColumns = []string{
	"run_id", "position", "company", "domain", "name",
	"job_title", "profile_url", "confidence", "reasoning",
}

// Run describes the input a batch of results was produced from.
type Run struct {
	ID        uuid.UUID
	Source    string
	InputHash string
	CreatedAt time.Time
}

// Store persists run results.
type Store struct {
	pool Pool
}

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(pool), nil
}

// NewStore wraps an existing pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the run and result tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun records a run and bulk-loads its results in one transaction.
// Positions are 1-based in result order.
func (s *Store) SaveRun(ctx context.Context, run Run, results []types.CompanyResult) error {
	if run.ID == uuid.Nil {
		return fmt.Errorf("failed to save run: missing run id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO scout_runs (id, source, input_hash, companies, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Source, run.InputHash, len(results), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(results) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"scout_results"}, ResultColumns, pgx.CopyFromRows(ResultRows(run.ID, results)))
		if err != nil {
			return fmt.Errorf("failed to copy results: %w", err)
		}
		if n != int64(len(results)) {
			return fmt.Errorf("failed to copy results: wrote %d of %d rows", n, len(results))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	zap.L().Info("saved run",
		zap.String("run_id", run.ID.String()),
		zap.Int("results", len(results)),
	)
	return nil
}

// ResultRows converts results into COPY rows matching ResultColumns.
func ResultRows(runID uuid.UUID, results []types.CompanyResult) [][]any {
	rows := make([][]any, 0, len(results))
	for i, r := range results {
		rows = append(rows, []any{
			runID, i + 1, r.Company, r.Domain, r.Name,
			r.JobTitle, r.ProfileURL, string(r.Confidence), r.Reasoning,
		})
	}
	return rows
}
