package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/json"
)

const createRunsTableSQL = `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id UUID PRIMARY KEY,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		failed_stage TEXT,
		error TEXT,
		error_code TEXT,
		stats JSONB,
		cleaned_object TEXT,
		rejects_object TEXT
	)
`

const runColumns = `id, status, started_at, finished_at, failed_stage, error, error_code, stats, cleaned_object, rejects_object`

// PostgresStore is a Store backed by the pipeline_runs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database described by cfg and ensures the
// runs table exists.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, createRunsTableSQL); err != nil {
		return fmt.Errorf("creating pipeline_runs table: %w", err)
	}
	slog.Debug("ensured pipeline_runs table exists")
	return nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, run *Run) error {
	args, err := runArgs(run)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (`+runColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		args...)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, run *Run) error {
	args, err := runArgs(run)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE pipeline_runs
		SET status = $2, started_at = $3, finished_at = $4, failed_stage = $5, error = $6,
		    error_code = $7, stats = $8, cleaned_object = $9, rejects_object = $10
		WHERE id = $1`,
		args...)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Run, error) {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, pgID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	return run, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Close implements Store.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// runArgs returns the column values of run in runColumns order.
func runArgs(run *Run) ([]any, error) {
	id := toPgUUID(run.ID)
	if !id.Valid {
		return nil, fmt.Errorf("invalid run id %q", run.ID)
	}

	var stats []byte
	if run.Stats != nil {
		var err error
		if stats, err = json.Marshal(run.Stats); err != nil {
			return nil, fmt.Errorf("encoding stats: %w", err)
		}
	}

	return []any{
		id,
		string(run.Status),
		toPgTimestamptz(&run.StartedAt),
		toPgTimestamptz(run.FinishedAt),
		toPgText(run.FailedStage),
		toPgText(run.Error),
		toPgText(run.ErrorCode),
		stats,
		toPgText(run.CleanedObject),
		toPgText(run.RejectsObject),
	}, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		id                            pgtype.UUID
		status                        string
		startedAt, finishedAt         pgtype.Timestamptz
		failedStage, errText, errCode pgtype.Text
		stats                         []byte
		cleanedObject, rejectsObject  pgtype.Text
	)

	err := row.Scan(&id, &status, &startedAt, &finishedAt, &failedStage, &errText, &errCode,
		&stats, &cleanedObject, &rejectsObject)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:            uuidToString(id),
		Status:        Status(status),
		StartedAt:     startedAt.Time,
		FailedStage:   failedStage.String,
		Error:         errText.String,
		ErrorCode:     errCode.String,
		CleanedObject: cleanedObject.String,
		RejectsObject: rejectsObject.String,
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if len(stats) > 0 {
		var vs core.ValidationStats
		if err := json.Unmarshal(stats, &vs); err != nil {
			return nil, fmt.Errorf("decoding stats: %w", err)
		}
		run.Stats = &vs
	}
	return run, nil
}

// Helper functions for type conversion

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil || t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
