package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store manages queue persistence backed by PostgreSQL. It is safe for
// concurrent use; every method opens its own short transaction or statement
// against the shared pool.
type Store struct {
	db *sql.DB
}

// Open connects to the shared queue database, verifies connectivity, and
// applies the idempotent schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableIntPtr(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt64Ptr(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

const jobRowColumns = `id::text, status, priority, input_object_key, output_prefix,
	params_json::text, progress_percent, error_code, error_message,
	created_at, started_at, finished_at`

func scanJobRow(scanner interface{ Scan(dest ...any) error }) (*JobRow, error) {
	var (
		row        JobRow
		statusStr  string
		params     sql.NullString
		errorCode  sql.NullString
		errorMsg   sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	if err := scanner.Scan(
		&row.ID,
		&statusStr,
		&row.Priority,
		&row.InputObjectKey,
		&row.OutputPrefix,
		&params,
		&row.ProgressPercent,
		&errorCode,
		&errorMsg,
		&row.CreatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	row.Status = JobStatus(statusStr)
	row.ParamsJSON = params.String
	row.ErrorCode = errorCode.String
	row.ErrorMessage = errorMsg.String
	if startedAt.Valid {
		started := startedAt.Time
		row.StartedAt = &started
	}
	if finishedAt.Valid {
		finished := finishedAt.Time
		row.FinishedAt = &finished
	}
	return &row, nil
}

const workerRowColumns = `id::text, worker_key, display_name, status, last_heartbeat_at,
	ip_address, tags_json::text, capacity_json::text, created_at, updated_at`

func scanWorkerRow(scanner interface{ Scan(dest ...any) error }) (*WorkerRow, error) {
	var (
		row       WorkerRow
		statusStr string
		ip        sql.NullString
		tags      sql.NullString
		capacity  sql.NullString
	)
	if err := scanner.Scan(
		&row.ID,
		&row.WorkerKey,
		&row.DisplayName,
		&statusStr,
		&row.LastHeartbeatAt,
		&ip,
		&tags,
		&capacity,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		return nil, err
	}
	row.Status = WorkerStatus(statusStr)
	row.IPAddress = ip.String
	row.TagsJSON = tags.String
	row.CapacityJSON = capacity.String
	return &row, nil
}

const attemptColumns = `id::text, job_id::text, attempt_no, COALESCE(worker_id::text, ''),
	status, started_at, finished_at, exit_code, error_message`

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		attempt    Attempt
		statusStr  string
		finishedAt sql.NullTime
		exitCode   sql.NullInt64
		errorMsg   sql.NullString
	)
	if err := scanner.Scan(
		&attempt.ID,
		&attempt.JobID,
		&attempt.AttemptNo,
		&attempt.WorkerID,
		&statusStr,
		&attempt.StartedAt,
		&finishedAt,
		&exitCode,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	attempt.Status = AttemptStatus(statusStr)
	if finishedAt.Valid {
		finished := finishedAt.Time
		attempt.FinishedAt = &finished
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		attempt.ExitCode = &code
	}
	attempt.ErrorMessage = errorMsg.String
	return &attempt, nil
}
