package queue

import (
	"context"
	"fmt"
)

// schemaStatements creates the five queue tables plus the indexes the lease
// and listing queries rely on. Every statement is idempotent so multiple
// workers can race through startup against the same database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		status TEXT NOT NULL DEFAULT 'queued',
		priority INTEGER NOT NULL DEFAULT 0,
		input_object_key TEXT NOT NULL,
		output_prefix TEXT NOT NULL,
		params_json JSONB NOT NULL DEFAULT '{}'::jsonb,
		progress_percent INTEGER NOT NULL DEFAULT 0,
		error_code TEXT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_lease
		ON jobs (status, priority DESC, created_at ASC)`,
	`CREATE TABLE IF NOT EXISTS gpu_workers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		worker_key TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		status TEXT NOT NULL,
		last_heartbeat_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ip_address TEXT,
		tags_json JSONB NOT NULL DEFAULT '{}'::jsonb,
		capacity_json JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS job_attempts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		attempt_no INTEGER NOT NULL,
		worker_id UUID REFERENCES gpu_workers(id),
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMPTZ,
		exit_code INTEGER,
		error_message TEXT,
		UNIQUE (job_id, attempt_no)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_attempts_job
		ON job_attempts (job_id, attempt_no)`,
	`CREATE TABLE IF NOT EXISTS job_logs (
		id BIGSERIAL PRIMARY KEY,
		job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		attempt_id UUID,
		level TEXT NOT NULL,
		message TEXT,
		object_key TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_job
		ON job_logs (job_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		id BIGSERIAL PRIMARY KEY,
		job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		object_key TEXT NOT NULL,
		content_type TEXT,
		size_bytes BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_job
		ON artifacts (job_id, created_at)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
