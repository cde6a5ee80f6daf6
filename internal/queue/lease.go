package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LeaseNextJob claims the highest-priority queued job, or nil when the queue
// is empty. SKIP LOCKED guarantees two workers can never lease the same row
// and that a worker never blocks behind a competitor's lease; the row lock is
// released at commit, so callers must immediately follow up with StartAttempt
// to flip the job out of the queued state.
func (s *Store) LeaseNextJob(ctx context.Context) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin lease tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT
			j.id::text,
			j.input_object_key,
			j.output_prefix,
			COALESCE((j.params_json->>'fps')::double precision, $1),
			COALESCE(j.params_json->>'modelId', $2)
		FROM jobs j
		WHERE j.status = 'queued'
		ORDER BY j.priority DESC, j.created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`,
		DefaultFPS,
		DefaultModelID,
	)

	var job Job
	if err := row.Scan(&job.ID, &job.InputObjectKey, &job.OutputPrefix, &job.FPS, &job.ModelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if commitErr := tx.Commit(); commitErr != nil {
				return nil, fmt.Errorf("commit empty lease: %w", commitErr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("lease job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}
	return &job, nil
}
