package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StartAttempt opens a new numbered attempt for the job and flips the job to
// running in the same transaction. The job row is locked first so concurrent
// starters serialize and COALESCE(MAX(attempt_no), 0) + 1 always yields the
// next dense number; UNIQUE (job_id, attempt_no) backstops the invariant.
// Re-running a job clears its error columns and resets progress while
// preserving the original started_at.
func (s *Store) StartAttempt(ctx context.Context, jobID, workerID string) (*Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lockedID string
	if err := tx.QueryRowContext(ctx, `
		SELECT id::text FROM jobs WHERE id = $1::uuid FOR UPDATE`,
		jobID,
	).Scan(&lockedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("start attempt: job %s: %w", jobID, ErrJobNotFound)
		}
		return nil, fmt.Errorf("lock job for attempt: %w", err)
	}

	var nextAttemptNo int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(attempt_no), 0) + 1
		FROM job_attempts
		WHERE job_id = $1::uuid`,
		jobID,
	).Scan(&nextAttemptNo); err != nil {
		return nil, fmt.Errorf("next attempt number: %w", err)
	}

	attempt := Attempt{
		JobID:     jobID,
		WorkerID:  workerID,
		Status:    AttemptRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO job_attempts (
			job_id,
			attempt_no,
			worker_id,
			status,
			started_at
		)
		VALUES ($1::uuid, $2, $3::uuid, 'running', NOW())
		RETURNING id::text, attempt_no`,
		jobID,
		nextAttemptNo,
		workerID,
	).Scan(&attempt.ID, &attempt.AttemptNo); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET
			status = 'running',
			progress_percent = 0,
			error_code = NULL,
			error_message = NULL,
			started_at = COALESCE(started_at, NOW()),
			finished_at = NULL
		WHERE id = $1::uuid`,
		jobID,
	); err != nil {
		return nil, fmt.Errorf("mark job running: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attempt: %w", err)
	}
	return &attempt, nil
}

// MarkJobSucceeded finalizes the attempt and the job as succeeded in one
// transaction: exit code 0, errors cleared, progress forced to 100.
func (s *Store) MarkJobSucceeded(ctx context.Context, jobID, attemptID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin success tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE job_attempts
		SET
			status = 'succeeded',
			finished_at = NOW(),
			exit_code = 0,
			error_message = NULL
		WHERE id = $1::uuid`,
		attemptID,
	); err != nil {
		return fmt.Errorf("mark attempt succeeded: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET
			status = 'succeeded',
			progress_percent = 100,
			error_code = NULL,
			error_message = NULL,
			finished_at = NOW()
		WHERE id = $1::uuid`,
		jobID,
	); err != nil {
		return fmt.Errorf("mark job succeeded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit success: %w", err)
	}
	return nil
}

// MarkJobFailed finalizes the job as failed, updating the attempt only when
// one was opened. The message is truncated before persisting so oversized
// tool output cannot blow past the 4000-character bound; a nil attemptID
// covers failures that happen before StartAttempt commits.
func (s *Store) MarkJobFailed(ctx context.Context, jobID string, attemptID *string, errorCode *string, errorMessage string, exitCode *int) error {
	truncated := truncateErrorMessage(errorMessage)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin failure tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if attemptID != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE job_attempts
			SET
				status = 'failed',
				finished_at = NOW(),
				exit_code = $1,
				error_message = $2
			WHERE id = $3::uuid`,
			nullableIntPtr(exitCode),
			truncated,
			*attemptID,
		); err != nil {
			return fmt.Errorf("mark attempt failed: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET
			status = 'failed',
			error_code = $1,
			error_message = $2,
			finished_at = NOW()
		WHERE id = $3::uuid`,
		nullableStringPtr(errorCode),
		truncated,
		jobID,
	); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failure: %w", err)
	}
	return nil
}

// ListAttempts returns every attempt for the job ordered by attempt number.
func (s *Store) ListAttempts(ctx context.Context, jobID string) ([]*Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM job_attempts WHERE job_id = $1::uuid ORDER BY attempt_no`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
