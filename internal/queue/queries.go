package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrJobNotFound reports a lookup for a job id with no matching row.
var ErrJobNotFound = errors.New("job not found")

// Stats returns job counts grouped by status. Statuses with no jobs are
// absent from the map.
func (s *Store) Stats(ctx context.Context) (map[JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[JobStatus]int)
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		stats[JobStatus(statusStr)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job stats: %w", err)
	}
	return stats, nil
}

// ListJobs returns queue rows filtered by status set (or all rows when no
// status is provided), in lease order. A non-positive limit returns
// everything.
func (s *Store) ListJobs(ctx context.Context, statuses []JobStatus, limit int) ([]*JobRow, error) {
	query := `SELECT ` + jobRowColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := makePlaceholders(len(statuses), 1)
		for _, status := range statuses {
			args = append(args, string(status))
		}
		query += ` WHERE status IN (` + placeholders + `)`
	}
	query += ` ORDER BY priority DESC, created_at ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*JobRow
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns the full queue record for one job.
func (s *Store) GetJob(ctx context.Context, jobID string) (*JobRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobRowColumns+` FROM jobs WHERE id = $1::uuid`, jobID)
	job, err := scanJobRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// RequeueJob returns a failed job to the queue with its error columns and
// progress cleared. It reports false when the job is missing or not in the
// failed state; attempts are preserved, so the next run continues the
// attempt numbering.
func (s *Store) RequeueJob(ctx context.Context, jobID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET
			status = 'queued',
			progress_percent = 0,
			error_code = NULL,
			error_message = NULL,
			started_at = NULL,
			finished_at = NULL
		WHERE id = $1::uuid AND status = 'failed'`,
		jobID,
	)
	if err != nil {
		return false, fmt.Errorf("requeue job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("requeue rows affected: %w", err)
	}
	return affected > 0, nil
}

// Enqueue inserts a new queued job and returns its record. The CLI uses this
// for smoke-testing workers without the web application.
func (s *Store) Enqueue(ctx context.Context, inputObjectKey, outputPrefix string, priority int, paramsJSON string) (*JobRow, error) {
	if strings.TrimSpace(paramsJSON) == "" {
		paramsJSON = "{}"
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO jobs (
			status,
			priority,
			input_object_key,
			output_prefix,
			params_json
		)
		VALUES ('queued', $1, $2, $3, $4::jsonb)
		RETURNING `+jobRowColumns,
		priority,
		inputObjectKey,
		outputPrefix,
		paramsJSON,
	)
	job, err := scanJobRow(row)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

func makePlaceholders(count, start int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
