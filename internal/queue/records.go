package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// AddJobLog appends one structured log row for the job. attemptID and
// objectKey are optional; a nil attemptID records job-level events that
// happen outside any attempt.
func (s *Store) AddJobLog(ctx context.Context, jobID string, attemptID *string, level, message string, objectKey *string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO job_logs (
			job_id,
			attempt_id,
			level,
			message,
			object_key,
			created_at
		)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, NOW())`,
		jobID,
		nullableStringPtr(attemptID),
		level,
		nullableString(message),
		nullableStringPtr(objectKey),
	); err != nil {
		return fmt.Errorf("add job log: %w", err)
	}
	return nil
}

// AddArtifact appends one produced-output record for the job. Rows are never
// updated or deleted; re-runs append fresh artifacts.
func (s *Store) AddArtifact(ctx context.Context, jobID, artifactType, objectKey string, contentType *string, sizeBytes *int64) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (
			job_id,
			type,
			object_key,
			content_type,
			size_bytes,
			created_at
		)
		VALUES ($1::uuid, $2, $3, $4, $5, NOW())`,
		jobID,
		artifactType,
		objectKey,
		nullableStringPtr(contentType),
		nullableInt64Ptr(sizeBytes),
	); err != nil {
		return fmt.Errorf("add artifact: %w", err)
	}
	return nil
}

// ListJobLogs returns the job's log rows oldest first. A positive limit
// keeps only the most recent rows, still in chronological order; a
// non-positive limit returns everything.
func (s *Store) ListJobLogs(ctx context.Context, jobID string, limit int) ([]*JobLog, error) {
	query := `
		SELECT id, job_id::text, COALESCE(attempt_id::text, ''), level,
			COALESCE(message, ''), COALESCE(object_key, ''), created_at
		FROM job_logs
		WHERE job_id = $1::uuid
		ORDER BY created_at, id`
	args := []any{jobID}
	if limit > 0 {
		query = `
		SELECT id, job_id, attempt_id, level, message, object_key, created_at
		FROM (
			SELECT id, job_id::text, COALESCE(attempt_id::text, '') AS attempt_id,
				level, COALESCE(message, '') AS message,
				COALESCE(object_key, '') AS object_key, created_at
			FROM job_logs
			WHERE job_id = $1::uuid
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list job logs: %w", err)
	}
	defer rows.Close()

	var logs []*JobLog
	for rows.Next() {
		var entry JobLog
		if err := rows.Scan(&entry.ID, &entry.JobID, &entry.AttemptID, &entry.Level,
			&entry.Message, &entry.ObjectKey, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job log: %w", err)
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job logs: %w", err)
	}
	return logs, nil
}

// ListArtifacts returns the job's artifacts oldest first.
func (s *Store) ListArtifacts(ctx context.Context, jobID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id::text, type, object_key, COALESCE(content_type, ''),
			size_bytes, created_at
		FROM artifacts
		WHERE job_id = $1::uuid
		ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		var (
			artifact Artifact
			size     sql.NullInt64
		)
		if err := rows.Scan(&artifact.ID, &artifact.JobID, &artifact.Type,
			&artifact.ObjectKey, &artifact.ContentType, &size, &artifact.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if size.Valid {
			bytes := size.Int64
			artifact.SizeBytes = &bytes
		}
		artifacts = append(artifacts, &artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}
