package queue

import (
	"context"
	"fmt"
)

// UpdateJobProgress writes the job's coarse progress percentage, clamped to
// [0, 100]. Throttling lives with the caller; this always persists.
func (s *Store) UpdateJobProgress(ctx context.Context, jobID string, percent int) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET progress_percent = $1
		WHERE id = $2::uuid`,
		clampPercent(percent),
		jobID,
	); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}
