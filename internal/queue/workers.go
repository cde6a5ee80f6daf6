package queue

import (
	"context"
	"fmt"
)

// UpsertWorkerHeartbeat registers or refreshes a worker registry row and
// returns the stored identity. Every call advances last_heartbeat_at and
// updated_at, so liveness monitors can treat a stale timestamp as a dead
// worker regardless of the advertised status.
func (s *Store) UpsertWorkerHeartbeat(ctx context.Context, hb Heartbeat) (*Worker, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO gpu_workers (
			worker_key,
			display_name,
			status,
			last_heartbeat_at,
			ip_address,
			tags_json,
			capacity_json,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, NOW(), $4, $5::jsonb, $6::jsonb, NOW(), NOW())
		ON CONFLICT (worker_key)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			status = EXCLUDED.status,
			last_heartbeat_at = NOW(),
			ip_address = EXCLUDED.ip_address,
			tags_json = EXCLUDED.tags_json,
			capacity_json = EXCLUDED.capacity_json,
			updated_at = NOW()
		RETURNING id::text, worker_key, display_name`,
		hb.WorkerKey,
		hb.DisplayName,
		string(hb.Status),
		nullableString(hb.IPAddress),
		hb.TagsJSON,
		hb.CapacityJSON,
	)

	var worker Worker
	if err := row.Scan(&worker.ID, &worker.WorkerKey, &worker.DisplayName); err != nil {
		return nil, fmt.Errorf("upsert worker heartbeat: %w", err)
	}
	return &worker, nil
}

// ListWorkers returns every registry row ordered by worker key.
func (s *Store) ListWorkers(ctx context.Context) ([]*WorkerRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workerRowColumns+` FROM gpu_workers ORDER BY worker_key`)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []*WorkerRow
	for rows.Next() {
		worker, err := scanWorkerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, worker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workers: %w", err)
	}
	return workers, nil
}
