package testsupport

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"parallax/internal/queue"
)

// TestDatabaseEnv names the environment variable that points store
// integration tests at a disposable Postgres database.
const TestDatabaseEnv = "PARALLAX_TEST_DATABASE_URL"

// OpenTestStore opens a queue.Store against the integration test database,
// truncates the queue tables for isolation, and registers cleanup. Tests are
// skipped when the database URL is not configured.
func OpenTestStore(t testing.TB) *queue.Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(TestDatabaseEnv))
	if dsn == "" {
		t.Skipf("%s not set; skipping store integration test", TestDatabaseEnv)
	}

	ctx := context.Background()
	store, err := queue.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	resetQueueTables(t, dsn)
	return store
}

func resetQueueTables(t testing.TB, dsn string) {
	t.Helper()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open reset connection: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(context.Background(),
		`TRUNCATE artifacts, job_logs, job_attempts, jobs, gpu_workers RESTART IDENTITY CASCADE`,
	); err != nil {
		t.Fatalf("truncate queue tables: %v", err)
	}
}

// EnqueueJob inserts a queued job for tests using the provided store.
func EnqueueJob(t testing.TB, store *queue.Store, inputKey, outputPrefix string, priority int, paramsJSON string) *queue.JobRow {
	t.Helper()

	job, err := store.Enqueue(context.Background(), inputKey, outputPrefix, priority, paramsJSON)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
