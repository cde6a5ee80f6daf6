package queue

import (
	"strings"
	"time"
	"unicode/utf8"
)

// JobStatus represents the lifecycle of a conversion job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

var allJobStatuses = []JobStatus{
	JobQueued,
	JobRunning,
	JobSucceeded,
	JobFailed,
}

// AllJobStatuses returns every job status in lifecycle order.
func AllJobStatuses() []JobStatus {
	out := make([]JobStatus, len(allJobStatuses))
	copy(out, allJobStatuses)
	return out
}

// ParseJobStatus normalizes value into a known status.
func ParseJobStatus(value string) (JobStatus, bool) {
	candidate := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allJobStatuses {
		if candidate == status {
			return status, true
		}
	}
	return "", false
}

// AttemptStatus represents the lifecycle of a single job attempt.
type AttemptStatus string

const (
	AttemptRunning   AttemptStatus = "running"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// WorkerStatus represents the advertised state of a worker process.
type WorkerStatus string

const (
	WorkerOnline   WorkerStatus = "online"
	WorkerDraining WorkerStatus = "draining"
	WorkerOffline  WorkerStatus = "offline"
)

// Job is the leased work unit handed to the pipeline. FPS and ModelID carry
// the per-job parameter defaults applied during leasing.
type Job struct {
	ID             string
	InputObjectKey string
	OutputPrefix   string
	FPS            float64
	ModelID        string
}

// DefaultModelID is applied when a job's params omit an explicit model.
const DefaultModelID = "depth-anything/da3nested-giant-large"

// DefaultFPS is applied when a job's params omit an explicit frame rate.
const DefaultFPS = 2.0

// JobRow is the full queue record surfaced to operators.
type JobRow struct {
	ID              string
	Status          JobStatus
	Priority        int
	InputObjectKey  string
	OutputPrefix    string
	ParamsJSON      string
	ProgressPercent int
	ErrorCode       string
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

// Worker is the registry identity handed back by heartbeat upserts. The
// pipeline records its ID on every attempt it starts.
type Worker struct {
	ID          string
	WorkerKey   string
	DisplayName string
}

// WorkerRow is the full registry row for operator listings.
type WorkerRow struct {
	ID              string
	WorkerKey       string
	DisplayName     string
	Status          WorkerStatus
	LastHeartbeatAt time.Time
	IPAddress       string
	TagsJSON        string
	CapacityJSON    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Heartbeat carries one worker-registry upsert.
type Heartbeat struct {
	WorkerKey    string
	DisplayName  string
	Status       WorkerStatus
	IPAddress    string
	TagsJSON     string
	CapacityJSON string
}

// Attempt records one execution of a job by one worker.
type Attempt struct {
	ID           string
	JobID        string
	AttemptNo    int
	WorkerID     string
	Status       AttemptStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ExitCode     *int
	ErrorMessage string
}

// JobLog is one append-only structured log row attached to a job.
type JobLog struct {
	ID        int64
	JobID     string
	AttemptID string
	Level     string
	Message   string
	ObjectKey string
	CreatedAt time.Time
}

// Artifact records one output object produced for a job.
type Artifact struct {
	ID          int64
	JobID       string
	Type        string
	ObjectKey   string
	ContentType string
	SizeBytes   *int64
	CreatedAt   time.Time
}

// maxErrorMessageLen bounds persisted error text so oversized tool output
// cannot bloat the jobs and attempts tables.
const maxErrorMessageLen = 4000

func truncateErrorMessage(message string) string {
	if len(message) <= maxErrorMessageLen {
		return message
	}
	truncated := message[:maxErrorMessageLen]
	// Back off a partially sliced rune so the result stays valid UTF-8.
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

func clampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
