package worker

import "parallax/internal/queue"

// State is an immutable snapshot of what the worker process is doing. The
// poll loop replaces the whole snapshot on every transition; readers must
// never mutate one.
type State struct {
	Status queue.WorkerStatus
	JobID  string
}
