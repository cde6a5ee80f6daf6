package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/queue"
)

// Store is the queue surface the poll loop and heartbeat publisher need.
type Store interface {
	LeaseNextJob(ctx context.Context) (*queue.Job, error)
	UpsertWorkerHeartbeat(ctx context.Context, hb queue.Heartbeat) (*queue.Worker, error)
}

// Runner executes one leased job through to a terminal state.
type Runner interface {
	Execute(ctx context.Context, job *queue.Job, worker *queue.Worker) error
}

// Worker leases queued jobs one at a time and hands each to the runner.
type Worker struct {
	store     Store
	runner    Runner
	logger    *slog.Logger
	identity  queue.Heartbeat
	idleSleep time.Duration
	state     atomic.Pointer[State]
}

func New(cfg *config.Config, store Store, runner Runner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Worker{
		store:     store,
		runner:    runner,
		logger:    logging.NewComponentLogger(logger, "worker").With(logging.String(logging.FieldWorkerKey, cfg.WorkerKey)),
		identity:  identityFromConfig(cfg),
		idleSleep: cfg.IdleSleep,
	}
	w.state.Store(&State{Status: queue.WorkerOnline})
	return w
}

// Snapshot returns the latest state published by the poll loop.
func (w *Worker) Snapshot() *State {
	return w.state.Load()
}

// Run leases and executes jobs until ctx is cancelled. Cancellation only
// stops new leases; a job already handed to the runner always finishes.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker loop started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker loop stopped")
			return nil
		default:
		}

		w.state.Store(&State{Status: queue.WorkerOnline})

		job, err := w.store.LeaseNextJob(ctx)
		if err != nil {
			w.logger.Error("job lease failed",
				logging.String(logging.FieldEventType, "job_lease_failed"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database connectivity"))
			w.waitForJobOrShutdown(ctx)
			continue
		}
		if job == nil {
			w.waitForJobOrShutdown(ctx)
			continue
		}

		w.runJob(ctx, job)
	}
}

func (w *Worker) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.idleSleep):
	}
}

func (w *Worker) runJob(ctx context.Context, job *queue.Job) {
	w.state.Store(&State{Status: queue.WorkerDraining, JobID: job.ID})
	defer w.state.Store(&State{Status: queue.WorkerOnline})

	// The lease already moved the job out of the queue; aborting mid-run
	// would strand it, so shutdown waits for the runner instead.
	jobCtx := context.WithoutCancel(ctx)
	logger := w.logger.With(logging.String(logging.FieldJobID, job.ID))

	identity := w.identity
	identity.Status = queue.WorkerDraining
	registered, err := w.store.UpsertWorkerHeartbeat(jobCtx, identity)
	if err != nil {
		logger.Error("worker registration failed",
			logging.String(logging.FieldEventType, "worker_registration_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "job stays queued; check worker registry access"))
		return
	}

	logger.Info("job started", logging.String(logging.FieldEventType, "job_started"))
	if err := w.runner.Execute(jobCtx, job, registered); err != nil {
		logger.Error("job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.Error(err))
		return
	}
	logger.Info("job completed", logging.String(logging.FieldEventType, "job_completed"))
}

func identityFromConfig(cfg *config.Config) queue.Heartbeat {
	return queue.Heartbeat{
		WorkerKey:    cfg.WorkerKey,
		DisplayName:  cfg.WorkerDisplayName,
		Status:       queue.WorkerOnline,
		IPAddress:    cfg.WorkerIPAddress,
		TagsJSON:     cfg.WorkerTagsJSON,
		CapacityJSON: cfg.WorkerCapacityJSON,
	}
}
