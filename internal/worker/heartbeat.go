package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/queue"
)

// heartbeatInterval is fixed by the liveness protocol: consumers treat a
// worker as stale after a few missed beats, so the cadence is not tunable.
const heartbeatInterval = 2 * time.Second

// offlineTimeout bounds the final registry write during shutdown.
const offlineTimeout = 5 * time.Second

// HeartbeatPublisher periodically upserts this worker's registry row so
// other processes can observe liveness and current state.
type HeartbeatPublisher struct {
	store    Store
	logger   *slog.Logger
	identity queue.Heartbeat
	snapshot func() *State
	interval time.Duration
}

// NewHeartbeatPublisher builds a publisher that reads worker state through
// snapshot on every beat.
func NewHeartbeatPublisher(cfg *config.Config, store Store, snapshot func() *State, logger *slog.Logger) *HeartbeatPublisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatPublisher{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "heartbeat").With(logging.String(logging.FieldWorkerKey, cfg.WorkerKey)),
		identity: identityFromConfig(cfg),
		snapshot: snapshot,
		interval: heartbeatInterval,
	}
}

// Run publishes a beat immediately and then on every tick until ctx is done,
// at which point it records the worker as offline and returns.
func (p *HeartbeatPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			p.publishOffline()
			return
		case <-ticker.C:
			p.publish(ctx)
		}
	}
}

func (p *HeartbeatPublisher) publish(ctx context.Context) {
	snap := p.snapshot()
	if snap == nil {
		snap = &State{Status: queue.WorkerOnline}
	}

	hb := p.identity
	hb.Status = snap.Status
	if snap.JobID != "" {
		hb.DisplayName += " (busy)"
	}

	if _, err := p.store.UpsertWorkerHeartbeat(ctx, hb); err != nil {
		if errors.Is(err, context.Canceled) {
			p.logger.Info("heartbeat interrupted by shutdown")
			return
		}
		p.logger.Warn("heartbeat update failed",
			logging.String(logging.FieldEventType, "heartbeat_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue database connectivity"))
	}
}

// publishOffline is best-effort: the process is exiting either way.
func (p *HeartbeatPublisher) publishOffline() {
	ctx, cancel := context.WithTimeout(context.Background(), offlineTimeout)
	defer cancel()

	hb := p.identity
	hb.Status = queue.WorkerOffline
	if _, err := p.store.UpsertWorkerHeartbeat(ctx, hb); err != nil {
		p.logger.Warn("offline heartbeat failed", logging.Error(err))
		return
	}
	p.logger.Info("worker marked offline")
}
