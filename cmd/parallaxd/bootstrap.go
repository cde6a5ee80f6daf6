package main

import (
	"context"
	"log/slog"

	"parallax/internal/config"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/pipeline"
	"parallax/internal/preflight"
	"parallax/internal/queue"
	"parallax/internal/services/da3"
	"parallax/internal/services/ffmpeg"
	"parallax/internal/storage"
	"parallax/internal/worker"
)

// buildWorker wires the conversion pipeline and returns the poll loop plus
// the heartbeat publisher that reads its state snapshots.
func buildWorker(cfg *config.Config, store *queue.Store, objects storage.ObjectStorage, logger *slog.Logger) (*worker.Worker, *worker.HeartbeatPublisher) {
	extractor := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary))
	exporter := da3.NewCLI(da3.WithBinary(cfg.Da3Binary))
	runner := pipeline.NewRunner(cfg, store, objects, fileutil.OS{}, extractor, exporter, logger)

	w := worker.New(cfg, store, runner, logger)
	publisher := worker.NewHeartbeatPublisher(cfg, store, w.Snapshot, logger)
	return w, publisher
}

// logPreflight reports environment problems without refusing to start; a
// missing tool only matters once a job actually leases.
func logPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available || status.Optional {
			continue
		}
		logger.Warn("required binary missing",
			logging.String("binary", status.Name),
			logging.String("detail", status.Detail))
	}
}
