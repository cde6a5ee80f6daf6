package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"

	"parallax/internal/config"
	"parallax/internal/logging"
	"parallax/internal/queue"
	"parallax/internal/storage"
)

func main() {
	envFile := flag.String("env-file", "", "dotenv file merged into the environment before configuration loads")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *envFile); err != nil {
		log.Fatalf("parallaxd: %v", err)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare work directory: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// Two daemons sharing a work dir would trample each other's job-scoped
	// scratch directories.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another parallaxd instance is already running (lock %s)", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	logPreflight(ctx, cfg, logger)

	store, err := queue.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer func() { _ = store.Close() }()

	objects, err := storage.NewMinIO(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioSecure)
	if err != nil {
		return fmt.Errorf("create object storage client: %w", err)
	}

	w, publisher := buildWorker(cfg, store, objects, logger)

	logger.Info("parallaxd started",
		logging.String(logging.FieldWorkerKey, cfg.WorkerKey),
		logging.String("work_dir", cfg.WorkDir),
		logging.String("lock", cfg.LockPath()))

	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		publisher.Run(ctx)
	}()

	err = w.Run(ctx)

	// The publisher owns the final offline heartbeat; wait for it.
	<-publisherDone

	logger.Info("parallaxd shut down")
	return err
}
