package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"parallax/internal/config"
	"parallax/internal/convert"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/progress"
	"parallax/internal/queue"
	"parallax/internal/services"
	"parallax/internal/services/da3"
	"parallax/internal/services/ffmpeg"
	"parallax/internal/storage"
)

// failureCode is the generic error code recorded for any job that dies inside
// the worker. Finer-grained diagnosis lives in the error message and logs.
const failureCode = "worker_runtime_error"

const glbContentType = "model/gltf-binary"

// Store is the queue surface the runner needs.
type Store interface {
	StartAttempt(ctx context.Context, jobID, workerID string) (*queue.Attempt, error)
	MarkJobSucceeded(ctx context.Context, jobID, attemptID string) error
	MarkJobFailed(ctx context.Context, jobID string, attemptID *string, errorCode *string, errorMessage string, exitCode *int) error
	AddArtifact(ctx context.Context, jobID, artifactType, objectKey string, contentType *string, sizeBytes *int64) error
	AddJobLog(ctx context.Context, jobID string, attemptID *string, level, message string, objectKey *string) error
	UpdateJobProgress(ctx context.Context, jobID string, percent int) error
}

// Runner drives a single job through download, conversion, and upload.
type Runner struct {
	store        Store
	objects      storage.ObjectStorage
	files        fileutil.Gateway
	extractor    ffmpeg.Client
	exporter     da3.Client
	logger       *slog.Logger
	console      *progress.Console
	workDir      string
	inputBucket  string
	outputBucket string
	keepFrames   bool
}

// NewRunner wires a runner from configuration and collaborators.
func NewRunner(cfg *config.Config, store Store, objects storage.ObjectStorage, files fileutil.Gateway, extractor ffmpeg.Client, exporter da3.Client, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:        store,
		objects:      objects,
		files:        files,
		extractor:    extractor,
		exporter:     exporter,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		console:      progress.NewConsole(logger),
		workDir:      cfg.WorkDir,
		inputBucket:  cfg.InputBucket,
		outputBucket: cfg.OutputBucket,
		keepFrames:   cfg.KeepFramesForDebug,
	}
}

// Execute runs the job and records the outcome. On failure the durable
// failure record is written before the original error is returned, so the
// caller only logs.
func (r *Runner) Execute(ctx context.Context, job *queue.Job, worker *queue.Worker) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithWorkerKey(ctx, worker.WorkerKey)
	ctx = services.WithCorrelationID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, r.logger)

	workDir := filepath.Join(r.workDir, job.ID)
	inputDir := filepath.Join(workDir, "input")
	outputDir := filepath.Join(workDir, "output")
	if err := r.files.EnsureDir(inputDir); err != nil {
		return err
	}
	if err := r.files.EnsureDir(outputDir); err != nil {
		return err
	}
	localVideo := filepath.Join(inputDir, "source.mp4")

	logger.Info("job execution started",
		logging.String("input_object_key", job.InputObjectKey),
		logging.Float64("fps", job.FPS),
		logging.String("model_id", job.ModelID))

	attemptID, err := r.run(ctx, job, worker, localVideo, outputDir)
	if err == nil {
		logger.Info("job execution succeeded")
		return nil
	}

	attrs := []logging.Attr{logging.Error(err)}
	if hint := services.Hint(err); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logger.Error("job execution failed", logging.Args(attrs...)...)
	r.recordLog(ctx, job.ID, attemptID, "error", err.Error(), nil)

	code := failureCode
	exitCode := 1
	if markErr := r.store.MarkJobFailed(ctx, job.ID, attemptID, &code, err.Error(), &exitCode); markErr != nil {
		logger.Error("failure record write failed", logging.Error(markErr))
		return errors.Join(err, markErr)
	}
	return err
}

func (r *Runner) run(ctx context.Context, job *queue.Job, worker *queue.Worker, localVideo, outputDir string) (attemptID *string, err error) {
	attempt, err := r.store.StartAttempt(ctx, job.ID, worker.ID)
	if err != nil {
		return nil, err
	}
	attemptID = &attempt.ID
	ctx = services.WithAttemptID(ctx, attempt.ID)

	reporter := progress.NewComposite(
		r.console,
		progress.NewStore(ctx, r.store, job.ID, r.logger),
	)

	reporter.ReportPhase("download", "fetching input video from object storage")
	if err := r.objects.Download(ctx, r.inputBucket, job.InputObjectKey, localVideo); err != nil {
		return attemptID, err
	}
	r.recordLog(ctx, job.ID, attemptID, "info", "input video downloaded", &job.InputObjectKey)

	converter := convert.New(r.extractor, r.exporter, r.files, reporter)
	result, err := converter.Execute(ctx, convert.Request{
		InputVideoPath: localVideo,
		OutputDir:      outputDir,
		FPS:            job.FPS,
		ModelID:        job.ModelID,
		KeepFrames:     r.keepFrames,
	})
	if err != nil {
		return attemptID, err
	}

	if result.GLBPath == "" {
		return attemptID, services.Wrap(services.ErrExternalTool, "pipeline", "export",
			"conversion produced no GLB output", nil)
	}

	objectKey := glbObjectKey(job.OutputPrefix)

	reporter.ReportPhase("upload", "uploading GLB to object storage")
	if err := r.objects.Upload(ctx, result.GLBPath, r.outputBucket, objectKey, glbContentType); err != nil {
		return attemptID, err
	}

	contentType := glbContentType
	var sizeBytes *int64
	if size, sizeErr := r.files.FileSize(result.GLBPath); sizeErr == nil {
		sizeBytes = &size
	}
	if err := r.store.AddArtifact(ctx, job.ID, "glb", objectKey, &contentType, sizeBytes); err != nil {
		return attemptID, err
	}
	r.recordLog(ctx, job.ID, attemptID, "info", "glb artifact uploaded", &objectKey)

	if err := r.store.MarkJobSucceeded(ctx, job.ID, attempt.ID); err != nil {
		return attemptID, fmt.Errorf("record job success: %w", err)
	}
	return attemptID, nil
}

// recordLog appends a job_logs row. Log rows are advisory, so a failed write
// is warned about and swallowed instead of failing the job.
func (r *Runner) recordLog(ctx context.Context, jobID string, attemptID *string, level, message string, objectKey *string) {
	if err := r.store.AddJobLog(ctx, jobID, attemptID, level, message, objectKey); err != nil {
		r.logger.Warn("job log write failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err))
	}
}

func glbObjectKey(outputPrefix string) string {
	return strings.TrimRight(outputPrefix, "/") + "/result.glb"
}
