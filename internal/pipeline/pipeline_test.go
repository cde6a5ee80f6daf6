package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parallax/internal/config"
	"parallax/internal/fileutil"
	"parallax/internal/logging"
	"parallax/internal/pipeline"
	"parallax/internal/progress"
	"parallax/internal/queue"
	"parallax/internal/services/da3"
	"parallax/internal/services/ffmpeg"
	"parallax/internal/testsupport"
)

type failureRecord struct {
	jobID     string
	attemptID *string
	errorCode *string
	message   string
	exitCode  *int
}

type artifactRecord struct {
	jobID        string
	artifactType string
	objectKey    string
	contentType  *string
	sizeBytes    *int64
}

type logRecord struct {
	jobID     string
	attemptID *string
	level     string
	message   string
	objectKey *string
}

type fakeStore struct {
	startErr   error
	succeedErr error
	failErr    error

	attempts  int
	succeeded []string
	artifacts []artifactRecord
	failures  []failureRecord
	logs      []logRecord
	progress  []int
}

func (s *fakeStore) StartAttempt(ctx context.Context, jobID, workerID string) (*queue.Attempt, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.attempts++
	return &queue.Attempt{
		ID:        fmt.Sprintf("attempt-%d", s.attempts),
		JobID:     jobID,
		AttemptNo: s.attempts,
		WorkerID:  workerID,
		Status:    queue.AttemptRunning,
	}, nil
}

func (s *fakeStore) MarkJobSucceeded(ctx context.Context, jobID, attemptID string) error {
	if s.succeedErr != nil {
		return s.succeedErr
	}
	s.succeeded = append(s.succeeded, attemptID)
	return nil
}

func (s *fakeStore) MarkJobFailed(ctx context.Context, jobID string, attemptID *string, errorCode *string, errorMessage string, exitCode *int) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.failures = append(s.failures, failureRecord{
		jobID:     jobID,
		attemptID: attemptID,
		errorCode: errorCode,
		message:   errorMessage,
		exitCode:  exitCode,
	})
	return nil
}

func (s *fakeStore) AddArtifact(ctx context.Context, jobID, artifactType, objectKey string, contentType *string, sizeBytes *int64) error {
	s.artifacts = append(s.artifacts, artifactRecord{
		jobID:        jobID,
		artifactType: artifactType,
		objectKey:    objectKey,
		contentType:  contentType,
		sizeBytes:    sizeBytes,
	})
	return nil
}

func (s *fakeStore) AddJobLog(ctx context.Context, jobID string, attemptID *string, level, message string, objectKey *string) error {
	s.logs = append(s.logs, logRecord{
		jobID:     jobID,
		attemptID: attemptID,
		level:     level,
		message:   message,
		objectKey: objectKey,
	})
	return nil
}

func (s *fakeStore) UpdateJobProgress(ctx context.Context, jobID string, percent int) error {
	s.progress = append(s.progress, percent)
	return nil
}

type transfer struct {
	bucket      string
	key         string
	localPath   string
	contentType string
}

type fakeObjects struct {
	downloadErr error
	uploadErr   error
	downloads   []transfer
	uploads     []transfer
}

func (o *fakeObjects) Download(ctx context.Context, bucket, key, localPath string) error {
	o.downloads = append(o.downloads, transfer{bucket: bucket, key: key, localPath: localPath})
	if o.downloadErr != nil {
		return o.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte("video"), 0o644)
}

func (o *fakeObjects) Upload(ctx context.Context, localPath, bucket, key, contentType string) error {
	o.uploads = append(o.uploads, transfer{bucket: bucket, key: key, localPath: localPath, contentType: contentType})
	return o.uploadErr
}

type fakeExtractor struct {
	err        error
	frameCount int
}

func (f *fakeExtractor) ExtractFrames(ctx context.Context, inputPath, framesDir string, fps float64, reporter progress.Reporter) (*ffmpeg.Extraction, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := 1; i <= f.frameCount; i++ {
		name := filepath.Join(framesDir, fmt.Sprintf("frame_%06d.png", i))
		if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
			return nil, err
		}
	}
	return &ffmpeg.Extraction{FramesDir: framesDir, FrameCount: f.frameCount}, nil
}

type fakeExporter struct {
	err      error
	noGLB    bool
	gotModel string
}

func (f *fakeExporter) ExportFromImages(ctx context.Context, imagePaths []string, outputDir, modelID string, reporter progress.Reporter) (*da3.Export, error) {
	f.gotModel = modelID
	if f.err != nil {
		return nil, f.err
	}
	glbPath := ""
	if !f.noGLB {
		glbPath = filepath.Join(outputDir, "scene.glb")
		if err := os.WriteFile(glbPath, []byte("glb-data"), 0o644); err != nil {
			return nil, err
		}
	}
	return &da3.Export{OutputDir: outputDir, GLBPath: glbPath, FrameCount: len(imagePaths)}, nil
}

type runnerFixture struct {
	cfg       *config.Config
	store     *fakeStore
	objects   *fakeObjects
	extractor *fakeExtractor
	exporter  *fakeExporter
	runner    *pipeline.Runner
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		cfg:       testsupport.NewConfig(t, opts...),
		store:     &fakeStore{},
		objects:   &fakeObjects{},
		extractor: &fakeExtractor{frameCount: 2},
		exporter:  &fakeExporter{},
	}
	f.runner = pipeline.NewRunner(f.cfg, f.store, f.objects, fileutil.OS{}, f.extractor, f.exporter, logging.NewNop())
	return f
}

func testJob() *queue.Job {
	return &queue.Job{
		ID:             "job-1",
		InputObjectKey: "inputs/clip.mp4",
		OutputPrefix:   "outputs/job-1",
		FPS:            2.0,
		ModelID:        "depth-anything/da3nested-giant-large",
	}
}

func testWorker() *queue.Worker {
	return &queue.Worker{ID: "worker-uuid", WorkerKey: "gpu-01", DisplayName: "gpu-01"}
}

func TestExecuteSuccessRecordsArtifactAndSuccess(t *testing.T) {
	f := newFixture(t)

	if err := f.runner.Execute(context.Background(), testJob(), testWorker()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if f.store.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", f.store.attempts)
	}

	if len(f.objects.downloads) != 1 {
		t.Fatalf("downloads = %v, want one", f.objects.downloads)
	}
	dl := f.objects.downloads[0]
	if dl.bucket != "test-input" || dl.key != "inputs/clip.mp4" {
		t.Fatalf("download = %+v", dl)
	}
	wantLocal := filepath.Join(f.cfg.WorkDir, "job-1", "input", "source.mp4")
	if dl.localPath != wantLocal {
		t.Fatalf("download path = %q, want %q", dl.localPath, wantLocal)
	}

	if len(f.objects.uploads) != 1 {
		t.Fatalf("uploads = %v, want one", f.objects.uploads)
	}
	up := f.objects.uploads[0]
	if up.bucket != "test-output" || up.key != "outputs/job-1/result.glb" {
		t.Fatalf("upload = %+v", up)
	}
	if up.contentType != "model/gltf-binary" {
		t.Fatalf("upload content type = %q", up.contentType)
	}

	if len(f.store.artifacts) != 1 {
		t.Fatalf("artifacts = %v, want one", f.store.artifacts)
	}
	art := f.store.artifacts[0]
	if art.artifactType != "glb" || art.objectKey != "outputs/job-1/result.glb" {
		t.Fatalf("artifact = %+v", art)
	}
	if art.sizeBytes == nil || *art.sizeBytes != int64(len("glb-data")) {
		t.Fatalf("artifact size = %v, want %d", art.sizeBytes, len("glb-data"))
	}

	if len(f.store.succeeded) != 1 || f.store.succeeded[0] != "attempt-1" {
		t.Fatalf("succeeded = %v, want [attempt-1]", f.store.succeeded)
	}
	if len(f.store.failures) != 0 {
		t.Fatalf("unexpected failure records: %v", f.store.failures)
	}

	if len(f.store.logs) != 2 {
		t.Fatalf("logs = %v, want download and upload rows", f.store.logs)
	}
	dlLog := f.store.logs[0]
	if dlLog.level != "info" || dlLog.message != "input video downloaded" {
		t.Fatalf("download log = %+v", dlLog)
	}
	if dlLog.objectKey == nil || *dlLog.objectKey != "inputs/clip.mp4" {
		t.Fatalf("download log object key = %v", dlLog.objectKey)
	}
	upLog := f.store.logs[1]
	if upLog.message != "glb artifact uploaded" || upLog.objectKey == nil || *upLog.objectKey != "outputs/job-1/result.glb" {
		t.Fatalf("upload log = %+v", upLog)
	}

	if f.exporter.gotModel != "depth-anything/da3nested-giant-large" {
		t.Fatalf("model = %q", f.exporter.gotModel)
	}
}

func TestExecutePreservesFramesWhenConfigured(t *testing.T) {
	f := newFixture(t, testsupport.WithKeepFrames())

	if err := f.runner.Execute(context.Background(), testJob(), testWorker()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	framesDir := filepath.Join(f.cfg.WorkDir, "job-1", "output", "frames")
	if _, err := os.Stat(framesDir); err != nil {
		t.Fatalf("frames dir should survive the run: %v", err)
	}
}

func TestExecuteStripsTrailingSlashFromOutputPrefix(t *testing.T) {
	f := newFixture(t)
	job := testJob()
	job.OutputPrefix = "outputs/job-1///"

	if err := f.runner.Execute(context.Background(), job, testWorker()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if f.objects.uploads[0].key != "outputs/job-1/result.glb" {
		t.Fatalf("upload key = %q", f.objects.uploads[0].key)
	}
}

func TestExecuteDownloadFailureMarksJobFailed(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("object store unreachable")
	f.objects.downloadErr = boom

	err := f.runner.Execute(context.Background(), testJob(), testWorker())
	if !errors.Is(err, boom) {
		t.Fatalf("expected download error back, got %v", err)
	}

	if len(f.store.failures) != 1 {
		t.Fatalf("failures = %v, want one", f.store.failures)
	}
	rec := f.store.failures[0]
	if rec.jobID != "job-1" {
		t.Fatalf("failure job = %q", rec.jobID)
	}
	if rec.attemptID == nil || *rec.attemptID != "attempt-1" {
		t.Fatalf("failure attempt = %v, want attempt-1", rec.attemptID)
	}
	if rec.errorCode == nil || *rec.errorCode != "worker_runtime_error" {
		t.Fatalf("failure code = %v", rec.errorCode)
	}
	if rec.exitCode == nil || *rec.exitCode != 1 {
		t.Fatalf("failure exit code = %v", rec.exitCode)
	}
	if len(f.store.succeeded) != 0 {
		t.Fatalf("unexpected success records: %v", f.store.succeeded)
	}
	if len(f.store.logs) != 1 || f.store.logs[0].level != "error" {
		t.Fatalf("logs = %v, want one error row", f.store.logs)
	}
	if !strings.Contains(f.store.logs[0].message, "object store unreachable") {
		t.Fatalf("error log message = %q", f.store.logs[0].message)
	}
}

func TestExecuteStartAttemptFailureMarksJobFailedWithoutAttempt(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("attempt insert failed")
	f.store.startErr = boom

	err := f.runner.Execute(context.Background(), testJob(), testWorker())
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error back, got %v", err)
	}
	if len(f.store.failures) != 1 {
		t.Fatalf("failures = %v, want one", f.store.failures)
	}
	if f.store.failures[0].attemptID != nil {
		t.Fatalf("attempt id should be nil, got %v", *f.store.failures[0].attemptID)
	}
}

func TestExecuteMissingGLBMarksJobFailed(t *testing.T) {
	f := newFixture(t)
	f.exporter.noGLB = true

	err := f.runner.Execute(context.Background(), testJob(), testWorker())
	if err == nil {
		t.Fatal("expected error when exporter produced no GLB")
	}
	if len(f.store.failures) != 1 {
		t.Fatalf("failures = %v, want one", f.store.failures)
	}
	if !strings.Contains(f.store.failures[0].message, "no GLB") {
		t.Fatalf("failure message = %q", f.store.failures[0].message)
	}
	if len(f.objects.uploads) != 0 {
		t.Fatalf("upload should not run without a GLB: %v", f.objects.uploads)
	}
}

func TestExecuteValidationFailureMarksJobFailed(t *testing.T) {
	f := newFixture(t)
	job := testJob()
	job.FPS = 0

	if err := f.runner.Execute(context.Background(), job, testWorker()); err == nil {
		t.Fatal("expected validation error")
	}
	if len(f.store.failures) != 1 {
		t.Fatalf("failures = %v, want one", f.store.failures)
	}
	if f.store.failures[0].attemptID == nil {
		t.Fatal("validation failures still belong to the started attempt")
	}
}

func TestExecuteJoinsMarkFailedError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("upload refused")
	markBoom := errors.New("database offline")
	f.objects.uploadErr = boom
	f.store.failErr = markBoom

	err := f.runner.Execute(context.Background(), testJob(), testWorker())
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error in chain, got %v", err)
	}
	if !errors.Is(err, markBoom) {
		t.Fatalf("expected mark-failed error in chain, got %v", err)
	}
}
