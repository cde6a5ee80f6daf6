package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parallax/internal/logging"
	"parallax/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewConsoleWritesFormattedLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("worker online",
		logging.String(logging.FieldComponent, "worker"),
		logging.String(logging.FieldWorkerKey, "wk-1"),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO worker: worker online") {
		t.Fatalf("expected component prefix in console output, got %q", content)
	}
	if !strings.Contains(content, "worker_key=wk-1") {
		t.Fatalf("expected worker_key attribute in console output, got %q", content)
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should render as prefix, not key=value: %q", content)
	}
}

func TestNewConsoleQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quoting.log")

	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("phase change", logging.String("message", "extracting frames"))

	content := readLog(t, logPath)
	if !strings.Contains(content, `message="extracting frames"`) {
		t.Fatalf("expected quoted value for string with spaces, got %q", content)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("json message", logging.String("k", "v"))

	content := readLog(t, logPath)
	if !strings.Contains(content, `"msg":"json message"`) {
		t.Fatalf("expected msg key in JSON output, got %q", content)
	}
	if !strings.Contains(content, `"level":"info"`) {
		t.Fatalf("expected lowercase level in JSON output, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "chatty",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("suppressed")
	logger.Info("visible")

	content := readLog(t, logPath)
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug record should be suppressed at default level, got %q", content)
	}
	if !strings.Contains(content, "visible") {
		t.Fatalf("info record should be emitted at default level, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")

	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-123")
	ctx = services.WithWorkerKey(ctx, "wk-9")
	ctx = services.WithCorrelationID(ctx, "req-xyz")

	logging.WithContext(ctx, logger).Info("contextual log")

	content := readLog(t, logPath)
	for _, want := range []string{"job_id=job-123", "worker_key=wk-9", "correlation_id=req-xyz"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in output, got %q", want, content)
		}
	}
}

func TestWithContextNilLoggerReturnsNop(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("dropped")
}
