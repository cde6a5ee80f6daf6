package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"parallax/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
}

func TestReadLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.ReadLast(path, 2)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != int64(len("a\nb\nc\n")) {
		t.Fatalf("expected offset at end of file, got %d", offset)
	}
}

func TestReadLastWithFewerLinesThanLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")
	writeLog(t, path, "only\n")

	lines, _, err := logs.ReadLast(path, 10)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestReadLastMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")

	lines, offset, err := logs.ReadLast(path, 5)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result for missing file, got %#v offset %d", lines, offset)
	}
}

func TestReadFromPicksUpAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")
	writeLog(t, path, "start\n")

	_, offset, err := logs.ReadLast(path, 1)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}

	appendLog(t, path, "next\n")
	lines, newOffset, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("read from: %v", err)
	}
	if len(lines) != 1 || lines[0] != "next" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if newOffset <= offset {
		t.Fatalf("expected offset to advance past %d, got %d", offset, newOffset)
	}
}

func TestReadFromRestartsAfterRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")
	writeLog(t, path, "old line one\nold line two\n")

	_, offset, err := logs.ReadLast(path, 1)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}

	// Rotation rewrites the file smaller than the follower's offset.
	writeLog(t, path, "fresh\n")
	lines, _, err := logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("read from: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Fatalf("expected restart from top, got %#v", lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallaxd.log")
	writeLog(t, path, "start\n")

	_, offset, err := logs.ReadLast(path, 1)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	got := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(lines []string) {
			select {
			case got <- lines:
			default:
			}
		})
	}()

	appendLog(t, path, "later\n")

	select {
	case lines := <-got:
		if len(lines) != 1 || lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", lines)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit appended line")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error on cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop on cancel")
	}
}
