package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"parallax/internal/progress"
)

var commandContext = exec.CommandContext

// Extraction describes a completed frame-extraction run.
type Extraction struct {
	FramesDir  string
	FrameCount int
}

// Client defines frame-extraction behaviour.
type Client interface {
	ExtractFrames(ctx context.Context, inputPath, framesDir string, fps float64, reporter progress.Reporter) (*Extraction, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ExtractFrames runs ffmpeg over inputPath, writing numbered PNG frames into
// framesDir at the requested rate, and returns how many frames landed.
func (c *CLI) ExtractFrames(ctx context.Context, inputPath, framesDir string, fps float64, reporter progress.Reporter) (*Extraction, error) {
	if inputPath == "" {
		return nil, errors.New("input path required")
	}
	if framesDir == "" {
		return nil, errors.New("frames directory required")
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %g", fps)
	}

	if reporter != nil {
		reporter.ReportPhase("extract_frames", fmt.Sprintf("extracting frames at %g fps", fps))
	}

	pattern := filepath.Join(framesDir, "frame_%06d.png")
	args := []string{"-y", "-i", inputPath, "-vf", fmt.Sprintf("fps=%g", fps), pattern}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	count, err := countPNGFrames(framesDir)
	if err != nil {
		return nil, err
	}

	if reporter != nil {
		total := count
		if total <= 0 {
			total = 1
		}
		reporter.ReportProgress(count, total, fmt.Sprintf("frame extraction complete: %d frames", count))
	}

	return &Extraction{FramesDir: framesDir, FrameCount: count}, nil
}

func countPNGFrames(framesDir string) (int, error) {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return 0, fmt.Errorf("read frames directory %s: %w", framesDir, err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			count++
		}
	}
	return count, nil
}

var _ Client = (*CLI)(nil)
