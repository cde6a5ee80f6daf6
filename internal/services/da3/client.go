package da3

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"parallax/internal/fileutil"
	"parallax/internal/progress"
)

var commandContext = exec.CommandContext

// Export describes a completed depth-inference export run.
type Export struct {
	OutputDir  string
	GLBPath    string
	FrameCount int
}

// Client defines depth-inference export behaviour.
type Client interface {
	ExportFromImages(ctx context.Context, imagePaths []string, outputDir, modelID string, reporter progress.Reporter) (*Export, error)
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

// CLI wraps the da3 command-line exporter.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "da3"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ExportFromImages runs the exporter over the frame sequence and returns the
// newest GLB found in outputDir afterwards. A run that produces no GLB is not
// an error here; GLBPath comes back empty and the caller decides.
func (c *CLI) ExportFromImages(ctx context.Context, imagePaths []string, outputDir, modelID string, reporter progress.Reporter) (*Export, error) {
	if len(imagePaths) == 0 {
		return nil, errors.New("image paths required")
	}
	if outputDir == "" {
		return nil, errors.New("output directory required")
	}
	if modelID == "" {
		return nil, errors.New("model id required")
	}

	if reporter != nil {
		reporter.ReportPhase("load_model", fmt.Sprintf("loading model %s", modelID))
		reporter.ReportPhase("infer", fmt.Sprintf("running depth inference on %d frames", len(imagePaths)))
		reporter.ReportProgress(0, len(imagePaths), "depth inference started")
	}

	args := []string{"export", "--model", modelID, "--export-dir", outputDir, "--export-format", "glb"}
	args = append(args, imagePaths...)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start da3: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		var payload struct {
			Current int    `json:"current"`
			Total   int    `json:"total"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(line, &payload); err != nil {
			continue
		}
		if reporter != nil {
			reporter.ReportProgress(payload.Current, payload.Total, payload.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read da3 output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("da3 export failed: %w", err)
	}

	if reporter != nil {
		reporter.ReportProgress(len(imagePaths), len(imagePaths), "depth inference and export complete")
	}

	glbPath, err := fileutil.FindNewestGLB(outputDir)
	if err != nil {
		return nil, err
	}

	return &Export{OutputDir: outputDir, GLBPath: glbPath, FrameCount: len(imagePaths)}, nil
}

var _ Client = (*CLI)(nil)
