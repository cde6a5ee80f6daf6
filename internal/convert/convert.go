package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"parallax/internal/fileutil"
	"parallax/internal/progress"
	"parallax/internal/services"
	"parallax/internal/services/da3"
	"parallax/internal/services/ffmpeg"
)

// Request describes one video→GLB conversion.
type Request struct {
	InputVideoPath string
	OutputDir      string
	FPS            float64
	ModelID        string
	KeepFrames     bool
}

// Result describes where the conversion landed.
type Result struct {
	OutputDir  string
	GLBPath    string
	FrameCount int
}

// Converter runs the conversion steps for one job. Build one per job so the
// reporter carries that job's progress sinks.
type Converter struct {
	extractor ffmpeg.Client
	exporter  da3.Client
	files     fileutil.Gateway
	reporter  progress.Reporter
}

// New builds a Converter around the given tool clients and reporter.
func New(extractor ffmpeg.Client, exporter da3.Client, files fileutil.Gateway, reporter progress.Reporter) *Converter {
	if reporter == nil {
		reporter = progress.NewComposite()
	}
	return &Converter{
		extractor: extractor,
		exporter:  exporter,
		files:     files,
		reporter:  reporter,
	}
}

// Execute validates the request and runs extraction, inference, and cleanup.
// Validation happens before any side effect. Cleanup failures are reported as
// a warning phase and never fail the conversion.
func (c *Converter) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	c.reporter.ReportPhase("prepare", "preparing output directory")
	if err := c.files.EnsureDir(req.OutputDir); err != nil {
		return nil, err
	}
	framesDir := filepath.Join(req.OutputDir, "frames")
	if err := c.files.EnsureDir(framesDir); err != nil {
		return nil, err
	}

	extraction, err := c.extractor.ExtractFrames(ctx, req.InputVideoPath, framesDir, req.FPS, c.reporter)
	if err != nil {
		return nil, err
	}

	images, err := c.files.ListFrameImages(extraction.FramesDir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "convert", "extract",
			fmt.Sprintf("frame extraction produced no images in %s", extraction.FramesDir), nil)
	}

	c.reporter.ReportPhase("infer", fmt.Sprintf("starting depth inference: frames=%d model=%s", len(images), req.ModelID))
	export, err := c.exporter.ExportFromImages(ctx, images, req.OutputDir, req.ModelID, c.reporter)
	if err != nil {
		return nil, err
	}

	if !req.KeepFrames {
		c.reporter.ReportPhase("cleanup", "removing intermediate frames")
		if err := c.files.RemoveDir(extraction.FramesDir); err != nil {
			c.reporter.ReportPhase("cleanup_warn", fmt.Sprintf("keeping intermediate frames: %v", err))
		}
	}

	c.reporter.ReportPhase("done", "GLB conversion complete")
	return &Result{
		OutputDir:  export.OutputDir,
		GLBPath:    export.GLBPath,
		FrameCount: export.FrameCount,
	}, nil
}

func validateRequest(req Request) error {
	if _, err := os.Stat(req.InputVideoPath); err != nil {
		return services.Wrap(services.ErrValidation, "convert", "validate",
			fmt.Sprintf("input video not found: %s", req.InputVideoPath), err)
	}
	if req.FPS <= 0 {
		return services.Wrap(services.ErrValidation, "convert", "validate",
			fmt.Sprintf("fps must be positive, got %g", req.FPS), nil)
	}
	return nil
}
