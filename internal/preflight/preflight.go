package preflight

import (
	"context"

	"parallax/internal/config"
	"parallax/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every environment check that applies to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.WorkDir),
	}
	if cfg.MinioEndpoint != "" {
		results = append(results, CheckObjectStore(ctx, cfg.MinioEndpoint, cfg.MinioSecure))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries the conversion pipeline
// shells out to. Both the daemon and the CLI status command use this so the
// requirement list lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary,
			Description: "Required for frame extraction",
		},
		{
			Name:        "Depth Anything 3",
			Command:     cfg.Da3Binary,
			Description: "Required for depth inference and GLB export",
		},
	}
	return deps.CheckBinaries(requirements)
}
