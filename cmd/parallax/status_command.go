package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parallax/internal/config"
	"parallax/internal/deps"
	"parallax/internal/preflight"
	"parallax/internal/queue"
)

// statusProbeTimeout caps the initial database dial so a dead endpoint does
// not stall the status command.
const statusProbeTimeout = 5 * time.Second

// statusLine is one rendered row in a status section.
type statusLine struct {
	Label   string
	Kind    statusKind
	Message string
}

// statusReport gathers everything `parallax status` displays so the probes
// stay separate from the rendering.
type statusReport struct {
	System     []statusLine
	Deps       []deps.Status
	Stats      map[queue.JobStatus]int
	StatsErr   error
	Workers    []*queue.WorkerRow
	WorkersErr error
}

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system, queue, and worker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			renderStatusReport(cmd, buildStatusReport(cmd.Context(), cfg))
			return nil
		},
	}
}

func buildStatusReport(ctx context.Context, cfg *config.Config) *statusReport {
	report := &statusReport{}

	dialCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()
	store, err := queue.Open(dialCtx, cfg.PostgresDSN)
	if err != nil {
		report.System = append(report.System, statusLine{"Queue database", statusError, fmt.Sprintf("unreachable (%v)", err)})
		unavailable := errors.New("queue database unreachable")
		report.StatsErr = unavailable
		report.WorkersErr = unavailable
	} else {
		defer store.Close()
		report.System = append(report.System, statusLine{"Queue database", statusOK, "Connected"})
	}

	dir := preflight.CheckDirectoryAccess("Work directory", cfg.WorkDir)
	report.System = append(report.System, statusLine{dir.Name, passKind(dir.Passed), dir.Detail})

	if strings.TrimSpace(cfg.MinioEndpoint) == "" {
		report.System = append(report.System, statusLine{"Object storage", statusWarn, "MINIO_ENDPOINT not configured"})
	} else {
		obj := preflight.CheckObjectStore(ctx, cfg.MinioEndpoint, cfg.MinioSecure)
		report.System = append(report.System, statusLine{obj.Name, passKind(obj.Passed), obj.Detail})
	}

	gpu := preflight.ProbeGPU()
	gpuKind := statusInfo
	if gpu.Detected {
		gpuKind = statusOK
	}
	report.System = append(report.System, statusLine{"GPU", gpuKind, gpu.Detail()})

	report.Deps = preflight.CheckSystemDeps(cfg)

	if store != nil {
		if stats, err := store.Stats(ctx); err != nil {
			report.StatsErr = err
		} else {
			report.Stats = stats
		}
		if workers, err := store.ListWorkers(ctx); err != nil {
			report.WorkersErr = err
		} else {
			report.Workers = workers
		}
	}
	return report
}

func renderStatusReport(cmd *cobra.Command, report *statusReport) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range report.System {
		fmt.Fprintln(stdout, renderStatusLine(line.Label, line.Kind, line.Message, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range dependencyLines(report.Deps, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	switch {
	case report.StatsErr != nil:
		fmt.Fprintln(stdout, renderStatusLine("Jobs", statusError, fmt.Sprintf("unavailable (%v)", report.StatsErr), colorize))
	default:
		rows := buildStatsRows(report.Stats)
		if len(rows) == 0 {
			fmt.Fprintln(stdout, "Queue is empty")
		} else {
			fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, 2))
		}
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Workers", colorize) {
		fmt.Fprintln(stdout, line)
	}
	switch {
	case report.WorkersErr != nil:
		fmt.Fprintln(stdout, renderStatusLine("Registry", statusError, fmt.Sprintf("unavailable (%v)", report.WorkersErr), colorize))
	case len(report.Workers) == 0:
		fmt.Fprintln(stdout, "No workers registered")
	default:
		fmt.Fprint(stdout, renderTable(workerTableHeaders, buildWorkerRows(report.Workers)))
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	missing := make([]string, 0)
	for _, status := range statuses {
		if status.Available {
			message := "Ready"
			if status.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", status.Command)
			}
			lines = append(lines, renderStatusLine(status.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if status.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
		if !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, fmt.Sprintf("%s (jobs will fail until installed)", strings.Join(missing, ", ")), colorize))
	}
	return lines
}
