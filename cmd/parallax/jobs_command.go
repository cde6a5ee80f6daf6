package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"parallax/internal/queue"
)

// jobLogTailLimit bounds how many recent log rows `jobs show` fetches.
const jobLogTailLimit = 10

func newJobsCommand(cctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage conversion jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(cctx))
	jobsCmd.AddCommand(newJobsShowCommand(cctx))
	jobsCmd.AddCommand(newJobsAddCommand(cctx))
	jobsCmd.AddCommand(newJobsRequeueCommand(cctx))

	return jobsCmd
}

func newJobsListCommand(cctx *commandContext) *cobra.Command {
	var (
		statusFilters []string
		limit         int
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in lease order",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			return cctx.withStore(cmd.Context(), func(store *queue.Store) error {
				jobs, err := store.ListJobs(cmd.Context(), statuses, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, toJobJSONList(jobs))
				}
				if len(jobs) == 0 {
					if len(statuses) > 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No jobs match the given filters")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					}
					return nil
				}
				table := renderTable(
					[]string{"ID", "Status", "Progress", "Input", "Created", "Error"},
					buildJobRows(jobs),
					3,
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newJobsShowCommand(cctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its attempts, artifacts, and recent logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			if err := uuid.Validate(jobID); err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return cctx.withStore(cmd.Context(), func(store *queue.Store) error {
				job, err := store.GetJob(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				attempts, err := store.ListAttempts(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				artifacts, err := store.ListArtifacts(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				logs, err := store.ListJobLogs(cmd.Context(), jobID, jobLogTailLimit)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, struct {
						Job       jobJSON        `json:"job"`
						Attempts  []attemptJSON  `json:"attempts"`
						Artifacts []artifactJSON `json:"artifacts"`
						Logs      []jobLogJSON   `json:"logs"`
					}{
						Job:       toJobJSON(job),
						Attempts:  toAttemptJSONList(attempts),
						Artifacts: toArtifactJSONList(artifacts),
						Logs:      toJobLogJSONList(logs),
					})
				}

				renderJobDetail(cmd, job, attempts, artifacts, logs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func renderJobDetail(cmd *cobra.Command, job *queue.JobRow, attempts []*queue.Attempt, artifacts []*queue.Artifact, logs []*queue.JobLog) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Job "+job.ID, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Status", jobStatusKind(job.Status), formatStatusLabel(string(job.Status)), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d%%", job.ProgressPercent), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Priority", statusInfo, fmt.Sprintf("%d", job.Priority), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Input", statusInfo, job.InputObjectKey, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Output prefix", statusInfo, job.OutputPrefix, colorize))
	if params := strings.TrimSpace(job.ParamsJSON); params != "" && params != "{}" {
		fmt.Fprintln(stdout, renderStatusLine("Params", statusInfo, params, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Created", statusInfo, formatDisplayTime(job.CreatedAt), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, formatDisplayTimePtr(job.StartedAt), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Finished", statusInfo, formatDisplayTimePtr(job.FinishedAt), colorize))
	if job.ErrorCode != "" || job.ErrorMessage != "" {
		message := job.ErrorMessage
		if job.ErrorCode != "" && message != "" {
			message = job.ErrorCode + ": " + message
		} else if job.ErrorCode != "" {
			message = job.ErrorCode
		}
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, message, colorize))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Attempts", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(attempts) == 0 {
		fmt.Fprintln(stdout, "No attempts recorded")
	} else {
		fmt.Fprint(stdout, renderTable(
			[]string{"#", "Status", "Worker", "Started", "Finished", "Exit", "Error"},
			buildAttemptRows(attempts),
			1, 6,
		))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Artifacts", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(stdout, "No artifacts recorded")
	} else {
		fmt.Fprint(stdout, renderTable(
			[]string{"Type", "Object Key", "Content Type", "Size", "Created"},
			buildArtifactRows(artifacts),
			4,
		))
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Recent Logs", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(logs) == 0 {
		fmt.Fprintln(stdout, "No log entries recorded")
	} else {
		fmt.Fprint(stdout, renderTable(
			[]string{"Time", "Level", "Message"},
			buildJobLogRows(logs),
		))
	}
}

func jobStatusKind(status queue.JobStatus) statusKind {
	switch status {
	case queue.JobSucceeded:
		return statusOK
	case queue.JobFailed:
		return statusError
	case queue.JobRunning:
		return statusInfo
	default:
		return statusWarn
	}
}

func newJobsAddCommand(cctx *commandContext) *cobra.Command {
	var (
		input        string
		outputPrefix string
		priority     int
		fps          float64
		modelID      string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a conversion job for an uploaded video",
		RunE: func(cmd *cobra.Command, args []string) error {
			input = strings.TrimSpace(input)
			if input == "" {
				return fmt.Errorf("--input must name an object key in the input bucket")
			}
			prefix := strings.TrimSpace(outputPrefix)
			if prefix == "" {
				prefix = "outputs/" + uuid.NewString()
			}

			params := map[string]any{}
			if cmd.Flags().Changed("fps") {
				if fps <= 0 {
					return fmt.Errorf("--fps must be positive")
				}
				params["fps"] = fps
			}
			if model := strings.TrimSpace(modelID); model != "" {
				params["modelId"] = model
			}
			paramsJSON, err := json.Marshal(params)
			if err != nil {
				return fmt.Errorf("encode params: %w", err)
			}

			return cctx.withStore(cmd.Context(), func(store *queue.Store) error {
				job, err := store.Enqueue(cmd.Context(), input, prefix, priority, string(paramsJSON))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, toJobJSON(job))
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Enqueued job %s\n", job.ID)
				fmt.Fprintf(stdout, "  input:         %s\n", job.InputObjectKey)
				fmt.Fprintf(stdout, "  output prefix: %s\n", job.OutputPrefix)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Object key of the uploaded video (required)")
	cmd.Flags().StringVar(&outputPrefix, "output-prefix", "", "Output key prefix (default outputs/<random-uuid>)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Lease priority (higher leases first)")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Frame extraction rate override")
	cmd.Flags().StringVar(&modelID, "model", "", "Depth model override")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the created job as JSON")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newJobsRequeueCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <job-id>",
		Short: "Return a failed job to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			if err := uuid.Validate(jobID); err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return cctx.withStore(cmd.Context(), func(store *queue.Store) error {
				requeued, err := store.RequeueJob(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if !requeued {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %s is not in the failed state\n", jobID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued\n", jobID)
				return nil
			})
		},
	}
}
