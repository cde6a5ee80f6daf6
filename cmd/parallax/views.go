package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"parallax/internal/queue"
)

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(status, "_", " "))
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatDisplayTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDisplayTime(*t)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t)
	if age < 0 {
		age = 0
	}
	return age.Truncate(time.Second).String() + " ago"
}

func formatSize(size *int64) string {
	if size == nil {
		return "-"
	}
	value := float64(*size)
	for _, unit := range []string{"B", "KiB", "MiB", "GiB", "TiB"} {
		if value < 1024 || unit == "TiB" {
			if unit == "B" {
				return fmt.Sprintf("%d B", *size)
			}
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return "-"
}

func truncateCell(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// buildStatsRows reports job counts in lifecycle order, skipping statuses
// with no jobs.
func buildStatsRows(stats map[queue.JobStatus]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllJobStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), fmt.Sprintf("%d", count)})
	}
	return rows
}

func buildJobRows(jobs []*queue.JobRow) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			formatStatusLabel(string(job.Status)),
			fmt.Sprintf("%d%%", job.ProgressPercent),
			job.InputObjectKey,
			formatDisplayTime(job.CreatedAt),
			orDash(job.ErrorCode),
		})
	}
	return rows
}

var workerTableHeaders = []string{"Key", "Name", "Status", "Last Heartbeat", "IP"}

func buildWorkerRows(workers []*queue.WorkerRow) [][]string {
	rows := make([][]string, 0, len(workers))
	for _, worker := range workers {
		rows = append(rows, []string{
			worker.WorkerKey,
			worker.DisplayName,
			formatStatusLabel(string(worker.Status)),
			formatAge(worker.LastHeartbeatAt),
			orDash(worker.IPAddress),
		})
	}
	return rows
}

func buildAttemptRows(attempts []*queue.Attempt) [][]string {
	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		exit := "-"
		if attempt.ExitCode != nil {
			exit = fmt.Sprintf("%d", *attempt.ExitCode)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", attempt.AttemptNo),
			formatStatusLabel(string(attempt.Status)),
			attempt.WorkerID,
			formatDisplayTime(attempt.StartedAt),
			formatDisplayTimePtr(attempt.FinishedAt),
			exit,
			truncateCell(attempt.ErrorMessage, 60),
		})
	}
	return rows
}

func buildArtifactRows(artifacts []*queue.Artifact) [][]string {
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rows = append(rows, []string{
			artifact.Type,
			artifact.ObjectKey,
			orDash(artifact.ContentType),
			formatSize(artifact.SizeBytes),
			formatDisplayTime(artifact.CreatedAt),
		})
	}
	return rows
}

func buildJobLogRows(logs []*queue.JobLog) [][]string {
	rows := make([][]string, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, []string{
			formatDisplayTime(entry.CreatedAt),
			strings.ToUpper(entry.Level),
			truncateCell(entry.Message, 80),
		})
	}
	return rows
}

// parseStatusFilters converts --status flag values into job statuses.
func parseStatusFilters(values []string) ([]queue.JobStatus, error) {
	statuses := make([]queue.JobStatus, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseJobStatus(value)
		if !ok {
			return nil, fmt.Errorf("invalid job status %q (valid: %s)", value, validStatusList())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func validStatusList() string {
	all := queue.AllJobStatuses()
	names := make([]string, 0, len(all))
	for _, status := range all {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
