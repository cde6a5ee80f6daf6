package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"parallax/internal/queue"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type jobJSON struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Priority        int             `json:"priority"`
	InputObjectKey  string          `json:"input_object_key"`
	OutputPrefix    string          `json:"output_prefix"`
	Params          json.RawMessage `json:"params,omitempty"`
	ProgressPercent int             `json:"progress_percent"`
	ErrorCode       string          `json:"error_code,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
}

func toJobJSON(job *queue.JobRow) jobJSON {
	view := jobJSON{
		ID:              job.ID,
		Status:          string(job.Status),
		Priority:        job.Priority,
		InputObjectKey:  job.InputObjectKey,
		OutputPrefix:    job.OutputPrefix,
		ProgressPercent: job.ProgressPercent,
		ErrorCode:       job.ErrorCode,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt,
		StartedAt:       job.StartedAt,
		FinishedAt:      job.FinishedAt,
	}
	if json.Valid([]byte(job.ParamsJSON)) {
		view.Params = json.RawMessage(job.ParamsJSON)
	}
	return view
}

func toJobJSONList(jobs []*queue.JobRow) []jobJSON {
	out := make([]jobJSON, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobJSON(job))
	}
	return out
}

type attemptJSON struct {
	ID           string     `json:"id"`
	AttemptNo    int        `json:"attempt_no"`
	WorkerID     string     `json:"worker_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ExitCode     *int       `json:"exit_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

func toAttemptJSONList(attempts []*queue.Attempt) []attemptJSON {
	out := make([]attemptJSON, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, attemptJSON{
			ID:           attempt.ID,
			AttemptNo:    attempt.AttemptNo,
			WorkerID:     attempt.WorkerID,
			Status:       string(attempt.Status),
			StartedAt:    attempt.StartedAt,
			FinishedAt:   attempt.FinishedAt,
			ExitCode:     attempt.ExitCode,
			ErrorMessage: attempt.ErrorMessage,
		})
	}
	return out
}

type artifactJSON struct {
	Type        string    `json:"type"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   *int64    `json:"size_bytes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toArtifactJSONList(artifacts []*queue.Artifact) []artifactJSON {
	out := make([]artifactJSON, 0, len(artifacts))
	for _, artifact := range artifacts {
		out = append(out, artifactJSON{
			Type:        artifact.Type,
			ObjectKey:   artifact.ObjectKey,
			ContentType: artifact.ContentType,
			SizeBytes:   artifact.SizeBytes,
			CreatedAt:   artifact.CreatedAt,
		})
	}
	return out
}

type jobLogJSON struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	AttemptID string    `json:"attempt_id,omitempty"`
	ObjectKey string    `json:"object_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toJobLogJSONList(logs []*queue.JobLog) []jobLogJSON {
	out := make([]jobLogJSON, 0, len(logs))
	for _, entry := range logs {
		out = append(out, jobLogJSON{
			Level:     entry.Level,
			Message:   entry.Message,
			AttemptID: entry.AttemptID,
			ObjectKey: entry.ObjectKey,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}

type workerJSON struct {
	WorkerKey       string          `json:"worker_key"`
	DisplayName     string          `json:"display_name"`
	Status          string          `json:"status"`
	LastHeartbeatAt time.Time       `json:"last_heartbeat_at"`
	IPAddress       string          `json:"ip_address,omitempty"`
	Tags            json.RawMessage `json:"tags,omitempty"`
	Capacity        json.RawMessage `json:"capacity,omitempty"`
}

func toWorkerJSONList(workers []*queue.WorkerRow) []workerJSON {
	out := make([]workerJSON, 0, len(workers))
	for _, worker := range workers {
		view := workerJSON{
			WorkerKey:       worker.WorkerKey,
			DisplayName:     worker.DisplayName,
			Status:          string(worker.Status),
			LastHeartbeatAt: worker.LastHeartbeatAt,
			IPAddress:       worker.IPAddress,
		}
		if json.Valid([]byte(worker.TagsJSON)) {
			view.Tags = json.RawMessage(worker.TagsJSON)
		}
		if json.Valid([]byte(worker.CapacityJSON)) {
			view.Capacity = json.RawMessage(worker.CapacityJSON)
		}
		out = append(out, view)
	}
	return out
}
