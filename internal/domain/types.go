package domain

import "time"

// JobStatus tracks the lifecycle of a single transcription job.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusLaunching JobStatus = "launching"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Settings is the persisted application configuration.
type Settings struct {
	ExePath string `json:"exe_path"`
}

// JobForm is the run form as submitted by the frontend. Option fields hold
// display labels, not tool tokens.
type JobForm struct {
	InputPath string `json:"inputPath"`
	OutputDir string `json:"outputDir"`
	Language  string `json:"language"`
	Model     string `json:"model"`
	Format    string `json:"format"`
	Task      string `json:"task"`
}

// JobRequest is one run's full input, built fresh from the form and the
// configured executable.
type JobRequest struct {
	ExePath   string
	InputPath string
	OutputDir string
	Language  string
	Model     string
	Format    string
	Task      string
}

// NewJobRequest combines form state with the configured executable path.
func NewJobRequest(settings Settings, form JobForm) JobRequest {
	return JobRequest{
		ExePath:   settings.ExePath,
		InputPath: form.InputPath,
		OutputDir: form.OutputDir,
		Language:  form.Language,
		Model:     form.Model,
		Format:    form.Format,
		Task:      form.Task,
	}
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	PID        int       `json:"pid,omitempty"`
	ExitCode   int       `json:"exitCode"`
	Incomplete bool      `json:"incomplete,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
