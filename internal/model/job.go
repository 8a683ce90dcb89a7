package model

import "time"

// JobStatus is the lifecycle state of one parse job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// JobProgress is structured progress for one job.
type JobProgress struct {
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
}

// Job is the tracked record for one asynchronous parse.
type Job struct {
	JobID       string       `json:"jobId"`
	UserID      string       `json:"userId"`
	FileName    string       `json:"fileName"`
	FileSize    int64        `json:"fileSize"`
	Status      JobStatus    `json:"status"`
	Progress    JobProgress  `json:"progress"`
	CreatedAt   time.Time    `json:"createdAt"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Error       string       `json:"error,omitempty"`
	Result      *ParseResult `json:"result,omitempty"`
	RetryCount  int          `json:"retryCount"`
	MaxRetries  int          `json:"maxRetries"`
}
