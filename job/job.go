package job

import (
	"context"
	"time"
)

type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Job is one user-submitted video-translation request and its lifecycle state.
type Job struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	SourceLanguage   string    `json:"sourceLanguage"`
	UploadPath       string    `json:"-"`
	Status           Status    `json:"status"`
	Progress         int       `json:"progress"`
	Message          string    `json:"message"`
	OutputPath       string    `json:"-"`
	SubtitlePath     string    `json:"-"`
	DownloadURL      string    `json:"downloadUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	StartedAt        time.Time `json:"startedAt,omitempty"`
	CompletedAt      time.Time `json:"completedAt,omitempty"`

	cancelFunc context.CancelFunc
}

// SubmitRequest describes a freshly uploaded video.
type SubmitRequest struct {
	ID               string // assigned when empty
	OriginalFilename string
	UploadPath       string
	SourceLanguage   string
}

// Result carries the artifacts a runner produced for a job.
type Result struct {
	OutputPath   string
	SubtitlePath string
}

// ProgressFunc reports stage progress in percent with a human-readable message.
type ProgressFunc func(progress int, message string)

// Runner executes the processing pipeline for one job.
type Runner interface {
	Run(ctx context.Context, j *Job, onProgress ProgressFunc) (Result, error)
}

func cloneJob(j *Job) *Job {
	if j == nil {
		return nil
	}
	tmp := *j
	return &tmp
}
