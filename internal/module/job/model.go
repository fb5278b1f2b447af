package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/omnimedia/server/internal/module/media"
)

// Errors.
var (
	ErrJobNotFound      = errors.New("job not found")
	ErrDuplicateJob     = errors.New("job already exists")
	ErrAlreadyCompleted = errors.New("job already completed")
	ErrWorkerStopping   = errors.New("worker is still stopping")
)

// Status represents the job record status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal returns true if the status is terminal.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Runner executes a generation request.
type Runner interface {
	Run(ctx context.Context, req *media.Request) *media.Response
}

// CompletionFunc receives the outcome of a job. err is set when the run
// itself blew up rather than producing a failed response.
type CompletionFunc func(resp *media.Response, err error)

// Job is a queued request with a single-fire completion callback.
type Job struct {
	ID         string
	Request    *media.Request
	EnqueuedAt time.Time

	onComplete CompletionFunc
	once       sync.Once
}

// New creates a job. onComplete may be nil.
func New(id string, req *media.Request, onComplete CompletionFunc) *Job {
	return &Job{
		ID:         id,
		Request:    req,
		EnqueuedAt: time.Now(),
		onComplete: onComplete,
	}
}

// Complete fires the completion callback. Only the first call has effect;
// later calls return ErrAlreadyCompleted.
func (j *Job) Complete(resp *media.Response, err error) error {
	fired := false
	j.once.Do(func() {
		fired = true
		if j.onComplete != nil {
			j.onComplete(resp, err)
		}
	})
	if !fired {
		return ErrAlreadyCompleted
	}
	return nil
}

// Record is the stored state of a job.
type Record struct {
	ID          string          `json:"job_id"`
	Modality    media.Modality  `json:"modality"`
	Status      Status          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Response    *media.Response `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
}
