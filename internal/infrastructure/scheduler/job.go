package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a named routine executed on a fixed interval
type Job struct {
	// Name identifies the job in logs, history and manual triggers
	Name string
	// InitialDelay is the wait before the first run; zero runs immediately
	InitialDelay time.Duration
	// Interval is the wait between the start of consecutive runs
	Interval time.Duration
	// Run does the work. A returned error marks the run failed.
	Run func(ctx context.Context) error
}

// Validate validates the job definition
func (j Job) Validate() error {
	if j.Name == "" || j.Run == nil {
		return ErrInvalidConfig
	}
	if j.Interval <= 0 || j.InitialDelay < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// JobRun records one execution of a job
type JobRun struct {
	ID          uuid.UUID  `json:"id"`
	Job         string     `json:"job"`
	Manual      bool       `json:"manual"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newJobRun(name string, manual bool, now time.Time) *JobRun {
	return &JobRun{
		ID:        uuid.New(),
		Job:       name,
		Manual:    manual,
		Status:    JobStatusRunning,
		StartedAt: now,
	}
}

// Complete marks the run as successful
func (r *JobRun) Complete(now time.Time) {
	r.Status = JobStatusSuccess
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *JobRun) Fail(err string, now time.Time) {
	r.Status = JobStatusFailed
	r.Error = err
	r.CompletedAt = &now
}

// Duration returns how long the run took, zero while it is running
func (r *JobRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
