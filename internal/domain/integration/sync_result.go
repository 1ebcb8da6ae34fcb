package integration

import "time"

// SyncOutcome classifies how a sync run ended
type SyncOutcome string

const (
	// SyncOutcomeSuccess means orders were fetched and processed
	SyncOutcomeSuccess SyncOutcome = "success"
	// SyncOutcomeEmpty means the marketplace returned no orders
	SyncOutcomeEmpty SyncOutcome = "empty"
	// SyncOutcomeSkipped means the run did not reach the marketplace
	SyncOutcomeSkipped SyncOutcome = "skipped"
	// SyncOutcomeFailed means the fetch or the run itself failed
	SyncOutcomeFailed SyncOutcome = "failed"
)

// IsValid returns true if the outcome is known
func (o SyncOutcome) IsValid() bool {
	switch o {
	case SyncOutcomeSuccess, SyncOutcomeEmpty, SyncOutcomeSkipped, SyncOutcomeFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncOutcome
func (o SyncOutcome) String() string {
	return string(o)
}

// SyncTrigger records what started a run
type SyncTrigger string

const (
	SyncTriggerSchedule SyncTrigger = "schedule"
	SyncTriggerWebhook  SyncTrigger = "webhook"
	SyncTriggerManual   SyncTrigger = "manual"
)

// SyncResult is the typed outcome of one sync run
type SyncResult struct {
	RunID    string       `json:"run_id"`
	Platform PlatformCode `json:"platform"`
	Trigger  SyncTrigger  `json:"trigger"`
	Outcome  SyncOutcome  `json:"outcome"`
	// Reason explains a skipped or failed outcome
	Reason string `json:"reason,omitempty"`

	// Fetched is the number of raw orders received
	Fetched int `json:"fetched"`
	// Created is the number of order lines persisted
	Created int `json:"created"`
	// Filtered is the number of lines rejected by the business filter
	Filtered int `json:"filtered"`
	// Skipped is the number of orders already stored
	Skipped int `json:"skipped"`
	// Deleted is the number of stored lines removed for cancelled orders
	Deleted int `json:"deleted"`
	// Failed is the number of lines that could not be persisted
	Failed int `json:"failed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the run took
func (r *SyncResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish stamps the end of the run and derives the outcome when unset
func (r *SyncResult) Finish(now time.Time) {
	r.FinishedAt = now
	if r.Outcome != "" {
		return
	}
	if r.Fetched == 0 {
		r.Outcome = SyncOutcomeEmpty
		return
	}
	r.Outcome = SyncOutcomeSuccess
}

// Fail marks the run failed with a reason
func (r *SyncResult) Fail(err error) {
	r.Outcome = SyncOutcomeFailed
	if err != nil {
		r.Reason = err.Error()
	}
}

// Skip marks the run skipped with a reason
func (r *SyncResult) Skip(reason string) {
	r.Outcome = SyncOutcomeSkipped
	r.Reason = reason
}
