package history

import "time"

// Actions recorded over a job's lifecycle.
const (
	ActionJobCreated    = "job_created"
	ActionScanStarted   = "scan_started"
	ActionScanCompleted = "scan_completed"
	ActionScanFailed    = "scan_failed"
)

// Entry represents one audit row for a job
type Entry struct {
	ID          int64     `json:"id"`
	JobID       string    `json:"job_id"`
	Action      string    `json:"action"`
	DetailsJSON string    `json:"details,omitempty"` // raw JSON string
	CreatedAt   time.Time `json:"created_at"`
}
