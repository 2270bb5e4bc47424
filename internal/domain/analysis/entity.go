package analysis

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis represents an AI review of a completed job's result, stored for
// auditing and retrieval
type Analysis struct {
	ID        AnalysisID `json:"id"`
	JobID     string     `json:"job_id"`
	Owner     string     `json:"owner,omitempty"`
	Result    string     `json:"result"` // JSON string from AI
	CreatedAt time.Time  `json:"created_at"`
}
