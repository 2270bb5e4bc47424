package jobs

import (
	"time"
)

// ID tipe untuk Job
type JobID string

// Kind enum
type Kind string

const (
	KindAttackSurface Kind = "attack_surface"
	KindSCA           Kind = "sca"
	KindSmartContract Kind = "smart_contract"
)

// Valid reports whether the kind is one of the known scan kinds.
func (k Kind) Valid() bool {
	return k == KindAttackSurface || k == KindSCA || k == KindSmartContract
}

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusRunning || s == StatusCompleted || s == StatusFailed
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Aggregate Root: Job
// One requested scan unit with its own lifecycle and identity. Status is only
// mutated through the repository's guarded transitions; Result and ErrorMessage
// are mutually exclusive and both empty while the job is non-terminal.
type Job struct {
	ID             JobID      `json:"job_id"`
	ProjectName    string     `json:"project_name"`
	Kind           Kind       `json:"job_type"`
	Owner          string     `json:"owner,omitempty"`
	TargetURL      string     `json:"target_url,omitempty"`
	ContractSource string     `json:"-"`
	Scope          []string   `json:"scope,omitempty"`
	AcceptTerms    bool       `json:"-"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Result         *Result    `json:"result"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// CreateJobRequest is the inbound shape for job creation.
type CreateJobRequest struct {
	Kind           Kind     `json:"job_type"`
	ProjectName    string   `json:"project_name"`
	TargetURL      string   `json:"target_url"`
	ContractSource string   `json:"contract_source"`
	AcceptTerms    bool     `json:"accept_terms"`
	Scope          []string `json:"scope"`
}

// Validate checks the guardrails before any job row is created.
// A request that fails here must leave no trace in the store.
func (r *CreateJobRequest) Validate() error {
	if !r.AcceptTerms {
		return validationErr("accept_terms must be true")
	}
	if !r.Kind.Valid() {
		return validationErr("invalid job_type: " + string(r.Kind))
	}
	if r.ProjectName == "" {
		return validationErr("project_name is required")
	}
	switch r.Kind {
	case KindAttackSurface:
		if r.TargetURL == "" {
			return validationErr("target_url is required")
		}
		if !InScope(r.TargetURL, r.Scope) {
			return validationErr("target_url out of scope")
		}
	case KindSCA:
		if r.TargetURL == "" {
			return validationErr("target_url must be a local repo path for sca")
		}
	case KindSmartContract:
		if r.ContractSource == "" {
			return validationErr("contract_source is required for smart_contract")
		}
	}
	return nil
}
