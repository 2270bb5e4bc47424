package jobs

import "encoding/json"

// Issue is a single finding reported by the contract analyzer (or its
// heuristic fallback when the real tool is absent).
type Issue struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ScanResult is the normalized output of one tool invocation. The executor
// adapters never raise for tool-level problems: an absent binary yields a
// Warning with empty findings, an abnormal exit is captured via ExitCode and
// the raw output fields.
type ScanResult struct {
	Tool            string            `json:"tool"`
	Summary         string            `json:"summary"`
	Stdout          string            `json:"stdout,omitempty"`
	Stderr          string            `json:"stderr,omitempty"`
	ExitCode        *int              `json:"returncode,omitempty"`
	Findings        []json.RawMessage `json:"findings,omitempty"`
	Vulnerabilities []json.RawMessage `json:"vulnerabilities,omitempty"`
	Issues          []Issue           `json:"issues,omitempty"`
	Results         json.RawMessage   `json:"results,omitempty"`
	ManifestsFound  []string          `json:"manifests_found,omitempty"`
	Warning         string            `json:"warning,omitempty"`
}

// Degraded reports whether this result was produced without the real tool.
func (r *ScanResult) Degraded() bool {
	return r != nil && r.Warning != ""
}

// Result is the per-job union of tool sub-results. Which fields are set
// depends on the job kind; the attack_surface pair is filled independently so
// one degraded tool never blanks the other.
type Result struct {
	ProjectName      string      `json:"project_name"`
	Kind             Kind        `json:"job_type"`
	TargetURL        string      `json:"target_url,omitempty"`
	WebScan          *ScanResult `json:"web_scan,omitempty"`
	Nuclei           *ScanResult `json:"nuclei,omitempty"`
	SCA              *ScanResult `json:"sca,omitempty"`
	ContractAnalysis *ScanResult `json:"contract_analysis,omitempty"`
}
