package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FindingCounts holds per-tool finding totals, used for notification
// summaries and audit details.
type FindingCounts struct {
	Web      int
	Nuclei   int
	SCA      int
	Contract int
}

// Total sums all per-tool counts.
func (c FindingCounts) Total() int {
	return c.Web + c.Nuclei + c.SCA + c.Contract
}

// Summary renders the counts in the short "web:2 nuclei:3" form, or "done"
// when nothing ran.
func (c FindingCounts) Summary() string {
	var parts []string
	if c.Web > 0 {
		parts = append(parts, fmt.Sprintf("web:%d", c.Web))
	}
	if c.Nuclei > 0 {
		parts = append(parts, fmt.Sprintf("nuclei:%d", c.Nuclei))
	}
	if c.SCA > 0 {
		parts = append(parts, fmt.Sprintf("sca:%d", c.SCA))
	}
	if c.Contract > 0 {
		parts = append(parts, fmt.Sprintf("contract:%d", c.Contract))
	}
	if len(parts) == 0 {
		return "done"
	}
	return strings.Join(parts, " ")
}

// CountFindings tallies findings across the sub-results of a job result.
// Tool payloads are treated leniently: anything that does not parse counts
// as zero rather than an error.
func CountFindings(res *Result) FindingCounts {
	var c FindingCounts
	if res == nil {
		return c
	}
	if res.WebScan != nil {
		c.Web = len(res.WebScan.Vulnerabilities)
	}
	if res.Nuclei != nil {
		c.Nuclei = len(res.Nuclei.Findings)
	}
	if res.SCA != nil {
		c.SCA = countSCAVulns(res.SCA)
	}
	if res.ContractAnalysis != nil {
		c.Contract = len(res.ContractAnalysis.Issues)
	}
	return c
}

func countSCAVulns(sr *ScanResult) int {
	if n := len(sr.Vulnerabilities); n > 0 {
		return n
	}
	if len(sr.Results) == 0 {
		return 0
	}
	var doc struct {
		Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
		Results         []struct {
			Packages []struct {
				Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
			} `json:"packages"`
		} `json:"results"`
	}
	if err := json.Unmarshal(sr.Results, &doc); err != nil {
		return 0
	}
	n := len(doc.Vulnerabilities)
	for _, r := range doc.Results {
		for _, p := range r.Packages {
			n += len(p.Vulnerabilities)
		}
	}
	return n
}
