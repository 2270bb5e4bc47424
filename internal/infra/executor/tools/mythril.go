package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const mythrilTool = "mythril"

// MythrilAnalyzer wraps the Mythril static analyzer for smart-contract jobs.
// Mythril wants a file on disk, so the source text goes through a temp .sol
// file. When the binary is absent a cheap textual heuristic still flags the
// obvious risky pattern instead of returning nothing.
type MythrilAnalyzer struct {
	Bin     string // defaults to mythril
	Timeout time.Duration
}

func (m *MythrilAnalyzer) bin() string {
	if m.Bin != "" {
		return m.Bin
	}
	return mythrilTool
}

func (m *MythrilAnalyzer) Run(ctx context.Context, source string) (*domain.ScanResult, error) {
	bin, err := exec.LookPath(m.bin())
	if err != nil {
		return &domain.ScanResult{
			Tool:    mythrilTool,
			Summary: "Mythril not installed - basic heuristic only",
			Issues:  heuristicIssues(source),
			Warning: "Install Mythril for real smart contract analysis: pip install mythril",
		}, nil
	}

	tmp, err := os.CreateTemp("", "contract-*.sol")
	if err != nil {
		return nil, fmt.Errorf("writing contract source: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing contract source: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing contract source: %w", err)
	}

	out, err := runCommand(ctx, m.Timeout, bin, "-x", tmp.Name(), "--no-color")
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", m.bin(), err)
	}
	return &domain.ScanResult{
		Tool:     mythrilTool,
		Summary:  "Mythril analysis completed",
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: intPtr(out.ExitCode),
	}, nil
}

// heuristicIssues is the degraded-mode pattern check over raw source.
func heuristicIssues(source string) []domain.Issue {
	issues := []domain.Issue{}
	if strings.Contains(source, "call.value") {
		issues = append(issues, domain.Issue{
			ID:          "PATTERN_DETECTED",
			Description: "call.value pattern detected - review for reentrancy (install Mythril for proper analysis)",
			Severity:    "info",
		})
	}
	return issues
}
