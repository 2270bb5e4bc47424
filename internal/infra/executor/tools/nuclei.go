package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const nucleiTool = "nuclei"

// NucleiScanner wraps nuclei for CVE/template scans. Findings are parsed out
// of the JSONL stdout; unparseable lines are skipped rather than failing the
// scan.
type NucleiScanner struct {
	Bin     string // defaults to nuclei
	Timeout time.Duration
}

func (n *NucleiScanner) bin() string {
	if n.Bin != "" {
		return n.Bin
	}
	return nucleiTool
}

func (n *NucleiScanner) Run(ctx context.Context, target string) (*domain.ScanResult, error) {
	bin, err := exec.LookPath(n.bin())
	if err != nil {
		return &domain.ScanResult{
			Tool:     nucleiTool,
			Summary:  "nuclei not installed - skipping CVE scan",
			Findings: []json.RawMessage{},
			Warning:  "Install nuclei for CVE scanning: go install github.com/projectdiscovery/nuclei/v2/cmd/nuclei@latest",
		}, nil
	}

	out, err := runCommand(ctx, n.Timeout, bin, "-u", target, "-json", "-silent")
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", n.bin(), err)
	}
	findings := parseNucleiOutput(out.Stdout)
	return &domain.ScanResult{
		Tool:     nucleiTool,
		Summary:  fmt.Sprintf("nuclei completed, %d findings", len(findings)),
		Stderr:   out.Stderr,
		ExitCode: intPtr(out.ExitCode),
		Findings: findings,
	}, nil
}

// parseNucleiOutput collects the valid JSON lines from nuclei's JSONL output.
func parseNucleiOutput(stdout string) []json.RawMessage {
	findings := []json.RawMessage{}
	s := bufio.NewScanner(strings.NewReader(stdout))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			continue
		}
		findings = append(findings, json.RawMessage(line))
	}
	return findings
}
