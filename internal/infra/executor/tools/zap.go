package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const zapTool = "owasp_zap"

// ZAPScanner wraps the OWASP ZAP CLI for web attack-surface scans. When the
// binary is absent the scan degrades to an empty result with a warning.
type ZAPScanner struct {
	Bin     string // defaults to zap-cli
	Timeout time.Duration
}

func (z *ZAPScanner) bin() string {
	if z.Bin != "" {
		return z.Bin
	}
	return "zap-cli"
}

func (z *ZAPScanner) Run(ctx context.Context, target string) (*domain.ScanResult, error) {
	bin, err := exec.LookPath(z.bin())
	if err != nil {
		return &domain.ScanResult{
			Tool:            zapTool,
			Summary:         "OWASP ZAP not installed - skipping web scan",
			Vulnerabilities: []json.RawMessage{},
			Warning:         "Install ZAP for real vulnerability scanning: apt-get install zaproxy",
		}, nil
	}

	out, err := runCommand(ctx, z.Timeout, bin, "quick-scan", target)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", z.bin(), err)
	}
	return &domain.ScanResult{
		Tool:     zapTool,
		Summary:  "ZAP quick scan completed",
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: intPtr(out.ExitCode),
	}, nil
}
