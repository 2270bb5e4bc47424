package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const osvTool = "osv-scanner"

// known dependency manifests, checked in degraded mode
var manifestNames = []string{"requirements.txt", "package.json", "pyproject.toml", "Gemfile", "pom.xml", "go.mod"}

// OSVScanner wraps osv-scanner for software-composition-analysis jobs against
// a local path. Without the binary it still reports which dependency
// manifests are present so the result is not empty.
type OSVScanner struct {
	Bin     string // defaults to osv-scanner
	Timeout time.Duration
}

func (o *OSVScanner) bin() string {
	if o.Bin != "" {
		return o.Bin
	}
	return osvTool
}

func (o *OSVScanner) Run(ctx context.Context, path string) (*domain.ScanResult, error) {
	bin, err := exec.LookPath(o.bin())
	if err != nil {
		return &domain.ScanResult{
			Tool:            osvTool,
			Summary:         "osv-scanner not installed - skipping SCA",
			ManifestsFound:  findManifests(path),
			Vulnerabilities: []json.RawMessage{},
			Warning:         "Install osv-scanner for dependency vulnerability scanning: go install github.com/google/osv-scanner/cmd/osv-scanner@latest",
		}, nil
	}

	out, err := runCommand(ctx, o.Timeout, bin, "--recursive", path, "--json")
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", o.bin(), err)
	}
	res := &domain.ScanResult{
		Tool:     osvTool,
		Summary:  "OSV scan completed",
		Stderr:   out.Stderr,
		ExitCode: intPtr(out.ExitCode),
	}
	if json.Valid([]byte(out.Stdout)) {
		res.Results = json.RawMessage(out.Stdout)
	} else {
		// keep the raw text so a broken run is still inspectable
		res.Stdout = out.Stdout
	}
	return res, nil
}

func findManifests(path string) []string {
	found := []string{}
	for _, m := range manifestNames {
		if _, err := os.Stat(filepath.Join(path, m)); err == nil {
			found = append(found, m)
		}
	}
	return found
}
