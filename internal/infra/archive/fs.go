package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

// FS is the legacy on-disk archive: one <dir>/<job-id>.json per completed
// job, holding the same result structure the API returns. It is a secondary
// sink; callers treat write failures as best-effort and a missing file as a
// plain miss.
type FS struct {
	dir string
}

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &FS{dir: dir}, nil
}

func (f *FS) path(id domain.JobID) string {
	return filepath.Join(f.dir, string(id)+".json")
}

func (f *FS) Save(_ context.Context, id domain.JobID, res *domain.Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(id), b, 0o644)
}

func (f *FS) Load(_ context.Context, id domain.JobID) (*domain.Result, error) {
	b, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var res domain.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decoding archived result %s: %w", id, err)
	}
	return &res, nil
}
