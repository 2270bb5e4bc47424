package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

func TestFSRoundtrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	require.NoError(t, err)

	want := &domain.Result{
		ProjectName: "acme",
		Kind:        domain.KindAttackSurface,
		TargetURL:   "https://app.acme.example",
		WebScan:     &domain.ScanResult{Tool: "owasp_zap", Summary: "ZAP quick scan completed"},
	}
	require.NoError(t, fs.Save(context.Background(), "job-1", want))

	// layout matches what the legacy scripts expect
	b, err := os.ReadFile(filepath.Join(dir, "job-1.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(b))

	got, err := fs.Load(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFSLoadMiss(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFSLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{truncated"), 0o644))

	_, err = fs.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestNewFSCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	_, err := NewFS(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
