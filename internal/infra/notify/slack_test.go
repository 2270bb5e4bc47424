package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

func completedJob() *domain.Job {
	return &domain.Job{
		ID:          "job-1",
		ProjectName: "acme",
		Kind:        domain.KindAttackSurface,
		Status:      domain.StatusCompleted,
		Result: &domain.Result{
			WebScan: &domain.ScanResult{Vulnerabilities: []json.RawMessage{{}, {}}},
			Nuclei:  &domain.ScanResult{Findings: []json.RawMessage{{}}},
		},
	}
}

func TestSlackPostsSummary(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	s.JobCompleted(context.Background(), completedJob())

	require.Contains(t, got, "text")
	assert.Contains(t, got["text"], "job job-1")
	assert.Contains(t, got["text"], "project: acme")
	assert.Contains(t, got["text"], "web:2 nuclei:1")
}

func TestSlackDisabledWithoutURL(t *testing.T) {
	s := NewSlack("")
	// must be a silent no-op
	s.JobCompleted(context.Background(), completedJob())
}

func TestSlackSwallowsTransportErrors(t *testing.T) {
	s := NewSlack("http://127.0.0.1:1/webhook")
	assert.NotPanics(t, func() {
		s.JobCompleted(context.Background(), completedJob())
	})
}

func TestSlackSwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	assert.NotPanics(t, func() {
		s.JobCompleted(context.Background(), completedJob())
	})
}
