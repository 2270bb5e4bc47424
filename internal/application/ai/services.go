package ai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/bounty-platform/internal/domain/ai"
	"github.com/bryanwahyu/bounty-platform/internal/domain/analysis"
)

// Service runs AI analysis over a completed job's result payload and stores
// the outcome for later retrieval.
type Service struct {
	client ai.Client
	repo   analysis.Repository
}

func NewService(client ai.Client, repo analysis.Repository) *Service {
	return &Service{client: client, repo: repo}
}

// AnalyzeAndStore sends the result JSON to the AI client and persists the
// analysis keyed to the job.
func (s *Service) AnalyzeAndStore(ctx context.Context, owner, jobID, resultJSON string) (*analysis.Analysis, error) {
	out, err := s.client.Analyze(ctx, resultJSON)
	if err != nil {
		return nil, err
	}
	a := &analysis.Analysis{
		ID:        analysis.AnalysisID(uuid.New().String()),
		JobID:     jobID,
		Owner:     owner,
		Result:    out,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnalyses returns a page of stored analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, owner string, page, pageSize int) ([]*analysis.Analysis, error) {
	return s.repo.Paginate(ctx, owner, page, pageSize)
}
