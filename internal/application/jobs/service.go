package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/bounty-platform/internal/application"
	"github.com/bryanwahyu/bounty-platform/internal/domain/history"
	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Enqueuer hands a persisted job id to the background dispatcher.
type Enqueuer interface {
	Enqueue(id domain.JobID) bool
}

// Metrics receives lifecycle counter hooks. Optional.
type Metrics interface {
	JobSubmitted()
	JobStarted()
	JobCompleted()
	JobFailed()
}

// Service owns the job state machine: it validates requests, persists the
// pending row before anything is dispatched, drives pending -> running ->
// {completed, failed}, and reconciles the store with the legacy archive on
// read.
//
// Service is safe for concurrent use.
type Service struct {
	Repo     domain.Repository
	Archive  domain.Archive
	Notifier domain.Notifier
	History  history.Repository
	Queue    Enqueuer
	Metrics  Metrics
	Clock    application.Clock

	// One adapter per tool kind. The attack_surface pair runs concurrently.
	WebScanner      domain.Scanner
	TemplateScanner domain.Scanner
	DepScanner      domain.Scanner
	ContractScanner domain.Scanner
}

// Create validates the request, inserts the pending row and enqueues the job
// for background execution. It returns as soon as the row is durable; the
// caller never waits on a scan. Each submission gets a fresh id, so identical
// inputs submitted twice become two independently tracked jobs.
func (s *Service) Create(ctx context.Context, req domain.CreateJobRequest, owner string) (*domain.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:             domain.JobID(uuid.New().String()),
		ProjectName:    req.ProjectName,
		Kind:           req.Kind,
		Owner:          owner,
		TargetURL:      req.TargetURL,
		ContractSource: req.ContractSource,
		Scope:          req.Scope,
		AcceptTerms:    req.AcceptTerms,
		Status:         domain.StatusPending,
		CreatedAt:      s.Clock.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	s.logHistory(ctx, job.ID, history.ActionJobCreated, map[string]any{
		"project": job.ProjectName,
		"type":    string(job.Kind),
	})
	if s.Metrics != nil {
		s.Metrics.JobSubmitted()
	}

	// Row is durable before the task exists anywhere else.
	if s.Queue != nil {
		if !s.Queue.Enqueue(job.ID) {
			log.Printf("dispatch queue full, job %s stays pending until recovery", job.ID)
		}
	}
	return job, nil
}

// Run executes one job end to end. It is invoked by dispatcher workers and
// must be called at most once effectively per id: the repository claim makes
// any duplicate dispatch a no-op. Orchestration faults transition the job to
// failed; tool-level problems never do (the adapters fold those into their
// results).
func (s *Service) Run(ctx context.Context, id domain.JobID) {
	started := s.Clock.Now().UTC()
	claimed, err := s.Repo.ClaimPending(ctx, id, started)
	if err != nil {
		log.Printf("job %s: claim error: %v", id, err)
		return
	}
	if !claimed {
		// Already running, terminal, or gone. Nothing to do.
		return
	}
	if s.Metrics != nil {
		s.Metrics.JobStarted()
	}

	job, err := s.Repo.Get(ctx, id)
	if err != nil {
		s.fail(ctx, id, fmt.Sprintf("loading claimed job: %v", err))
		return
	}
	s.logHistory(ctx, id, history.ActionScanStarted, map[string]any{"type": string(job.Kind)})

	// The job boundary: anything unexpected below lands the job in failed,
	// never crashes the process.
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, id, fmt.Sprintf("panic during scan dispatch: %v", r))
		}
	}()

	result, err := s.runScans(ctx, job)
	if err != nil {
		s.fail(ctx, id, err.Error())
		return
	}

	finished := s.Clock.Now().UTC()
	if err := s.Repo.Complete(ctx, id, result, finished); err != nil {
		log.Printf("job %s: completing: %v", id, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.JobCompleted()
	}
	s.logHistory(ctx, id, history.ActionScanCompleted, map[string]any{
		"findings_count": domain.CountFindings(result).Total(),
	})

	// Legacy archive write is best-effort and independent of the store write.
	if s.Archive != nil {
		if err := s.Archive.Save(ctx, id, result); err != nil {
			log.Printf("job %s: archive write failed: %v", id, err)
		}
	}

	if s.Notifier != nil {
		done := *job
		done.Status = domain.StatusCompleted
		done.Result = result
		done.StartedAt = &started
		done.FinishedAt = &finished
		s.Notifier.JobCompleted(ctx, &done)
	}
}

func (s *Service) fail(ctx context.Context, id domain.JobID, msg string) {
	if err := s.Repo.Fail(ctx, id, msg, s.Clock.Now().UTC()); err != nil {
		log.Printf("job %s: marking failed: %v", id, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.JobFailed()
	}
	s.logHistory(ctx, id, history.ActionScanFailed, map[string]any{"error": msg})
}

// runScans dispatches per kind and assembles the result union. For
// attack_surface the two scans are a join, not a race: both run to completion
// (or degrade) before aggregation, and a fault in one does not cancel the
// sibling already in flight.
func (s *Service) runScans(ctx context.Context, job *domain.Job) (*domain.Result, error) {
	res := &domain.Result{
		ProjectName: job.ProjectName,
		Kind:        job.Kind,
		TargetURL:   job.TargetURL,
	}

	switch job.Kind {
	case domain.KindAttackSurface:
		// Plain errgroup, no shared cancellation context.
		var g errgroup.Group
		g.Go(func() error {
			r, err := s.WebScanner.Run(ctx, job.TargetURL)
			if err != nil {
				return fmt.Errorf("web scan: %w", err)
			}
			res.WebScan = r
			return nil
		})
		g.Go(func() error {
			r, err := s.TemplateScanner.Run(ctx, job.TargetURL)
			if err != nil {
				return fmt.Errorf("template scan: %w", err)
			}
			res.Nuclei = r
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

	case domain.KindSCA:
		r, err := s.DepScanner.Run(ctx, job.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("dependency scan: %w", err)
		}
		res.SCA = r

	case domain.KindSmartContract:
		r, err := s.ContractScanner.Run(ctx, job.ContractSource)
		if err != nil {
			return nil, fmt.Errorf("contract analysis: %w", err)
		}
		res.ContractAnalysis = r

	default:
		return nil, fmt.Errorf("unsupported job kind: %s", job.Kind)
	}
	return res, nil
}

// Get returns a job, enforcing ownership when enabled and self-healing a
// completed row whose result column is empty by consulting the archive. An
// archive miss is not an error; the job comes back with a null result.
func (s *Service) Get(ctx context.Context, id domain.JobID, owner string) (*domain.Job, error) {
	job, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != "" && job.Owner != "" && job.Owner != owner {
		return nil, domain.ErrForbidden
	}
	if job.Status == domain.StatusCompleted && job.Result == nil && s.Archive != nil {
		if res, aerr := s.Archive.Load(ctx, id); aerr == nil && res != nil {
			if uerr := s.Repo.SetResult(ctx, id, res); uerr != nil {
				log.Printf("job %s: result backfill failed: %v", id, uerr)
			}
			job.Result = res
		}
	}
	return job, nil
}

// List returns a page of jobs. When ownership is enabled the filter is pinned
// to the caller's owner so there is no cross-owner read.
func (s *Service) List(ctx context.Context, f domain.ListFilter, owner string) ([]*domain.Job, error) {
	if owner != "" {
		f.Owner = owner
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return s.Repo.List(ctx, f)
}

// History returns the audit trail for a job, applying the same ownership rule
// as Get.
func (s *Service) JobHistory(ctx context.Context, id domain.JobID, owner string, limit int) ([]*history.Entry, error) {
	if _, err := s.Get(ctx, id, owner); err != nil {
		return nil, err
	}
	if s.History == nil {
		return nil, nil
	}
	return s.History.ListByJob(ctx, string(id), limit)
}

func (s *Service) logHistory(ctx context.Context, id domain.JobID, action string, details map[string]any) {
	if s.History == nil {
		return
	}
	b, _ := json.Marshal(details)
	e := &history.Entry{
		JobID:       string(id),
		Action:      action,
		DetailsJSON: string(b),
		CreatedAt:   s.Clock.Now().UTC(),
	}
	if err := s.History.Append(ctx, e); err != nil {
		log.Printf("job %s: history append failed: %v", id, err)
	}
}
