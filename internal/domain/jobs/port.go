package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across adapters. The HTTP layer maps these to
// distinct status codes; not-found and not-authorized are never conflated.
var (
	ErrNotFound   = errors.New("job not found")
	ErrForbidden  = errors.New("not authorized for this job")
	ErrValidation = errors.New("invalid job request")
)

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ListFilter narrows and pages a job listing. Limit is normalized by the
// caller (default 20, max 100); ordering is by creation time.
type ListFilter struct {
	Owner       string
	Status      Status
	ProjectName string
	Skip        int
	Limit       int
}

// Repository port (persistence). The store is the single source of truth for
// job state; all status changes go through the guarded transition methods so a
// reader never observes a half-updated record.
type Repository interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id JobID) (*Job, error)
	List(ctx context.Context, f ListFilter) ([]*Job, error)

	// ClaimPending flips pending -> running and sets started_at. It returns
	// false when the job was already claimed or is terminal, which makes a
	// duplicate dispatch a no-op rather than a double execution.
	ClaimPending(ctx context.Context, id JobID, startedAt time.Time) (bool, error)

	// Complete and Fail are the only paths into a terminal state. Both are
	// guarded on status=running.
	Complete(ctx context.Context, id JobID, res *Result, finishedAt time.Time) error
	Fail(ctx context.Context, id JobID, msg string, finishedAt time.Time) error

	// SetResult backfills a completed job whose result column is empty
	// (self-healing read against the legacy archive).
	SetResult(ctx context.Context, id JobID, res *Result) error

	// ListPending returns ids awaiting dispatch, oldest first. Used to
	// recover queued work after a process restart.
	ListPending(ctx context.Context) ([]JobID, error)
}

// Archive port (legacy secondary store). Never authoritative: written
// best-effort on completion, consulted only when the store row lacks a result.
type Archive interface {
	Save(ctx context.Context, id JobID, res *Result) error
	Load(ctx context.Context, id JobID) (*Result, error)
}

// Notifier port. Strictly fire-and-forget: implementations swallow their own
// failures and must never influence job state.
type Notifier interface {
	JobCompleted(ctx context.Context, j *Job)
}

// Scanner port (tool adapter). Run converts whatever the underlying tool does
// into a ScanResult; the only errors it may return are invocation-level faults
// (the command could not be started at all).
type Scanner interface {
	Run(ctx context.Context, input string) (*ScanResult, error)
}
