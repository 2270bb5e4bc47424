package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

type recordingRunner struct {
	mu   sync.Mutex
	seen []domain.JobID
	done chan struct{}
}

func newRecordingRunner(expect int) *recordingRunner {
	return &recordingRunner{done: make(chan struct{}, expect)}
}

func (r *recordingRunner) Run(_ context.Context, id domain.JobID) {
	r.mu.Lock()
	r.seen = append(r.seen, id)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingRunner) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for run %d of %d", i+1, n)
		}
	}
}

func TestDispatcherProcessesEnqueuedJobs(t *testing.T) {
	runner := newRecordingRunner(3)
	d := NewDispatcher(runner, 2, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	require.True(t, d.Enqueue("a"))
	require.True(t, d.Enqueue("b"))
	require.True(t, d.Enqueue("c"))
	runner.waitFor(t, 3)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.ElementsMatch(t, []domain.JobID{"a", "b", "c"}, runner.seen)
}

func TestDispatcherEnqueueReportsFullQueue(t *testing.T) {
	// never started, so the buffer is the only capacity
	d := NewDispatcher(newRecordingRunner(0), 1, 1)
	assert.True(t, d.Enqueue("a"))
	assert.False(t, d.Enqueue("b"))
}

func TestDispatcherRecoverReenqueuesPending(t *testing.T) {
	repo := newFakeRepo()
	ctxb := context.Background()
	require.NoError(t, repo.Create(ctxb, &domain.Job{ID: "p1", Status: domain.StatusPending}))
	require.NoError(t, repo.Create(ctxb, &domain.Job{ID: "p2", Status: domain.StatusPending}))
	require.NoError(t, repo.Create(ctxb, &domain.Job{ID: "d1", Status: domain.StatusCompleted}))

	runner := newRecordingRunner(2)
	d := NewDispatcher(runner, 2, 8)

	ctx, cancel := context.WithCancel(ctxb)
	defer cancel()
	d.Start(ctx)

	require.NoError(t, d.Recover(ctxb, repo))
	runner.waitFor(t, 2)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.ElementsMatch(t, []domain.JobID{"p1", "p2"}, runner.seen)
}

// claimingRunner mirrors the service contract: claim first, so a sweep
// re-offering the same id is a no-op.
type claimingRunner struct {
	repo domain.Repository
	done chan domain.JobID
}

func (r *claimingRunner) Run(ctx context.Context, id domain.JobID) {
	if ok, _ := r.repo.ClaimPending(ctx, id, time.Now().UTC()); ok {
		r.done <- id
	}
}

func TestRecoveryLoopRunsOverflowedJob(t *testing.T) {
	repo := newFakeRepo()
	ctxb := context.Background()
	// a durable pending row whose id never reached the queue, the state
	// Enqueue leaves behind when it returns false
	require.NoError(t, repo.Create(ctxb, &domain.Job{ID: "overflowed", Status: domain.StatusPending}))

	runner := &claimingRunner{repo: repo, done: make(chan domain.JobID, 1)}
	d := NewDispatcher(runner, 1, 1)

	ctx, cancel := context.WithCancel(ctxb)
	defer cancel()
	d.Start(ctx)
	d.StartRecovery(ctx, repo, 10*time.Millisecond)

	select {
	case id := <-runner.done:
		assert.Equal(t, domain.JobID("overflowed"), id)
	case <-time.After(2 * time.Second):
		t.Fatal("overflowed job was never picked up by the recovery sweep")
	}

	got, err := repo.Get(ctxb, "overflowed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
}

func TestDispatcherWaitAfterCancel(t *testing.T) {
	runner := newRecordingRunner(1)
	d := NewDispatcher(runner, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	require.True(t, d.Enqueue("a"))
	runner.waitFor(t, 1)

	cancel()
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after cancel")
	}
}
