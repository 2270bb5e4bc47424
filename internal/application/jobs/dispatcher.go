package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

// DefaultRecoveryInterval paces the background sweep for pending rows that
// never reached a worker.
const DefaultRecoveryInterval = 30 * time.Second

// JobRunner executes one claimed job to a terminal state.
type JobRunner interface {
	Run(ctx context.Context, id domain.JobID)
}

// Dispatcher decouples job submission from execution: Create pushes ids onto
// a buffered queue and a fixed pool of workers drains it. The concurrency cap
// bounds simultaneous tool invocations; cross-job ordering is not guaranteed.
type Dispatcher struct {
	runner  JobRunner
	queue   chan domain.JobID
	workers int

	startOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(runner JobRunner, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}
	return &Dispatcher{
		runner:  runner,
		queue:   make(chan domain.JobID, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled; jobs
// already picked up run to completion because Run uses its own context per
// job transition.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go func(idx int) {
				defer d.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case id, ok := <-d.queue:
						if !ok {
							return
						}
						d.runner.Run(context.Background(), id)
					}
				}
			}(i)
		}
	})
}

// Enqueue hands a job id to the pool. Returns false when the queue is full;
// the pending row stays durable and Recover will pick it up later.
func (d *Dispatcher) Enqueue(id domain.JobID) bool {
	select {
	case d.queue <- id:
		return true
	default:
		return false
	}
}

// Recover re-enqueues jobs that were persisted as pending but never reached a
// worker (queue overflow, or a restart between insert and dispatch). Safe to
// run concurrently with live traffic: the repository claim keeps any job from
// being executed twice.
func (d *Dispatcher) Recover(ctx context.Context, repo domain.Repository) error {
	ids, err := repo.ListPending(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !d.Enqueue(id) {
			log.Printf("recovery: queue full, %s deferred", id)
			break
		}
	}
	return nil
}

// StartRecovery runs Recover once immediately and then on a ticker until ctx
// is canceled. This is what keeps a job accepted during queue overflow from
// staying pending until the next restart: the durable row is the source of
// truth and the sweep re-offers it whenever queue space frees up. Re-offering
// an id that is already queued is harmless, the claim makes the loser a no-op.
func (d *Dispatcher) StartRecovery(ctx context.Context, repo domain.Repository, every time.Duration) {
	if every <= 0 {
		every = DefaultRecoveryInterval
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Recover(ctx, repo); err != nil {
			log.Printf("pending job recovery: %v", err)
		}
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := d.Recover(ctx, repo); err != nil {
					log.Printf("pending job recovery: %v", err)
				}
			}
		}
	}()
}

// Wait blocks until all workers have exited. Used on shutdown after the
// context passed to Start is canceled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
