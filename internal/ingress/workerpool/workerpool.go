package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of work submitted to the pool: typically "drive
// this connection to completion."
type Job func(ctx context.Context)

// Pool is a bounded set of named worker goroutines, each with its own
// queue. A job is routed to a worker by hashing an affinity key (the
// connection's remote IP) so repeated connections from the same
// client land on the same worker.
type Pool struct {
	workers []*worker
	group   *errgroup.Group
	ctx     context.Context

	depth atomic.Int64
}

type worker struct {
	name  string
	queue chan Job
}

// New creates a pool of n workers, each named via nameFormat (a
// fmt-style template expecting one %d verb), with the given per-
// worker queue depth. Jobs run with ctx as their parent context, so
// cancelling ctx unblocks every handler at its next suspension point.
func New(ctx context.Context, n int, nameFormat string, queueDepth int) *Pool {
	if n <= 0 {
		n = 1
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}

	group, groupCtx := errgroup.WithContext(ctx)

	p := &Pool{
		workers: make([]*worker, n),
		group:   group,
		ctx:     groupCtx,
	}

	for i := 0; i < n; i++ {
		name := nameFormat
		if name == "" {
			name = "worker-%d"
		}
		w := &worker{name: fmt.Sprintf(name, i), queue: make(chan Job, queueDepth)}
		p.workers[i] = w

		group.Go(func() error {
			return p.run(w)
		})
	}

	return p
}

// run drains w.queue until it is closed, then returns. It does not
// watch p.ctx directly: a job in flight is expected to observe ctx
// cancellation itself at its next suspension point, per spec.md §5's
// cancellation model.
func (p *Pool) run(w *worker) error {
	for job := range w.queue {
		p.depth.Add(-1)
		job(p.ctx)
	}
	return nil
}

// Submit routes job to the worker selected by affinityKey (typically
// the remote IP). It blocks if that worker's queue is full, applying
// natural backpressure rather than dropping work silently.
func (p *Pool) Submit(affinityKey string, job Job) {
	w := p.workers[workerIndex(affinityKey, len(p.workers))]
	p.depth.Add(1)
	w.queue <- job
}

// workerIndex hashes key with murmur3 to a stable worker index,
// giving per-IP worker affinity.
func workerIndex(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(murmur3.Sum32([]byte(key)) % uint32(n))
}

// QueueDepth returns the total number of jobs currently queued across
// every worker, sampled for the admin surface and metrics collector.
func (p *Pool) QueueDepth() int {
	return int(p.depth.Load())
}

// Close stops accepting new work by closing every worker's queue and
// waits for all in-flight and already-queued jobs to finish.
func (p *Pool) Close() error {
	for _, w := range p.workers {
		close(w.queue)
	}
	return p.group.Wait()
}
