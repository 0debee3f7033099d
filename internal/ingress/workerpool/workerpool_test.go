package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_SubmitRunsJobs(t *testing.T) {
	p := New(context.Background(), 4, "worker-%d", 8)

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit("203.0.113.1", func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()

	if got := count.Load(); got != 20 {
		t.Errorf("count = %d, want 20", got)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPool_AffinityIsStable(t *testing.T) {
	idxA := workerIndex("198.51.100.1", 8)
	idxB := workerIndex("198.51.100.1", 8)
	if idxA != idxB {
		t.Errorf("workerIndex should be stable for the same key: %d != %d", idxA, idxB)
	}
}

func TestPool_SingleWorkerAlwaysIndexZero(t *testing.T) {
	if got := workerIndex("anything", 1); got != 0 {
		t.Errorf("workerIndex with n=1 = %d, want 0", got)
	}
}

func TestPool_QueueDepthTracksPending(t *testing.T) {
	p := New(context.Background(), 1, "worker-%d", 4)

	release := make(chan struct{})
	p.Submit("10.0.0.1", func(ctx context.Context) {
		<-release
	})

	// Give the single worker a moment to pick up the job.
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Submit("10.0.0.1", func(ctx context.Context) {})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if depth := p.QueueDepth(); depth < 1 {
		t.Errorf("QueueDepth() = %d, want at least 1 while the worker is busy", depth)
	}

	close(release)
	<-done
	p.Close()
}
