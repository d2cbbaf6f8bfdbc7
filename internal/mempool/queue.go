package mempool

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/stathera/txadmission/pkg/logging"
)

// PipelineFunc runs the post-worker pipeline for one ticket's ready
// result.
type PipelineFunc func(ctx context.Context, job *PendingJobResult)

// CompletionQueue is the single-consumer serialisation point for
// worker results: at most one pipeline runs at any time, process-wide,
// in arrival order. This is the chokepoint that makes wallet-apply and
// mempool-insert safe without their own concurrency control. Delivery
// is a growable slice guarded by a mutex/cond rather than a channel, so
// Submit never blocks the broker regardless of how far the consumer
// falls behind.
type CompletionQueue struct {
	mu       sync.Mutex
	cond     sync.Cond
	items    []*PendingJobResult
	closed   bool
	pipeline PipelineFunc
	logger   *logging.Logger
	yield    time.Duration
}

// NewCompletionQueue creates a queue with no bounded capacity and no
// backpressure onto the broker. yield is the brief pause the consumer
// takes between items so a burst of completions cannot starve the
// submit path; zero defaults to 10ms, matching the source.
func NewCompletionQueue(pipeline PipelineFunc, logger *logging.Logger, yield time.Duration) *CompletionQueue {
	if yield <= 0 {
		yield = 10 * time.Millisecond
	}
	q := &CompletionQueue{
		pipeline: pipeline,
		logger:   logger,
		yield:    yield,
	}
	q.cond.L = &q.mu
	return q
}

// Submit is the only legal entry point into the queue; the worker
// broker calls it exactly once per ticket. It never blocks: the item
// is appended to the backing slice, which grows without limit.
func (q *CompletionQueue) Submit(job *PendingJobResult) {
	q.mu.Lock()
	q.items = append(q.items, job)
	q.mu.Unlock()
	q.cond.Signal()
}

// Run consumes items until ctx is cancelled. Intended to be started in
// its own goroutine by the owning Processor.
func (q *CompletionQueue) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		q.cond.Broadcast()
	}()

	for {
		job, ok := q.next()
		if !ok {
			return
		}
		q.runOne(ctx, job)
		runtime.Gosched()
		time.Sleep(q.yield)
	}
}

// next blocks until an item is available or the queue is closed, in
// which case it returns (nil, false).
func (q *CompletionQueue) next() (*PendingJobResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items = q.items[1:]
	return job, true
}

// runOne guards a single pipeline execution so a panic abandons only
// the faulting ticket: the queue logs and moves to the next item, and
// the ticket is left without a processed entry. Its pending and partial
// entries and its dedup-cache ids are not cleaned up.
func (q *CompletionQueue) runOne(ctx context.Context, job *PendingJobResult) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.WithTicket(job.TicketID).Error("pipeline panicked, ticket abandoned", "panic", r)
		}
	}()
	q.pipeline(ctx, job)
}
