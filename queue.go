package rpgtl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// QueueConfig bounds how translation jobs are dispatched.
type QueueConfig struct {
	MaxConcurrent int           // Jobs allowed in flight at once
	MinInterval   time.Duration // Minimum spacing between two dispatches
}

// DefaultQueueConfig returns the public-endpoint friendly defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxConcurrent: 5,
		MinInterval:   500 * time.Millisecond,
	}
}

// JobState is the lifecycle position of one scheduled job.
type JobState int

const (
	JobQueued JobState = iota
	JobDispatched
	JobSettled
)

func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobDispatched:
		return "dispatched"
	case JobSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// WorkFunc performs one job. It runs on its own goroutine.
type WorkFunc func(ctx context.Context, unit TextUnit) (string, error)

// Result is the outcome of one settled job.
type Result struct {
	ID   int // Position of the unit in the scheduled slice
	Unit TextUnit
	Text string
	Err  error
}

// BatchStats is a snapshot of a batch's progress.
type BatchStats struct {
	Total      int
	Queued     int
	Dispatched int // Currently in flight
	Settled    int
	Succeeded  int
	Failed     int
}

// Queue dispatches jobs with bounded concurrency and a minimum spacing
// between dispatches. One queue may be shared by many batches; the bounds
// apply across all of them.
type Queue struct {
	cfg     QueueConfig
	sem     *semaphore.Weighted
	limiter *RateLimiter
}

// NewQueue creates a queue. A non-positive MaxConcurrent is treated as 1
// and a negative MinInterval as 0.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Queue{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		limiter: NewIntervalLimiter(cfg.MinInterval),
	}
}

// Config returns the effective configuration.
func (q *Queue) Config() QueueConfig {
	return q.cfg
}

// Schedule enqueues one job per unit and starts dispatching them in order.
// onSettled, if non-nil, is called exactly once per job and may be called
// from several goroutines at once. The returned batch drains after the last
// onSettled call has returned.
//
// Cancelling ctx stops dispatch and is also seen by in-flight work;
// Batch.Cancel only stops dispatch.
func (q *Queue) Schedule(ctx context.Context, units []TextUnit, work WorkFunc, onSettled func(Result)) *Batch {
	dispatchCtx, cancel := context.WithCancel(ctx)
	b := &Batch{
		units:     units,
		states:    make([]JobState, len(units)),
		done:      make(chan struct{}),
		cancel:    cancel,
		onSettled: onSettled,
	}

	if len(units) == 0 {
		b.finish()
		return b
	}

	go q.dispatch(ctx, dispatchCtx, b, work)
	return b
}

func (q *Queue) dispatch(workCtx, dispatchCtx context.Context, b *Batch, work WorkFunc) {
	for i := range b.units {
		if err := q.sem.Acquire(dispatchCtx, 1); err != nil {
			b.abandon(i)
			return
		}
		if err := q.limiter.Wait(dispatchCtx); err != nil {
			q.sem.Release(1)
			b.abandon(i)
			return
		}

		b.markDispatched(i)
		go func(id int) {
			defer q.sem.Release(1)
			text, err := work(workCtx, b.units[id])
			b.settle(Result{ID: id, Unit: b.units[id], Text: text, Err: err})
		}(i)
	}
}

// Batch tracks the jobs of one Schedule call.
type Batch struct {
	units     []TextUnit
	onSettled func(Result)
	cancel    context.CancelFunc

	mu        sync.Mutex
	states    []JobState
	settled   int
	succeeded int
	failed    int

	done     chan struct{}
	doneOnce sync.Once
}

// Done is closed once every job has settled.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch drains or ctx is done.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drained reports whether every job has settled.
func (b *Batch) Drained() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Cancel stops dispatching. Jobs still queued settle with ErrBatchCancelled;
// jobs already in flight run to completion.
func (b *Batch) Cancel() {
	b.cancel()
}

// State returns the state of job id.
func (b *Batch) State(id int) JobState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[id]
}

// Len returns the number of jobs in the batch.
func (b *Batch) Len() int {
	return len(b.units)
}

// Stats returns a snapshot of the batch's progress.
func (b *Batch) Stats() BatchStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := BatchStats{
		Total:     len(b.units),
		Settled:   b.settled,
		Succeeded: b.succeeded,
		Failed:    b.failed,
	}
	for _, s := range b.states {
		switch s {
		case JobQueued:
			stats.Queued++
		case JobDispatched:
			stats.Dispatched++
		}
	}
	return stats
}

func (b *Batch) markDispatched(id int) {
	b.mu.Lock()
	b.states[id] = JobDispatched
	b.mu.Unlock()
}

// abandon settles every job from index from onwards without running it.
func (b *Batch) abandon(from int) {
	for id := from; id < len(b.units); id++ {
		b.settle(Result{ID: id, Unit: b.units[id], Err: ErrBatchCancelled})
	}
}

func (b *Batch) settle(r Result) {
	b.mu.Lock()
	b.states[r.ID] = JobSettled
	b.mu.Unlock()

	if b.onSettled != nil {
		b.onSettled(r)
	}

	b.mu.Lock()
	b.settled++
	if r.Err != nil {
		b.failed++
	} else {
		b.succeeded++
	}
	drained := b.settled == len(b.units)
	b.mu.Unlock()

	if drained {
		b.finish()
	}
}

func (b *Batch) finish() {
	b.doneOnce.Do(func() {
		close(b.done)
		b.cancel()
	})
}
