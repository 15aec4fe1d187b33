// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Default pool sizing, tuned for a handful of concurrent desktop/web
// clients issuing remote-database queries.
const (
	DefaultPoolWorkers    = 4
	DefaultPoolQueueDepth = 32
)

// Task is a unit of work executed on the pool.
type Task func(ctx context.Context) (any, error)

// taskOutcome carries a finished task's result back to the submitter.
type taskOutcome struct {
	value any
	err   error
}

// poolTask is the in-flight record for one submission.
type poolTask struct {
	ctx     context.Context
	timeout time.Duration
	fn      Task
	result  chan taskOutcome // buffered, written exactly once
}

// Pool runs tasks on a fixed set of workers with a bounded FIFO queue.
// It exists so that slow, possibly-timing-out remote calls never execute
// on a transport's intake path. The pool is shared process-wide across
// all connections and transports.
type Pool struct {
	tasks chan *poolTask

	// mu orders Submit's enqueue against Close's channel close, so a
	// racing Submit cannot send on a closed channel.
	mu        sync.RWMutex
	closing   bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue depth.
// Submissions beyond the queue depth fail fast with a "server busy"
// error rather than blocking the submitter.
func NewPool(workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = DefaultPoolWorkers
	}
	if queueDepth <= 0 {
		queueDepth = DefaultPoolQueueDepth
	}
	p := &Pool{
		tasks: make(chan *poolTask, queueDepth),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// Submit queues fn and waits for its outcome. The timeout bounds
// execution once a worker picks the task up; on expiry the submission
// fails with a timeout error and the worker moves on while the task
// function is left to run out in the background, its result discarded.
// Cancelling ctx abandons this submission only.
func (p *Pool) Submit(ctx context.Context, timeout time.Duration, fn Task) (any, error) {
	t := &poolTask{
		ctx:     ctx,
		timeout: timeout,
		fn:      fn,
		result:  make(chan taskOutcome, 1),
	}

	p.mu.RLock()
	if p.closing {
		p.mu.RUnlock()
		return nil, Errorf(CodeBusy, "server is shutting down")
	}
	select {
	case p.tasks <- t:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		return nil, Errorf(CodeBusy, "server busy: all workers occupied and queue full")
	}

	select {
	case out := <-t.result:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting submissions and waits for the workers to drain
// the queue; tasks already queued still run to completion.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closing = true
		close(p.tasks)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// worker runs queued tasks one at a time until the pool closes.
func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

// run executes one task with its timeout. A task that outlives its
// deadline keeps running in a detached goroutine; its eventual result is
// dropped so the worker can be recycled immediately.
func (p *Pool) run(t *poolTask) {
	if err := t.ctx.Err(); err != nil {
		t.result <- taskOutcome{err: err}
		return
	}

	runCtx := t.ctx
	cancel := context.CancelFunc(func() {})
	if t.timeout > 0 {
		runCtx, cancel = context.WithTimeout(t.ctx, t.timeout)
	}
	defer cancel()

	done := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if rv := recover(); rv != nil {
				done <- taskOutcome{err: Errorf(CodeInternal, "handler panic: %v", rv)}
			}
		}()
		v, err := t.fn(runCtx)
		done <- taskOutcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		t.result <- out
	case <-runCtx.Done():
		if t.ctx.Err() != nil {
			// Caller cancelled; Submit has already returned.
			t.result <- taskOutcome{err: t.ctx.Err()}
			return
		}
		slog.Warn("task exceeded timeout, abandoning worker slot",
			"timeout", t.timeout)
		t.result <- taskOutcome{err: Errorf(CodeTimeout,
			"execution exceeded the %v timeout", t.timeout)}
	}
}
