/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package concurrent

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrInvalidThreadPoolSize is returned by NewThreadPool when given a worker
// count of zero.
var ErrInvalidThreadPoolSize = errors.New(
	"concurrent: ThreadPool worker count must be a non-zero value which specifies " +
		"the number of dedicated goroutines to create. If you have no idea, try " +
		"runtime.GOMAXPROCS(0) via NewDefaultThreadPool.")

// ThreadPool runs submitted tasks on a fixed collection of dedicated
// goroutines, each backed by its own Worker. Submissions are distributed
// across workers by round-robin; workers never exchange work with one
// another. Scheduled (delayed or periodic) submission is a Worker-level
// capability reached via Worker(i); ThreadPool.Execute only ever submits
// immediate, one-shot tasks.
type ThreadPool struct {
	workers []*Worker
	wg      sync.WaitGroup
	next    atomic.Uint32
}

// NewThreadPool creates a ThreadPool with numWorkers dedicated goroutines. A
// count of zero is rejected with ErrInvalidThreadPoolSize.
func NewThreadPool(numWorkers uint32) (*ThreadPool, error) {
	if numWorkers == 0 {
		return nil, ErrInvalidThreadPoolSize
	}

	pool := &ThreadPool{
		workers: make([]*Worker, numWorkers),
	}
	for i := range pool.workers {
		pool.workers[i] = NewWorker()
	}

	pool.wg.Add(len(pool.workers))
	for _, w := range pool.workers {
		w := w
		go func() {
			defer pool.wg.Done()
			w.Run()
		}()
	}

	return pool, nil
}

// NewDefaultThreadPool creates a ThreadPool sized to runtime.GOMAXPROCS(0),
// the Go analogue of std::thread::hardware_concurrency().
func NewDefaultThreadPool() (*ThreadPool, error) {
	return NewThreadPool(uint32(runtime.GOMAXPROCS(0)))
}

// Execute submits action for immediate, one-shot execution on the worker
// chosen by round-robin. It never blocks for long. If the chosen worker is
// draining or terminated, the task is silently dropped: execute does not
// retry on another worker, so a caller racing a shutdown has no guarantee
// that action ever runs.
func (pool *ThreadPool) Execute(action Action) {
	idx := pool.next.Add(1) % uint32(len(pool.workers))
	pool.workers[idx].Execute(action)
}

// Worker returns the i'th worker in the pool, for callers that need delayed
// or periodic submission. It panics if i is out of range, consistent with
// ordinary Go slice indexing.
func (pool *ThreadPool) Worker(i int) *Worker {
	return pool.workers[i]
}

// NumWorkers returns the fixed number of workers in the pool.
func (pool *ThreadPool) NumWorkers() int {
	return len(pool.workers)
}

// Drain gracefully shuts down the pool: every worker stops accepting new
// submissions but finishes its queued work, in deadline order per worker.
// Drain blocks until every worker goroutine has exited. After Drain returns,
// Execute continues to accept calls but every worker rejects them, so
// submitted tasks are silently dropped.
func (pool *ThreadPool) Drain() {
	for _, w := range pool.workers {
		w.Drain()
	}
	pool.wg.Wait()
}

// TearDown forcefully shuts down the pool: every worker stops accepting new
// submissions and discards its queued work, but lets its current inflight
// task, if any, finish. TearDown blocks until every worker goroutine has
// exited.
func (pool *ThreadPool) TearDown() {
	for _, w := range pool.workers {
		w.Terminate()
	}
	pool.wg.Wait()
}

// String implements fmt.Stringer, mainly for diagnostics in tests and logs.
func (pool *ThreadPool) String() string {
	return fmt.Sprintf("ThreadPool{workers: %d}", len(pool.workers))
}
