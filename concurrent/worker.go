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
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// Worker continuously executes tasks from its own earliest-deadline-first
// queue on a dedicated goroutine, until drained or terminated. A Worker must
// be started by calling Run on the goroutine that is to execute tasks; the
// constructor does not start it.
//
// A task running on a Worker may call Schedule on that same Worker: the loop
// always releases its mutex before invoking a task's action, so re-entrant
// submission never deadlocks. Calling Drain from within a task running on
// that Worker does deadlock, however, since Drain blocks on a latch that
// only the same loop can release.
type Worker struct {
	mutex sync.Mutex
	cond  *sync.Cond

	queue        taskHeap
	nextDeadline time.Time
	nextSeq      uint64

	terminated atomic.Bool
	draining   atomic.Bool
	drainLatch *Latch
}

// NewWorker creates a Worker. Call Run on a dedicated goroutine to start its
// loop.
func NewWorker() *Worker {
	w := &Worker{
		nextDeadline: farFuture,
		drainLatch:   NewLatchOne(),
	}
	w.cond = sync.NewCond(&w.mutex)
	return w
}

// Execute submits action for immediate, one-shot execution. It is equivalent
// to Schedule(action, 0, false).
func (w *Worker) Execute(action Action) bool {
	return w.Schedule(action, 0, false)
}

// Schedule submits action for execution at now+delay. If periodic is true,
// the action is re-submitted with the same delay, measured from its own
// deadline rather than from completion time, each time it is taken off the
// queue to run (before its action is invoked), for as long as the Worker is
// neither draining nor terminated at the moment of re-submission.
//
// Schedule returns false, without enqueuing anything, if the Worker is
// draining or terminated at the moment of the call.
func (w *Worker) Schedule(action Action, delay time.Duration, periodic bool) bool {
	// Fast-path rejection without acquiring the mutex.
	if w.terminated.Load() || w.draining.Load() {
		return false
	}

	t := &task{
		action:   action,
		deadline: time.Now().Add(delay),
		delay:    delay,
		periodic: periodic,
	}

	w.mutex.Lock()
	ok := w.enqueueLocked(t)
	w.mutex.Unlock()

	if ok {
		w.cond.Signal()
	}
	return ok
}

// enqueueLocked pushes t onto the queue and updates nextDeadline. It must be
// called with w.mutex held. It returns false, without enqueuing, if the
// Worker is draining or terminated.
func (w *Worker) enqueueLocked(t *task) bool {
	if w.terminated.Load() || w.draining.Load() {
		return false
	}

	t.seq = w.nextSeq
	w.nextSeq++
	heap.Push(&w.queue, t)

	if t.deadline.Before(w.nextDeadline) {
		w.nextDeadline = t.deadline
	}
	return true
}

// Drain marks the Worker as draining: no further submissions are accepted,
// but tasks already queued are run to completion. Drain blocks the caller
// until the Worker's loop has exited. It is idempotent: calls after the
// first return immediately without blocking.
//
// Drain must not be called from within a task running on this Worker; doing
// so deadlocks, since the drain latch can only be released by the same loop.
func (w *Worker) Drain() {
	if !w.draining.CompareAndSwap(false, true) {
		return
	}
	// Broadcast under the mutex so the wake cannot fall between the loop's
	// check of the draining flag and its cond.Wait.
	w.mutex.Lock()
	w.cond.Broadcast()
	w.mutex.Unlock()
	w.drainLatch.Wait()
}

// Terminate marks the Worker as terminated: no further submissions are
// accepted and all queued tasks are discarded. The currently inflight task,
// if any, runs to completion, after which the loop exits on its next wake.
// Terminate is idempotent and never blocks.
func (w *Worker) Terminate() {
	if !w.terminated.CompareAndSwap(false, true) {
		return
	}
	// See Drain: broadcasting under the mutex prevents a lost wake-up.
	w.mutex.Lock()
	w.cond.Broadcast()
	w.mutex.Unlock()
}

// Run executes the Worker's loop: it dequeues tasks in earliest-deadline
// order and runs their actions, blocking when the queue is empty or its head
// is not yet due. Run returns when the Worker is terminated, or when it has
// been drained and its queue has become empty.
func (w *Worker) Run() {
	w.mutex.Lock()

	for {
		for {
			if w.terminated.Load() {
				w.mutex.Unlock()
				return
			}

			empty := w.queue.Len() == 0
			if w.draining.Load() && empty {
				w.mutex.Unlock()
				w.drainLatch.Decrement()
				return
			}

			if !empty && !w.queue[0].deadline.After(time.Now()) {
				break
			}

			w.waitLocked()
		}

		t := heap.Pop(&w.queue).(*task)
		if w.queue.Len() > 0 {
			w.nextDeadline = w.queue[0].deadline
		} else {
			w.nextDeadline = farFuture
		}

		if t.periodic {
			t.deadline = t.deadline.Add(t.delay)
			// Rejection here (terminated or draining mid-execution) is
			// silent: the task simply does not reappear.
			w.enqueueLocked(t)
		}

		w.mutex.Unlock()
		t.action()
		w.mutex.Lock()
	}
}

// waitLocked blocks the calling (already-locked) loop until the condition is
// signaled or nextDeadline elapses, whichever comes first. It must be called
// with w.mutex held, and returns with w.mutex held.
//
// sync.Cond has no built-in timed wait, unlike the condition_variable this
// loop is modeled on, so the timeout is implemented with an auxiliary timer
// that broadcasts on the same Cond when it fires.
func (w *Worker) waitLocked() {
	deadline := w.nextDeadline
	if !deadline.Before(farFuture) {
		w.cond.Wait()
		return
	}

	timeout := time.Until(deadline)
	if timeout <= 0 {
		return
	}

	cond := w.cond
	timer := time.AfterFunc(timeout, func() {
		w.mutex.Lock()
		cond.Broadcast()
		w.mutex.Unlock()
	})

	cond.Wait()
	timer.Stop()
}
