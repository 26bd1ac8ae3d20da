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

import "time"

// Action is a nullary unit of work submitted to a Worker or ThreadPool; it
// carries no result and cannot fail, since nothing in this package collects
// a per-task return value.
type Action func()

// task is a unit of work queued on a Worker. Ordering between tasks is
// strictly by ascending deadline; seq breaks ties deterministically but
// callers must not rely on FIFO ordering among tasks with equal deadlines.
type task struct {
	action   Action
	deadline time.Time
	delay    time.Duration
	periodic bool
	seq      uint64

	// index is maintained by container/heap for O(log n) Remove; unused here
	// since Worker never removes an individual queued task, but kept so the
	// heap.Interface implementation is the conventional shape used elsewhere
	// in this codebase's lineage.
	index int
}

// farFuture is used as the nextDeadline sentinel when a Worker's queue is
// empty. A timed wait against this deadline behaves, for all practical
// purposes, as an indefinite wait.
var farFuture = time.Unix(1<<62, 0)

// taskHeap implements container/heap.Interface, ordering tasks by ascending
// deadline (ties broken by submission sequence).
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
