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
	"sync"
)

// ErrInvalidLatchWeight is returned by NewLatch when given a weight of zero.
var ErrInvalidLatchWeight = errors.New(
	"concurrent: Latch weight must be a non-zero value which specifies the number of " +
		"decrements required to release waiters")

// Latch is a single-shot countdown synchronizer. Its weight is decremented by
// Decrement, and any goroutine blocked in Wait is released once the weight
// reaches zero. Unlike a semaphore, a Latch cannot be reused once its weight
// reaches zero.
type Latch struct {
	mutex  sync.Mutex
	cond   *sync.Cond
	weight uint32
}

// NewLatch creates a Latch with the given positive weight. A weight of zero
// is rejected with ErrInvalidLatchWeight.
func NewLatch(weight uint32) (*Latch, error) {
	if weight == 0 {
		return nil, ErrInvalidLatchWeight
	}

	latch := &Latch{weight: weight}
	latch.cond = sync.NewCond(&latch.mutex)
	return latch, nil
}

// NewLatchOne creates a Latch with weight one.
func NewLatchOne() *Latch {
	latch, _ := NewLatch(1)
	return latch
}

// Decrement decreases the weight of the Latch by one, unless it is already
// zero, in which case it is a no-op. Once the weight reaches zero, every
// goroutine blocked in Wait (and any future call to Wait) is released.
func (latch *Latch) Decrement() {
	mutex := &latch.mutex
	mutex.Lock()

	// Prevent underflow of weight.
	if latch.weight == 0 {
		mutex.Unlock()
		return
	}

	latch.weight--
	reachedZero := latch.weight == 0
	mutex.Unlock()

	if reachedZero {
		latch.cond.Broadcast()
	}
}

// Wait blocks the calling goroutine until the weight of the Latch reaches
// zero. It returns immediately if the weight is already zero.
func (latch *Latch) Wait() {
	mutex := &latch.mutex
	mutex.Lock()
	for latch.weight != 0 {
		latch.cond.Wait()
	}
	mutex.Unlock()
}
