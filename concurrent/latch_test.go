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

package concurrent_test

import (
	"sync"
	"sync/atomic"

	"github.com/spindle-go/spindle/concurrent"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Latch", func() {
	It("cannot be created with a zero weight", func() {
		_, err := concurrent.NewLatch(0)
		Expect(err).Should(MatchError(concurrent.ErrInvalidLatchWeight))
	})

	It("releases a single waiter after one decrement of a weight-one latch", func() {
		latch := concurrent.NewLatchOne()
		latch.Decrement()
		latch.Wait()
	})

	It("releases waiters after weight decrements", func() {
		const weight = 3
		latch, err := concurrent.NewLatch(weight)
		Expect(err).ShouldNot(HaveOccurred())

		for i := 0; i < weight; i++ {
			latch.Decrement()
		}
		latch.Wait()
	})

	It("is a no-op to decrement past zero", func() {
		const weight = 16
		latch, err := concurrent.NewLatch(weight)
		Expect(err).ShouldNot(HaveOccurred())

		for i := 0; i < 2*weight; i++ {
			latch.Decrement()
		}
		latch.Wait()
	})

	It("releases all waiters once decremented by many goroutines", func() {
		const weight = 16
		latch, err := concurrent.NewLatch(weight)
		Expect(err).ShouldNot(HaveOccurred())

		var v int32
		var wg sync.WaitGroup
		wg.Add(weight)
		for i := 0; i < weight; i++ {
			go func() {
				defer wg.Done()
				atomic.AddInt32(&v, 1)
				latch.Decrement()
			}()
		}

		latch.Wait()
		Expect(atomic.LoadInt32(&v)).Should(Equal(int32(weight)))

		wg.Wait()
	})
})
