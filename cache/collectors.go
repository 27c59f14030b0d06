// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/interceptor"
	"github.com/bitmark-inc/gridd/metrics"
)

// batch size buckets of the replication queue
var batchBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000}

// the prometheus view of the cache statistics
func (c *core) collectors() *metrics.Set {
	s := metrics.New(map[string]string{"cache": c.name})

	s.Gauge("container", "entries", "live entries held by this member", func() float64 {
		return float64(c.Size())
	})

	for _, stage := range c.chain.Stages() {
		switch i := stage.(type) {
		case *interceptor.Tx:
			s.Counter("tx", "enlisted_total", "transactions that wrote to the cache", &i.Enlisted)
		case *interceptor.Replication:
			s.Counter("replication", "sent_total", "commands sent to other members", &i.Replicated)
			s.Counter("replication", "queued_total", "commands added to the replication queue", &i.Queued)
		case *interceptor.Distribution:
			s.Counter("replication", "sent_total", "commands sent to other members", &i.Replicated)
			s.Counter("replication", "queued_total", "commands added to the replication queue", &i.Queued)
			s.Counter("distribution", "remote_gets_total", "entries fetched from their owners", &i.RemoteGets)
		case *interceptor.CacheLoader:
			s.Counter("store", "loads_total", "entries loaded from the store", &i.Loads)
			s.Counter("store", "misses_total", "keys absent from the store", &i.Misses)
		case *interceptor.CacheStore:
			s.Counter("store", "stores_total", "entries written to the store", &i.Stores)
			s.Counter("store", "removes_total", "entries removed from the store", &i.Removes)
			s.Counter("store", "clears_total", "store clears", &i.Clears)
		}
	}

	if nil != c.queue {
		q := c.queue
		s.Gauge("queue", "size", "commands waiting in the replication queue", func() float64 {
			return float64(q.Size())
		})
		s.Counter("queue", "flushes_total", "replication queue flushes", &q.Stats.Flushes)
		s.Counter("queue", "sent_total", "commands sent by the replication queue", &q.Stats.Sent)
		s.Counter("queue", "failures_total", "batches the replication queue failed to send", &q.Stats.Failures)

		batches := s.Histogram("queue", "batch_size", "commands in each flushed batch", batchBuckets)
		q.SetDrainHook(func(batch []commands.ReplicableCommand, byInterval bool) {
			batches.Observe(float64(len(batch)))
		})
	}
	return s
}
