// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package replqueue

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
)

// defaults
const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxElements = 1000
)

// Sender - delivers one drained batch
type Sender interface {
	Send(ctx context.Context, batch []commands.ReplicableCommand) error
}

// DrainHook - observes every non-empty drained batch before it is
// sent; byInterval is true when the interval flusher drained it
type DrainHook func(batch []commands.ReplicableCommand, byInterval bool)

// Statistics - queue totals
type Statistics struct {
	Added    counter.Counter
	Flushes  counter.Counter
	Sent     counter.Counter // commands
	Failures counter.Counter // batches
}

// Queue - pending asynchronous replication of one cache
type Queue struct {
	Stats Statistics

	sync.Mutex  // guards the fields below
	elements    []commands.ReplicableCommand
	interval    time.Duration
	maxElements int
	onDrain     DrainHook

	flushLock sync.Mutex // held across drain and send

	log       *logger.L
	sender    Sender
	reconfigs chan struct{}
}

// New - create a queue, an interval of zero means DefaultInterval and
// a maxElements of zero or less disables the threshold
func New(log *logger.L, sender Sender, interval time.Duration, maxElements int) *Queue {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Queue{
		elements:    make([]commands.ReplicableCommand, 0, initialCapacity(maxElements)),
		interval:    interval,
		maxElements: maxElements,
		log:         log,
		sender:      sender,
		reconfigs:   make(chan struct{}, 1),
	}
}

func initialCapacity(maxElements int) int {
	if maxElements <= 0 || maxElements > DefaultMaxElements {
		return 16
	}
	return maxElements
}

// SetDrainHook - install or remove (nil) the drain observer
func (q *Queue) SetDrainHook(hook DrainHook) {
	q.Lock()
	q.onDrain = hook
	q.Unlock()
}

// Reconfigure - new tuning, the interval flusher picks up a changed
// interval on its next wake up
func (q *Queue) Reconfigure(interval time.Duration, maxElements int) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	q.Lock()
	changed := interval != q.interval
	q.interval = interval
	q.maxElements = maxElements
	q.Unlock()

	q.log.Infof("interval: %s  max elements: %d", interval, maxElements)

	if changed {
		select {
		case q.reconfigs <- struct{}{}:
		default:
		}
	}
}

// Tuning - current interval and threshold
func (q *Queue) Tuning() (time.Duration, int) {
	q.Lock()
	defer q.Unlock()
	return q.interval, q.maxElements
}

// Size - number of commands waiting
func (q *Queue) Size() int {
	q.Lock()
	defer q.Unlock()
	return len(q.elements)
}

// Add - append a command, flushing in the calling goroutine if the
// threshold is reached
func (q *Queue) Add(cmd commands.ReplicableCommand) {
	q.Stats.Added.Increment()

	q.Lock()
	q.elements = append(q.elements, cmd)
	full := q.maxElements > 0 && len(q.elements) >= q.maxElements
	q.Unlock()

	if full {
		q.flush(false)
	}
}

// Drain - take every waiting command, oldest first
func (q *Queue) Drain() []commands.ReplicableCommand {
	q.Lock()
	defer q.Unlock()

	if 0 == len(q.elements) {
		return nil
	}
	batch := q.elements
	q.elements = make([]commands.ReplicableCommand, 0, cap(batch))
	return batch
}

// Flush - drain and send now, returns the number of commands sent
func (q *Queue) Flush() int {
	return q.flush(false)
}

func (q *Queue) flush(byInterval bool) int {
	q.flushLock.Lock()
	defer q.flushLock.Unlock()

	batch := q.Drain()
	if 0 == len(batch) {
		return 0
	}

	q.Lock()
	hook := q.onDrain
	q.Unlock()
	if nil != hook {
		hook(batch, byInterval)
	}

	q.Stats.Flushes.Increment()
	q.log.Debugf("flushing: %d commands", len(batch))

	if err := q.sender.Send(context.Background(), batch); nil != err {
		q.Stats.Failures.Increment()
		q.log.Errorf("send batch of: %d  error: %s", len(batch), err)
		return 0
	}
	q.Stats.Sent.Add(uint64(len(batch)))
	return len(batch)
}

// Run - the interval flusher, a final flush is made on shutdown
func (q *Queue) Run(args interface{}, shutdown <-chan struct{}) {
	log := q.log

	log.Info("starting…")

	interval, _ := q.Tuning()
	ticker := time.NewTicker(interval)

loop:
	for {
		log.Debug("waiting…")
		select {
		case <-shutdown:
			break loop
		case <-q.reconfigs:
			ticker.Stop()
			interval, _ = q.Tuning()
			ticker = time.NewTicker(interval)
		case <-ticker.C:
			q.flush(true)
		}
	}
	ticker.Stop()

	if n := q.Flush(); n > 0 {
		log.Infof("final flush sent: %d commands", n)
	}
	log.Info("stopped")
}
