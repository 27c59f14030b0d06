// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package container

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/entry"
)

// DefaultWakeUpInterval - used when no interval is configured
const DefaultWakeUpInterval = 5 * time.Minute

// Purger - anything holding entries that can expire
type Purger interface {
	PurgeExpired(now int64) (int, error)
}

// Reaper - background process removing expired entries
type Reaper struct {
	log      *logger.L
	interval time.Duration
	purgers  []Purger
}

// NewReaper - create a reaper over a container and, optionally, its store
func NewReaper(log *logger.L, interval time.Duration, purgers ...Purger) *Reaper {
	if interval <= 0 {
		interval = DefaultWakeUpInterval
	}
	return &Reaper{
		log:      log,
		interval: interval,
		purgers:  purgers,
	}
}

// Run - the background loop
func (r *Reaper) Run(args interface{}, shutdown <-chan struct{}) {
	r.log.Info("starting…")

	ticker := time.NewTicker(r.interval)
loop:
	for {
		select {
		case <-ticker.C:
			r.Purge(entry.Now())
		case <-shutdown:
			break loop
		}
	}
	ticker.Stop()
	r.log.Info("stopped")
}

// Purge - one pass over every purger
func (r *Reaper) Purge(now int64) int {
	total := 0
	for _, p := range r.purgers {
		n, err := p.PurgeExpired(now)
		if nil != err {
			r.log.Errorf("purge expired error: %s", err)
			continue
		}
		total += n
	}
	if 0 != total {
		r.log.Debugf("purged: %d expired entries", total)
	}
	return total
}
