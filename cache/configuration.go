// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"strings"
	"time"

	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/distribution"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/remoting"
	"github.com/bitmark-inc/gridd/replqueue"
)

// Mode - how the entries of a cache are spread over the cluster
type Mode int

// the cache modes
const (
	Local     Mode = iota // this member only
	ReplSync              // every member, wait for acknowledgements
	ReplAsync             // every member, do not wait
	DistSync              // the owners of each key, wait
	DistAsync             // the owners of each key, do not wait
)

var modeNames = map[Mode]string{
	Local:     "local",
	ReplSync:  "repl-sync",
	ReplAsync: "repl-async",
	DistSync:  "dist-sync",
	DistAsync: "dist-async",
}

// String - configuration name of a mode
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "*unknown*"
}

// ParseMode - mode from its configuration name
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return Local, fault.ErrInvalidCacheMode
}

// IsClustered - true if changes leave this member
func (m Mode) IsClustered() bool {
	return Local != m
}

// IsSynchronous - true if callers wait for other members
func (m Mode) IsSynchronous() bool {
	return ReplSync == m || DistSync == m
}

// IsDistributed - true if each key is kept by its owners only
func (m Mode) IsDistributed() bool {
	return DistSync == m || DistAsync == m
}

// Configuration - settings of one cache
type Configuration struct {
	Mode Mode

	// wait limit of synchronous calls
	SyncReplTimeout time.Duration

	// batch asynchronous changes instead of sending each at once
	UseReplQueue         bool
	ReplQueueInterval    time.Duration
	ReplQueueMaxElements int

	// distributed mode
	NumOwners    int
	VirtualNodes int

	// operations join the transaction of the calling context
	Transactional bool

	// period of the expired entry purge
	ExpirationWakeUpInterval time.Duration

	// leveldb cache store, empty for none
	StoreFile string
}

// DefaultConfiguration - a local non-transactional cache
func DefaultConfiguration() Configuration {
	return Configuration{
		Mode:                     Local,
		SyncReplTimeout:          remoting.DefaultSyncReplTimeout,
		UseReplQueue:             false,
		ReplQueueInterval:        replqueue.DefaultInterval,
		ReplQueueMaxElements:     replqueue.DefaultMaxElements,
		NumOwners:                2,
		VirtualNodes:             distribution.DefaultVirtualNodes,
		Transactional:            false,
		ExpirationWakeUpInterval: container.DefaultWakeUpInterval,
	}
}

// Validate - fill unset values from the defaults
func (c *Configuration) Validate() error {
	if _, ok := modeNames[c.Mode]; !ok {
		return fault.ErrInvalidCacheMode
	}

	d := DefaultConfiguration()
	if c.SyncReplTimeout <= 0 {
		c.SyncReplTimeout = d.SyncReplTimeout
	}
	if c.ReplQueueInterval <= 0 {
		c.ReplQueueInterval = d.ReplQueueInterval
	}
	if c.ReplQueueMaxElements < 0 {
		c.ReplQueueMaxElements = d.ReplQueueMaxElements
	}
	if c.NumOwners <= 0 {
		c.NumOwners = d.NumOwners
	}
	if c.VirtualNodes <= 0 {
		c.VirtualNodes = d.VirtualNodes
	}
	if c.ExpirationWakeUpInterval <= 0 {
		c.ExpirationWakeUpInterval = d.ExpirationWakeUpInterval
	}
	return nil
}
