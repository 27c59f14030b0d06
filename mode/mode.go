// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mode

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/fault"
)

// Mode - node lifecycle state
type Mode int

// all possible modes
const (
	Stopped Mode = iota
	Joining
	Running
	Leaving
	maximum
)

// cluster names that enable testing behaviour
const (
	Testing = "testing"
	Local   = "local"
)

var globalData struct {
	sync.RWMutex
	log     *logger.L
	mode    Mode
	testing bool
	cluster string

	// set once during initialise
	initialised bool
}

// Initialise - set up the mode system
func Initialise(clusterName string) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	globalData.log = logger.New("mode")
	globalData.log.Info("starting…")

	globalData.cluster = clusterName
	globalData.mode = Joining

	switch clusterName {
	case Testing, Local:
		globalData.testing = true
	default:
		globalData.testing = false
	}

	globalData.initialised = true

	return nil
}

// Finalise - shutdown mode handling
func Finalise() error {
	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	Set(Stopped)

	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// Set - change mode
func Set(mode Mode) {
	if mode >= Stopped && mode < maximum {
		globalData.Lock()
		globalData.mode = mode
		globalData.Unlock()

		globalData.log.Infof("set: %s", mode)
	} else {
		globalData.log.Errorf("ignore invalid set: %d", mode)
	}
}

// Is - detect mode
func Is(mode Mode) bool {
	globalData.RLock()
	defer globalData.RUnlock()
	return mode == globalData.mode
}

// IsNot - detect mode
func IsNot(mode Mode) bool {
	globalData.RLock()
	defer globalData.RUnlock()
	return mode != globalData.mode
}

// Current - the mode now
func Current() Mode {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.mode
}

// IsTesting - special for testing
func IsTesting() bool {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.testing
}

// ClusterName - name of the cluster this node joined
func ClusterName() string {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.cluster
}

// String - current mode represented as a string
func String() string {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.mode.String()
}

func (m Mode) String() string {
	switch m {
	case Stopped:
		return "Stopped"
	case Joining:
		return "Joining"
	case Running:
		return "Running"
	case Leaving:
		return "Leaving"
	default:
		return "*Unknown*"
	}
}
