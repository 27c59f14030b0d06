// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/cache"
	"github.com/bitmark-inc/gridd/remoting"
	"github.com/bitmark-inc/gridd/transaction"
)

const (
	dir = "testing"
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(dir)
}

func TestMain(m *testing.M) {
	setupTestLogger()
	rc := m.Run()
	teardownTestLogger()
	os.Exit(rc)
}

func standalone(t *testing.T, tm transaction.Manager) *cache.Manager {
	m := cache.NewManager(logger.New("testing"), nil, tm, cache.NewMarshaller(), cache.Options{})
	assert.Nil(t, m.Start(), "start standalone")
	return m
}

// a started member of network
func member(t *testing.T, network *remoting.LocalNetwork, address string) *cache.Manager {
	log := logger.New("testing")
	transport := network.Join(address)
	m := cache.NewManager(log, transport, transaction.NewDummyManager(log), cache.NewMarshaller(), cache.Options{
		SyncReplTimeout: 5 * time.Second,
	})
	assert.Nil(t, m.Start(), "start: %s", address)
	return m
}

// three members with a cache of the same name and configuration
func cluster(t *testing.T, config cache.Configuration) ([]*cache.Manager, []*cache.Cache) {
	network := remoting.NewLocalNetwork()
	addresses := []string{"10.0.0.1:2200", "10.0.0.2:2200", "10.0.0.3:2200"}

	managers := make([]*cache.Manager, len(addresses))
	caches := make([]*cache.Cache, len(addresses))
	for i, address := range addresses {
		managers[i] = member(t, network, address)
	}
	for i, m := range managers {
		m.UpdateMembers(addresses)
		c, err := m.DefineCache("grid", config)
		if nil != err {
			t.Fatalf("define cache error: %s", err)
		}
		caches[i] = c
	}
	return managers, caches
}

func stopAll(managers []*cache.Manager) {
	for _, m := range managers {
		m.Stop()
	}
}

// poll until f holds or the deadline passes
func eventually(f func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return f()
}

func get(c *cache.Cache, key interface{}) interface{} {
	value, _ := c.Get(context.Background(), key)
	return value
}
