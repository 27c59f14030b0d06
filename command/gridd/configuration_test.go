// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/cache"
	"github.com/bitmark-inc/gridd/fault"
)

const testConfiguration = `
local M = {}
M.data_directory = "."
M.cluster = "testing"
M.network = {
    announce = "127.0.0.1:2200",
    broadcast = "127.0.0.1:2201",
    listen = { "0.0.0.0:2200" },
    publish = { "0.0.0.0:2201" },
    timeout = "5s",
    peers = {
        { address = "127.0.0.2:2200", broadcast = "127.0.0.2:2201", public_key = "00" },
    },
}
M.caches = {
    users = {
        mode = "repl-async",
        use_repl_queue = true,
        repl_queue_interval = "250ms",
        repl_queue_max_elements = 20,
    },
    sessions = {
        mode = "dist-sync",
        transactional = true,
        num_owners = 3,
        store = true,
    },
}
M.logging = {
    size = 1048576,
    count = 2,
}
return M
`

// write a configuration file into a fresh directory
func writeConfiguration(t *testing.T, text string) (string, func()) {
	directory, err := ioutil.TempDir("", "gridd")
	assert.Nil(t, err, "temp dir")

	fileName := filepath.Join(directory, "gridd.conf")
	err = ioutil.WriteFile(fileName, []byte(text), 0600)
	assert.Nil(t, err, "write configuration")

	return fileName, func() { _ = os.RemoveAll(directory) }
}

func TestGetConfiguration(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, testConfiguration)
	defer cleanup()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "wrong getConfiguration")

	directory := filepath.Dir(fileName)
	assert.Equal(t, filepath.Clean(directory), options.DataDirectory, "data directory")
	assert.Equal(t, "testing", options.Cluster, "cluster")
	assert.Equal(t, filepath.Join(directory, defaultPeerFile), options.PeerFile, "peer file")
	assert.Equal(t, filepath.Join(directory, defaultPrivateKeyFile), options.Network.PrivateKey, "private key")
	assert.Equal(t, filepath.Join(directory, defaultPublicKeyFile), options.Network.PublicKey, "public key")
	assert.Equal(t, "none", options.Network.Nodes, "nodes default")
	assert.Equal(t, 1, len(options.Network.Peers), "peer count")
	assert.Equal(t, []string{"sessions", "users"}, options.cacheNames(), "cache names")

	for _, d := range []string{options.Logging.Directory, options.StoreDirectory} {
		info, err := os.Stat(d)
		assert.Nil(t, err, "directory: %s", d)
		assert.True(t, info.IsDir(), "not directory: %s", d)
	}
}

func TestCacheConfiguration(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, testConfiguration)
	defer cleanup()

	options, err := getConfiguration(fileName)
	assert.Nil(t, err, "wrong getConfiguration")

	users, err := options.cacheConfiguration("users")
	assert.Nil(t, err, "users")
	assert.Equal(t, cache.ReplAsync, users.Mode, "users mode")
	assert.True(t, users.UseReplQueue, "users queue")
	assert.Equal(t, 250*time.Millisecond, users.ReplQueueInterval, "users interval")
	assert.Equal(t, 20, users.ReplQueueMaxElements, "users max elements")
	assert.Equal(t, "", users.StoreFile, "users store")

	sessions, err := options.cacheConfiguration("sessions")
	assert.Nil(t, err, "sessions")
	assert.Equal(t, cache.DistSync, sessions.Mode, "sessions mode")
	assert.True(t, sessions.Transactional, "sessions transactional")
	assert.Equal(t, 3, sessions.NumOwners, "sessions owners")
	assert.Equal(t, filepath.Join(options.StoreDirectory, "sessions.leveldb"), sessions.StoreFile, "sessions store")

	_, err = options.cacheConfiguration("nothing")
	assert.Equal(t, fault.ErrCacheNotFound, err, "missing cache")
}

func TestGetConfigurationErrors(t *testing.T) {
	items := []string{
		`return { data_directory = "" }`,
		`return { data_directory = ".", caches = { bad = { mode = "everywhere" } } }`,
		`return { data_directory = ".", caches = { bad = { repl_queue_interval = "soon" } } }`,
		`return { data_directory = ".", network = { timeout = "never" } }`,
		`return { data_directory = ".", logging = { file = "log/gridd.log" } }`,
		`return { data_directory = "/no/such/directory" }`,
		`this is not lua`,
	}

	for i, text := range items {
		fileName, cleanup := writeConfiguration(t, text)
		_, err := getConfiguration(fileName)
		assert.NotNil(t, err, "%d: expected error", i)
		cleanup()
	}
}
