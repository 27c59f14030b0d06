// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/storage"
)

// test database file
const (
	dir              = "testing"
	databaseFileName = "testing/test.leveldb"
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

// remove all files created by test
func removeFiles() {
	_ = os.RemoveAll(dir)
}

func TestMain(m *testing.M) {
	setupTestLogger()
	rc := m.Run()
	teardownTestLogger()
	os.Exit(rc)
}

func newMarshaller() *marshal.Marshaller {
	r := marshal.NewRegistry()
	entry.RegisterExternalizers(r)
	return marshal.New(r)
}

// configure for testing
func setup(t *testing.T) *storage.LevelDBStore {
	s, err := storage.OpenMemory(logger.New("testing"), newMarshaller())
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return s
}
