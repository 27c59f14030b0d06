// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/cache"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/tree"
)

func openStore(m *metadata, readOnly bool) (*storage.LevelDBStore, error) {
	if m.verbose {
		fmt.Fprintf(m.e, "store: %q  read only: %v\n", m.file, readOnly)
	}
	return storage.Open(logger.New("store"), m.file, cache.NewMarshaller(tree.RegisterExternalizers), readOnly)
}

func runList(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	count := c.Int("count")
	if count <= 0 {
		return fmt.Errorf("invalid count: %d", count)
	}
	expired := c.Bool("expired")

	store, err := openStore(m, true)
	if nil != err {
		return err
	}
	defer store.Close()

	now := entry.Now()
	n := 0
	err = store.Iterate(func(e *entry.Entry) bool {
		if !expired && e.IsExpired(now) {
			return true
		}
		fmt.Fprintf(m.w, "%d: key: %v\n", n, e.Key)
		fmt.Fprintf(m.w, "%d: val: %v\n", n, e.Payload)
		fmt.Fprintf(m.w, "%d: kind: %s  expiry: %d  expired: %v\n", n, e.Kind, e.ExpiryTime(), e.IsExpired(now))
		n += 1
		return n < count
	})
	return err
}

func runCount(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	store, err := openStore(m, true)
	if nil != err {
		return err
	}
	defer store.Close()

	now := entry.Now()
	total := 0
	expired := 0
	err = store.Iterate(func(e *entry.Entry) bool {
		total += 1
		if e.IsExpired(now) {
			expired += 1
		}
		return true
	})
	if nil != err {
		return err
	}
	fmt.Fprintf(m.w, "entries: %d  expired: %d\n", total, expired)
	return nil
}

func runPurge(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	store, err := openStore(m, false)
	if nil != err {
		return err
	}
	defer store.Close()

	n, err := store.PurgeExpired(entry.Now())
	if nil != err {
		return err
	}
	fmt.Fprintf(m.w, "purged: %d\n", n)
	return nil
}
