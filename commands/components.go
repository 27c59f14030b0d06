// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"reflect"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/notifications"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/transaction"
)

// Components - the parts of one cache that commands act on
type Components struct {
	CacheName  string
	Address    string // of this member
	Log        *logger.L
	Container  *container.Container
	Chain      Invoker
	Contexts   *invocation.Container
	Table      *transaction.Table
	Store      storage.Store           // nil: no cache store
	Notifier   *notifications.Notifier // nil: no notifications
	Marshaller *marshal.Marshaller

	// nil: this member owns every key
	Owns func(key interface{}) bool

	// nil: entry.Now
	Now func() int64

	// serialises the read-decide-write of local writes and commits
	writeLock sync.Mutex

	// orders cache store writes, always taken before writeLock
	storeLock sync.Mutex
}

// LockStore - hold back other cache store writers
func (c *Components) LockStore() {
	c.storeLock.Lock()
}

// UnlockStore - release LockStore
func (c *Components) UnlockStore() {
	c.storeLock.Unlock()
}

// LoadEntry - the entry held for key, calling load to fetch it if
// there is none; a loaded entry is kept in the container
func (c *Components) LoadEntry(key interface{}, now int64, load func() (*entry.Entry, error)) (*entry.Entry, error) {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if e := c.Container.Get(key, now); nil != e {
		return e, nil
	}
	e, err := load()
	if nil != err || nil == e || e.IsExpired(now) {
		return nil, err
	}
	c.Container.PutEntry(e, now)
	return e, nil
}

// Time - current time in milliseconds
func (c *Components) Time() int64 {
	if nil == c.Now {
		return entry.Now()
	}
	return c.Now()
}

// IsOwner - true if this member keeps key
func (c *Components) IsOwner(key interface{}) bool {
	if nil == c.Owns {
		return true
	}
	return c.Owns(key)
}

// Lookup - entry as seen by ic: transaction workspace, then the container, then
// anything fetched from the owners earlier in the operation
func (c *Components) Lookup(ic *invocation.Context, key interface{}, now int64) *entry.Entry {
	if nil != ic {
		if w := ic.Workspace(); nil != w {
			if e, found := w.Lookup(key); found {
				return e
			}
		}
	}
	if e := c.Container.Get(key, now); nil != e {
		return e
	}
	if nil != ic {
		if e, found := ic.LookedUp(key); found && nil != e && !e.IsExpired(now) {
			return e
		}
	}
	return nil
}

func (c *Components) storeModifications(flags invocation.Flag, m ...storage.Modification) []storage.Modification {
	if nil == c.Store || flags.Has(invocation.SkipCacheStore) {
		return nil
	}
	return m
}

func (c *Components) notifyWritten(key interface{}, value interface{}, previous *entry.Entry, originLocal bool, txID string) {
	if nil == c.Notifier {
		return
	}
	c.Notifier.EntryWritten(key, value, payloadOf(previous), nil != previous, originLocal, txID)
}

func (c *Components) notifyRemoved(previous *entry.Entry, originLocal bool, txID string) {
	if nil == c.Notifier || nil == previous {
		return
	}
	c.Notifier.EntryRemovedEvent(previous.Key, previous.Payload, originLocal, txID)
}

// ApplyWorkspace - make the modifications of a transaction visible and
// write them to the cache store as one prepared unit
func ApplyWorkspace(ctx context.Context, c *Components, w *transaction.Workspace, originLocal bool) error {
	c.storeLock.Lock()
	defer c.storeLock.Unlock()
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	now := c.Time()
	txID := w.GlobalTransaction.Key()

	var mods []storage.Modification
	for _, m := range w.Modifications() {
		cmd, ok := m.(WriteCommand)
		if !ok {
			return fault.ErrInvalidCommand
		}
		mods = append(mods, cmd.apply(c, now, originLocal, txID)...)
	}

	if nil == c.Store || 0 == len(mods) {
		return nil
	}
	if err := c.Store.Prepare(txID, mods); nil != err {
		c.Log.Errorf("transaction: %s  store prepare error: %s", txID, err)
		return err
	}
	return c.Store.Commit(txID)
}

func payloadOf(e *entry.Entry) interface{} {
	if nil == e {
		return nil
	}
	return e.Payload
}

func equalPayload(a interface{}, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

func isLocal(ic *invocation.Context) bool {
	return nil == ic || ic.IsOriginLocal()
}

// a remote transaction replays decisions made on its origin
func isRemoteTx(ic *invocation.Context) bool {
	return nil != ic && ic.IsInTxScope() && !ic.IsOriginLocal()
}

func addStoreModifications(ic *invocation.Context, mods []storage.Modification) {
	if nil == ic {
		return
	}
	for _, m := range mods {
		ic.AddStoreModification(m)
	}
}

type base struct {
	c *Components
}

func (b *base) initialise(c *Components) {
	b.c = c
}

func (b *base) components() (*Components, error) {
	if nil == b.c {
		return nil, fault.ErrNotInitialised
	}
	return b.c, nil
}

// workspace of a transactional context
func txWorkspace(ic *invocation.Context) (*transaction.Workspace, bool, error) {
	if nil == ic || !ic.IsInTxScope() {
		return nil, false, nil
	}
	w := ic.Workspace()
	if nil == w {
		return nil, true, fault.ErrTransactionNotActive
	}
	return w, true, nil
}
