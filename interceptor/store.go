// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/storage"
)

// CacheLoader - brings keys missing from memory in from the cache
// store before a local operation looks at them
type CacheLoader struct {
	Base
	Loads  counter.Counter
	Misses counter.Counter

	log *logger.L
	c   *commands.Components
}

// NewCacheLoader - create the loader stage
func NewCacheLoader(log *logger.L, c *commands.Components) *CacheLoader {
	return &CacheLoader{
		log: log,
		c:   c,
	}
}

// VisitGet - load before reading
func (i *CacheLoader) VisitGet(ctx context.Context, ic *invocation.Context, cmd *commands.Get) (interface{}, error) {
	if err := i.load(ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitPut - load the previous value
func (i *CacheLoader) VisitPut(ctx context.Context, ic *invocation.Context, cmd *commands.Put) (interface{}, error) {
	if err := i.load(ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitRemove - load the previous value
func (i *CacheLoader) VisitRemove(ctx context.Context, ic *invocation.Context, cmd *commands.Remove) (interface{}, error) {
	if err := i.load(ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitReplace - load the previous value
func (i *CacheLoader) VisitReplace(ctx context.Context, ic *invocation.Context, cmd *commands.Replace) (interface{}, error) {
	if err := i.load(ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitApplyDelta - load the map the delta applies to
func (i *CacheLoader) VisitApplyDelta(ctx context.Context, ic *invocation.Context, cmd *commands.ApplyDelta) (interface{}, error) {
	if err := i.load(ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

func (i *CacheLoader) load(ic *invocation.Context, key interface{}, flags invocation.Flag) error {
	c := i.c
	switch {
	case nil == c.Store:
		return nil
	case nil == ic || !ic.IsOriginLocal():
		return nil
	case flags.Has(invocation.SkipCacheStore) || ic.HasFlag(invocation.SkipCacheStore):
		return nil
	case nil != container.ValidKey(key) || !c.IsOwner(key):
		return nil
	}

	now := c.Time()
	if w := ic.Workspace(); nil != w {
		if _, found := w.Lookup(key); found {
			return nil
		}
	}

	loaded := false
	_, err := c.LoadEntry(key, now, func() (*entry.Entry, error) {
		loaded = true
		return c.Store.Load(key, now)
	})
	if nil != err {
		i.log.Errorf("load key: %v  error: %s", key, err)
		return err
	}
	if loaded {
		if e := c.Container.Peek(key); nil != e {
			i.Loads.Increment()
		} else {
			i.Misses.Increment()
		}
	}
	return nil
}

// CacheStore - writes the changes of non-transactional operations to
// the cache store, transactional changes are written at commit
type CacheStore struct {
	Base
	Stores  counter.Counter
	Removes counter.Counter
	Clears  counter.Counter

	log *logger.L
	c   *commands.Components
}

// NewCacheStore - create the store stage
func NewCacheStore(log *logger.L, c *commands.Components) *CacheStore {
	i := &CacheStore{
		log: log,
		c:   c,
	}
	i.handleDefault = i.handle
	return i
}

func (i *CacheStore) handle(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	if nil == i.c.Store || nil == ic || ic.IsInTxScope() {
		return i.InvokeNext(ctx, ic, cmd)
	}

	i.c.LockStore()
	defer i.c.UnlockStore()

	result, err := i.InvokeNext(ctx, ic, cmd)
	mods := ic.TakeStoreModifications()
	if nil != err {
		return nil, err
	}

	for _, m := range mods {
		if err := i.write(m); nil != err {
			i.log.Errorf("command: %s  store error: %s", cmd.CommandID(), err)
			return nil, err
		}
	}
	return result, nil
}

func (i *CacheStore) write(m storage.Modification) error {
	store := i.c.Store
	switch m.Operation {
	case storage.OpStore:
		i.Stores.Increment()
		return store.Store(m.Entry)
	case storage.OpRemove:
		i.Removes.Increment()
		_, err := store.Remove(m.Key)
		return err
	case storage.OpClear:
		i.Clears.Increment()
		return store.Clear()
	}
	return nil
}
