// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"
	"sort"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/invocation"
)

// LocateFunc - the members owning a key, primary first
type LocateFunc func(key interface{}) []string

// Distribution - keeps each key on its owners only
//
// a local operation on a key this member does not own first fetches
// the current entry from an owner, a successful write is sent to the
// owners of the keys it changed
type Distribution struct {
	Base
	replicator
	RemoteGets counter.Counter

	c      *commands.Components
	locate LocateFunc
}

// NewDistribution - create the distribution stage; queue may be nil
func NewDistribution(log *logger.L, factory *commands.Factory, rpc RPC, queue Enqueuer, sync bool, locate LocateFunc) *Distribution {
	i := &Distribution{
		replicator: replicator{
			log:     log,
			factory: factory,
			rpc:     rpc,
			queue:   queue,
			sync:    sync,
		},
		c:      factory.Components(),
		locate: locate,
	}
	i.handleDefault = i.write
	return i
}

// VisitGet - fetch a key owned elsewhere
func (i *Distribution) VisitGet(ctx context.Context, ic *invocation.Context, cmd *commands.Get) (interface{}, error) {
	if err := i.remoteGet(ctx, ic, cmd.Key, cmd.Flags); nil != err {
		return nil, err
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitEvict - local only
func (i *Distribution) VisitEvict(ctx context.Context, ic *invocation.Context, cmd *commands.Evict) (interface{}, error) {
	return i.InvokeNext(ctx, ic, cmd)
}

func (i *Distribution) write(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	// operations that return or test the previous value need it
	switch c := cmd.(type) {
	case *commands.Put:
		if err := i.remoteGet(ctx, ic, c.Key, c.Flags); nil != err {
			return nil, err
		}
	case *commands.Remove:
		if err := i.remoteGet(ctx, ic, c.Key, c.Flags); nil != err {
			return nil, err
		}
	case *commands.Replace:
		if err := i.remoteGet(ctx, ic, c.Key, c.Flags); nil != err {
			return nil, err
		}
	case *commands.ApplyDelta:
		if err := i.remoteGet(ctx, ic, c.Key, c.Flags); nil != err {
			return nil, err
		}
	}

	result, err := i.InvokeNext(ctx, ic, cmd)
	if nil != err {
		return nil, err
	}
	w, ok := i.shouldReplicate(ic, cmd)
	if !ok {
		return result, nil
	}

	var targets []string
	if keys := w.AffectedKeys(); nil != keys {
		targets = i.Owners(keys)
		if 0 == len(targets) {
			return result, nil
		}
	}
	if err := i.replicate(ctx, ic, targets, w); nil != err {
		return nil, err
	}
	return result, nil
}

// Owners - members other than this one owning any of keys, sorted
func (i *Distribution) Owners(keys []interface{}) []string {
	self := i.rpc.Address()
	seen := make(map[string]struct{})
	for _, k := range keys {
		for _, owner := range i.locate(k) {
			if owner != self {
				seen[owner] = struct{}{}
			}
		}
	}
	targets := make([]string, 0, len(seen))
	for owner := range seen {
		targets = append(targets, owner)
	}
	sort.Strings(targets)
	return targets
}

// fetch the entry of a key this member does not own, once per
// invocation context
func (i *Distribution) remoteGet(ctx context.Context, ic *invocation.Context, key interface{}, flags invocation.Flag) error {
	switch {
	case nil == ic || !ic.IsOriginLocal():
		return nil
	case flags.Has(invocation.SkipRemoteLookup) || ic.HasFlag(invocation.SkipRemoteLookup):
		return nil
	case flags.Has(invocation.CacheModeLocal) || ic.HasFlag(invocation.CacheModeLocal):
		return nil
	case i.c.IsOwner(key):
		return nil
	}
	if _, found := ic.LookedUp(key); found {
		return nil
	}
	if w := ic.Workspace(); nil != w {
		if _, found := w.Lookup(key); found {
			return nil
		}
	}

	owners := i.Owners([]interface{}{key})
	if 0 == len(owners) {
		return nil
	}

	i.RemoteGets.Increment()
	results, err := i.rpc.InvokeRemotely(ctx, owners, i.factory.NewClusteredGet(key), true)
	if nil != err {
		return err
	}

	var found *entry.Entry
	for _, owner := range owners {
		if e, ok := results[owner].(*entry.Entry); ok && nil != e {
			found = e
			break
		}
	}
	ic.PutLookedUp(key, found)
	return nil
}
