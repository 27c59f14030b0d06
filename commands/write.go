// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"context"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/storage"
)

// Put - store a value, optionally only if the key is absent
type Put struct {
	base
	Key         interface{}
	Value       interface{}
	Lifespan    int64
	MaxIdle     int64
	PutIfAbsent bool
	Flags       invocation.Flag
	successful  bool
}

// MarshalTypeID - wire type
func (cmd *Put) MarshalTypeID() marshal.TypeID { return marshal.TypeID(PutID) }

// CommandID - discriminant
func (cmd *Put) CommandID() ID { return PutID }

// AffectedKeys - keys written
func (cmd *Put) AffectedKeys() []interface{} { return []interface{}{cmd.Key} }

// Successful - false if the key was present for PutIfAbsent
func (cmd *Put) Successful() bool { return cmd.successful }

// CommandFlags - call options
func (cmd *Put) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *Put) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitPut(ctx, ic, cmd)
}

// Perform - returns the previous value
func (cmd *Put) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	if !inTx {
		c.writeLock.Lock()
		defer c.writeLock.Unlock()
	}

	now := c.Time()
	previous := c.Lookup(ic, cmd.Key, now)
	if cmd.PutIfAbsent && nil != previous && !isRemoteTx(ic) {
		cmd.successful = false
		return previous.Payload, nil
	}
	cmd.successful = true

	if inTx {
		w.Put(entry.Create(cmd.Key, cmd.Value, now, cmd.Lifespan, cmd.MaxIdle))
		w.Record(cmd)
	} else {
		addStoreModifications(ic, cmd.apply(c, now, isLocal(ic), ""))
	}
	return payloadOf(previous), nil
}

func (cmd *Put) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	if !c.IsOwner(cmd.Key) {
		return nil
	}
	e := entry.Create(cmd.Key, cmd.Value, now, cmd.Lifespan, cmd.MaxIdle)
	previous := c.Container.PutEntry(e, now)
	c.notifyWritten(cmd.Key, cmd.Value, previous, originLocal, txID)
	return c.storeModifications(cmd.Flags, storage.StoreOf(e))
}

// Remove - delete a key, optionally only if it holds Value
type Remove struct {
	base
	Key         interface{}
	Value       interface{}
	Conditional bool
	Flags       invocation.Flag
	successful  bool
}

// MarshalTypeID - wire type
func (cmd *Remove) MarshalTypeID() marshal.TypeID { return marshal.TypeID(RemoveID) }

// CommandID - discriminant
func (cmd *Remove) CommandID() ID { return RemoveID }

// AffectedKeys - keys written
func (cmd *Remove) AffectedKeys() []interface{} { return []interface{}{cmd.Key} }

// Successful - false if a conditional remove did not match
func (cmd *Remove) Successful() bool { return cmd.successful }

// CommandFlags - call options
func (cmd *Remove) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *Remove) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitRemove(ctx, ic, cmd)
}

// Perform - returns the previous value, or whether a conditional
// remove happened
func (cmd *Remove) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	if !inTx {
		c.writeLock.Lock()
		defer c.writeLock.Unlock()
	}

	now := c.Time()
	previous := c.Lookup(ic, cmd.Key, now)
	if cmd.Conditional && !isRemoteTx(ic) {
		if nil == previous || !equalPayload(previous.Payload, cmd.Value) {
			cmd.successful = false
			return false, nil
		}
	}
	cmd.successful = true

	if inTx {
		w.Remove(cmd.Key)
		w.Record(cmd)
	} else {
		addStoreModifications(ic, cmd.apply(c, now, isLocal(ic), ""))
	}
	if cmd.Conditional {
		return true, nil
	}
	return payloadOf(previous), nil
}

func (cmd *Remove) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	if !c.IsOwner(cmd.Key) {
		return nil
	}
	previous := c.Container.Remove(cmd.Key, now)
	c.notifyRemoved(previous, originLocal, txID)
	return c.storeModifications(cmd.Flags, storage.RemoveOf(cmd.Key))
}

// Replace - change the value of a present key, optionally only if it
// holds OldValue
type Replace struct {
	base
	Key         interface{}
	OldValue    interface{}
	NewValue    interface{}
	Conditional bool
	Lifespan    int64
	MaxIdle     int64
	Flags       invocation.Flag
	successful  bool
}

// MarshalTypeID - wire type
func (cmd *Replace) MarshalTypeID() marshal.TypeID { return marshal.TypeID(ReplaceID) }

// CommandID - discriminant
func (cmd *Replace) CommandID() ID { return ReplaceID }

// AffectedKeys - keys written
func (cmd *Replace) AffectedKeys() []interface{} { return []interface{}{cmd.Key} }

// Successful - false if the key was absent or did not match
func (cmd *Replace) Successful() bool { return cmd.successful }

// CommandFlags - call options
func (cmd *Replace) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *Replace) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitReplace(ctx, ic, cmd)
}

// Perform - returns the previous value, or whether a conditional
// replace happened
func (cmd *Replace) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	if !inTx {
		c.writeLock.Lock()
		defer c.writeLock.Unlock()
	}

	now := c.Time()
	previous := c.Lookup(ic, cmd.Key, now)
	if !isRemoteTx(ic) {
		if nil == previous || (cmd.Conditional && !equalPayload(previous.Payload, cmd.OldValue)) {
			cmd.successful = false
			if cmd.Conditional {
				return false, nil
			}
			return nil, nil
		}
	}
	cmd.successful = true

	if inTx {
		w.Put(entry.Create(cmd.Key, cmd.NewValue, now, cmd.Lifespan, cmd.MaxIdle))
		w.Record(cmd)
	} else {
		addStoreModifications(ic, cmd.apply(c, now, isLocal(ic), ""))
	}
	if cmd.Conditional {
		return true, nil
	}
	return payloadOf(previous), nil
}

func (cmd *Replace) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	if !c.IsOwner(cmd.Key) {
		return nil
	}
	e := entry.Create(cmd.Key, cmd.NewValue, now, cmd.Lifespan, cmd.MaxIdle)
	previous := c.Container.PutEntry(e, now)
	c.notifyWritten(cmd.Key, cmd.NewValue, previous, originLocal, txID)
	return c.storeModifications(cmd.Flags, storage.StoreOf(e))
}

// PutMap - store several values with the same expiry
type PutMap struct {
	base
	Keys     []interface{}
	Values   []interface{}
	Lifespan int64
	MaxIdle  int64
	Flags    invocation.Flag
}

// MarshalTypeID - wire type
func (cmd *PutMap) MarshalTypeID() marshal.TypeID { return marshal.TypeID(PutMapID) }

// CommandID - discriminant
func (cmd *PutMap) CommandID() ID { return PutMapID }

// AffectedKeys - keys written
func (cmd *PutMap) AffectedKeys() []interface{} { return cmd.Keys }

// Successful - always
func (cmd *PutMap) Successful() bool { return true }

// CommandFlags - call options
func (cmd *PutMap) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *PutMap) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitPutMap(ctx, ic, cmd)
}

// Perform - returns nil
func (cmd *PutMap) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if len(cmd.Keys) != len(cmd.Values) {
		return nil, fault.ErrInvalidCommand
	}
	for _, k := range cmd.Keys {
		if err := container.ValidKey(k); nil != err {
			return nil, err
		}
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	now := c.Time()

	if inTx {
		for i, k := range cmd.Keys {
			w.Put(entry.Create(k, cmd.Values[i], now, cmd.Lifespan, cmd.MaxIdle))
		}
		w.Record(cmd)
		return nil, nil
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	addStoreModifications(ic, cmd.apply(c, now, isLocal(ic), ""))
	return nil, nil
}

func (cmd *PutMap) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	mods := make([]storage.Modification, 0, len(cmd.Keys))
	for i, k := range cmd.Keys {
		if !c.IsOwner(k) {
			continue
		}
		e := entry.Create(k, cmd.Values[i], now, cmd.Lifespan, cmd.MaxIdle)
		previous := c.Container.PutEntry(e, now)
		c.notifyWritten(k, cmd.Values[i], previous, originLocal, txID)
		mods = append(mods, storage.StoreOf(e))
	}
	return c.storeModifications(cmd.Flags, mods...)
}

// Clear - remove every entry
type Clear struct {
	base
	Flags invocation.Flag
}

// MarshalTypeID - wire type
func (cmd *Clear) MarshalTypeID() marshal.TypeID { return marshal.TypeID(ClearID) }

// CommandID - discriminant
func (cmd *Clear) CommandID() ID { return ClearID }

// AffectedKeys - nil: every key
func (cmd *Clear) AffectedKeys() []interface{} { return nil }

// Successful - always
func (cmd *Clear) Successful() bool { return true }

// CommandFlags - call options
func (cmd *Clear) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *Clear) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitClear(ctx, ic, cmd)
}

// Perform - returns nil
func (cmd *Clear) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	if inTx {
		w.Clear()
		w.Record(cmd)
		return nil, nil
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	addStoreModifications(ic, cmd.apply(c, c.Time(), isLocal(ic), ""))
	return nil, nil
}

func (cmd *Clear) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	removed := c.Container.Entries(now)
	c.Container.Clear()
	for _, e := range removed {
		c.notifyRemoved(e, originLocal, txID)
	}
	return c.storeModifications(cmd.Flags, storage.ClearAll())
}

// ApplyDelta - replay atomic map operations on the map stored at Key
type ApplyDelta struct {
	base
	Key   interface{}
	Delta *atomicmap.Delta
	Flags invocation.Flag
}

// MarshalTypeID - wire type
func (cmd *ApplyDelta) MarshalTypeID() marshal.TypeID { return marshal.TypeID(ApplyDeltaID) }

// CommandID - discriminant
func (cmd *ApplyDelta) CommandID() ID { return ApplyDeltaID }

// AffectedKeys - keys written
func (cmd *ApplyDelta) AffectedKeys() []interface{} { return []interface{}{cmd.Key} }

// Successful - always
func (cmd *ApplyDelta) Successful() bool { return true }

// CommandFlags - call options
func (cmd *ApplyDelta) CommandFlags() invocation.Flag { return cmd.Flags }

// Accept - visitor dispatch
func (cmd *ApplyDelta) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitApplyDelta(ctx, ic, cmd)
}

// Perform - returns nil
func (cmd *ApplyDelta) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}

	w, inTx, err := txWorkspace(ic)
	if nil != err {
		return nil, err
	}
	if !inTx {
		c.writeLock.Lock()
		defer c.writeLock.Unlock()
	}

	now := c.Time()
	if inTx {
		m := mapOf(c.Lookup(ic, cmd.Key, now))
		cmd.Delta.Replay(m)
		w.Put(entry.Create(cmd.Key, m, now, entry.NoExpiry, entry.NoExpiry))
		w.Record(cmd)
		return nil, nil
	}
	addStoreModifications(ic, cmd.apply(c, now, isLocal(ic), ""))
	return nil, nil
}

func (cmd *ApplyDelta) apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification {
	if !c.IsOwner(cmd.Key) {
		return nil
	}
	m := mapOf(c.Container.Get(cmd.Key, now))
	cmd.Delta.Replay(m)
	e := entry.Create(cmd.Key, m, now, entry.NoExpiry, entry.NoExpiry)
	previous := c.Container.PutEntry(e, now)
	c.notifyWritten(cmd.Key, m, previous, originLocal, txID)
	return c.storeModifications(cmd.Flags, storage.StoreOf(e))
}

// a private copy of the stored map, a new map if there is none
func mapOf(e *entry.Entry) *atomicmap.Map {
	if nil != e {
		if m, ok := e.Payload.(*atomicmap.Map); ok {
			return m.Copy()
		}
	}
	return atomicmap.New()
}

// Evict - drop a key from this member only
type Evict struct {
	base
	Key interface{}
}

// MarshalTypeID - wire type
func (cmd *Evict) MarshalTypeID() marshal.TypeID { return marshal.TypeID(EvictID) }

// CommandID - discriminant
func (cmd *Evict) CommandID() ID { return EvictID }

// Accept - visitor dispatch
func (cmd *Evict) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitEvict(ctx, ic, cmd)
}

// Perform - returns nil, the store and other members are untouched
func (cmd *Evict) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}
	c.Container.Remove(cmd.Key, c.Time())
	return nil, nil
}
