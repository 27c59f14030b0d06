// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/transaction"
)

// parameter lists are positional, any mismatch of id, count or type
// means the stream was not written by this version

// Parameters - key value lifespan maxIdle putIfAbsent flags
func (cmd *Put) Parameters() []interface{} {
	return []interface{}{cmd.Key, cmd.Value, cmd.Lifespan, cmd.MaxIdle, cmd.PutIfAbsent, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *Put) SetParameters(id ID, p []interface{}) error {
	if err := check(id, PutID, p, 6); nil != err {
		return err
	}
	var ok [4]bool
	cmd.Key = p[0]
	cmd.Value = p[1]
	cmd.Lifespan, ok[0] = p[2].(int64)
	cmd.MaxIdle, ok[1] = p[3].(int64)
	cmd.PutIfAbsent, ok[2] = p[4].(bool)
	cmd.Flags, ok[3] = flagsOf(p[5])
	return allOK(ok[:])
}

// Parameters - key value conditional flags
func (cmd *Remove) Parameters() []interface{} {
	return []interface{}{cmd.Key, cmd.Value, cmd.Conditional, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *Remove) SetParameters(id ID, p []interface{}) error {
	if err := check(id, RemoveID, p, 4); nil != err {
		return err
	}
	var ok [2]bool
	cmd.Key = p[0]
	cmd.Value = p[1]
	cmd.Conditional, ok[0] = p[2].(bool)
	cmd.Flags, ok[1] = flagsOf(p[3])
	return allOK(ok[:])
}

// Parameters - key old new conditional lifespan maxIdle flags
func (cmd *Replace) Parameters() []interface{} {
	return []interface{}{cmd.Key, cmd.OldValue, cmd.NewValue, cmd.Conditional, cmd.Lifespan, cmd.MaxIdle, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *Replace) SetParameters(id ID, p []interface{}) error {
	if err := check(id, ReplaceID, p, 7); nil != err {
		return err
	}
	var ok [4]bool
	cmd.Key = p[0]
	cmd.OldValue = p[1]
	cmd.NewValue = p[2]
	cmd.Conditional, ok[0] = p[3].(bool)
	cmd.Lifespan, ok[1] = p[4].(int64)
	cmd.MaxIdle, ok[2] = p[5].(int64)
	cmd.Flags, ok[3] = flagsOf(p[6])
	return allOK(ok[:])
}

// Parameters - keys values lifespan maxIdle flags
func (cmd *PutMap) Parameters() []interface{} {
	return []interface{}{cmd.Keys, cmd.Values, cmd.Lifespan, cmd.MaxIdle, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *PutMap) SetParameters(id ID, p []interface{}) error {
	if err := check(id, PutMapID, p, 5); nil != err {
		return err
	}
	var ok [5]bool
	cmd.Keys, ok[0] = p[0].([]interface{})
	cmd.Values, ok[1] = p[1].([]interface{})
	cmd.Lifespan, ok[2] = p[2].(int64)
	cmd.MaxIdle, ok[3] = p[3].(int64)
	cmd.Flags, ok[4] = flagsOf(p[4])
	if err := allOK(ok[:]); nil != err {
		return err
	}
	if len(cmd.Keys) != len(cmd.Values) {
		return fault.ErrMalformedStream
	}
	return nil
}

// Parameters - flags
func (cmd *Clear) Parameters() []interface{} {
	return []interface{}{uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *Clear) SetParameters(id ID, p []interface{}) error {
	if err := check(id, ClearID, p, 1); nil != err {
		return err
	}
	var ok [1]bool
	cmd.Flags, ok[0] = flagsOf(p[0])
	return allOK(ok[:])
}

// Parameters - key delta flags
func (cmd *ApplyDelta) Parameters() []interface{} {
	return []interface{}{cmd.Key, cmd.Delta, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *ApplyDelta) SetParameters(id ID, p []interface{}) error {
	if err := check(id, ApplyDeltaID, p, 3); nil != err {
		return err
	}
	var ok [2]bool
	cmd.Key = p[0]
	cmd.Delta, ok[0] = p[1].(*atomicmap.Delta)
	cmd.Flags, ok[1] = flagsOf(p[2])
	return allOK(ok[:])
}

// Parameters - key flags
func (cmd *Get) Parameters() []interface{} {
	return []interface{}{cmd.Key, uint64(cmd.Flags)}
}

// SetParameters - from a decoded list
func (cmd *Get) SetParameters(id ID, p []interface{}) error {
	if err := check(id, GetID, p, 2); nil != err {
		return err
	}
	var ok [1]bool
	cmd.Key = p[0]
	cmd.Flags, ok[0] = flagsOf(p[1])
	return allOK(ok[:])
}

// Parameters - key
func (cmd *Evict) Parameters() []interface{} {
	return []interface{}{cmd.Key}
}

// SetParameters - from a decoded list
func (cmd *Evict) SetParameters(id ID, p []interface{}) error {
	if err := check(id, EvictID, p, 1); nil != err {
		return err
	}
	cmd.Key = p[0]
	return nil
}

// Parameters - cache key
func (cmd *ClusteredGet) Parameters() []interface{} {
	return []interface{}{cmd.Cache, cmd.Key}
}

// SetParameters - from a decoded list
func (cmd *ClusteredGet) SetParameters(id ID, p []interface{}) error {
	if err := check(id, ClusteredGetID, p, 2); nil != err {
		return err
	}
	var ok [1]bool
	cmd.Cache, ok[0] = p[0].(string)
	cmd.Key = p[1]
	return allOK(ok[:])
}

// Parameters - cache command
func (cmd *SingleRPC) Parameters() []interface{} {
	return []interface{}{cmd.Cache, cmd.Command}
}

// SetParameters - from a decoded list
func (cmd *SingleRPC) SetParameters(id ID, p []interface{}) error {
	if err := check(id, SingleRPCID, p, 2); nil != err {
		return err
	}
	var ok [2]bool
	cmd.Cache, ok[0] = p[0].(string)
	cmd.Command, ok[1] = p[1].(ReplicableCommand)
	return allOK(ok[:])
}

// Parameters - cache commands
func (cmd *MultipleRPC) Parameters() []interface{} {
	list := make([]interface{}, len(cmd.Commands))
	for i, sub := range cmd.Commands {
		list[i] = sub
	}
	return []interface{}{cmd.Cache, list}
}

// SetParameters - from a decoded list
func (cmd *MultipleRPC) SetParameters(id ID, p []interface{}) error {
	if err := check(id, MultipleRPCID, p, 2); nil != err {
		return err
	}
	cache, ok := p[0].(string)
	list, ok2 := p[1].([]interface{})
	if !ok || !ok2 {
		return fault.ErrMalformedStream
	}
	subs := make([]ReplicableCommand, len(list))
	for i, item := range list {
		sub, ok := item.(ReplicableCommand)
		if !ok {
			return fault.ErrMalformedStream
		}
		subs[i] = sub
	}
	cmd.Cache = cache
	cmd.Commands = subs
	return nil
}

// Parameters - global transaction modifications onePhase
func (cmd *Prepare) Parameters() []interface{} {
	list := make([]interface{}, len(cmd.Modifications))
	for i, m := range cmd.Modifications {
		list[i] = m
	}
	return []interface{}{cmd.GTX, list, cmd.OnePhase}
}

// SetParameters - from a decoded list
func (cmd *Prepare) SetParameters(id ID, p []interface{}) error {
	if err := check(id, PrepareID, p, 3); nil != err {
		return err
	}
	gtx, ok1 := p[0].(*transaction.GlobalTransaction)
	list, ok2 := p[1].([]interface{})
	onePhase, ok3 := p[2].(bool)
	if !ok1 || !ok2 || !ok3 {
		return fault.ErrMalformedStream
	}
	mods := make([]WriteCommand, len(list))
	for i, item := range list {
		m, ok := item.(WriteCommand)
		if !ok {
			return fault.ErrMalformedStream
		}
		mods[i] = m
	}
	cmd.GTX = gtx
	cmd.Modifications = mods
	cmd.OnePhase = onePhase
	return nil
}

// Parameters - global transaction
func (cmd *Commit) Parameters() []interface{} {
	return []interface{}{cmd.GTX}
}

// SetParameters - from a decoded list
func (cmd *Commit) SetParameters(id ID, p []interface{}) error {
	if err := check(id, CommitID, p, 1); nil != err {
		return err
	}
	var ok [1]bool
	cmd.GTX, ok[0] = p[0].(*transaction.GlobalTransaction)
	return allOK(ok[:])
}

// Parameters - global transaction
func (cmd *Rollback) Parameters() []interface{} {
	return []interface{}{cmd.GTX}
}

// SetParameters - from a decoded list
func (cmd *Rollback) SetParameters(id ID, p []interface{}) error {
	if err := check(id, RollbackID, p, 1); nil != err {
		return err
	}
	var ok [1]bool
	cmd.GTX, ok[0] = p[0].(*transaction.GlobalTransaction)
	return allOK(ok[:])
}

func check(id ID, expected ID, p []interface{}, n int) error {
	if id != expected || len(p) != n {
		return fault.ErrMalformedStream
	}
	return nil
}

func allOK(ok []bool) error {
	for _, b := range ok {
		if !b {
			return fault.ErrMalformedStream
		}
	}
	return nil
}

func flagsOf(v interface{}) (invocation.Flag, bool) {
	f, ok := v.(uint64)
	return invocation.Flag(f), ok
}
