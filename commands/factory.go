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

// Factory - builds the commands of one cache
type Factory struct {
	c *Components
}

// NewFactory - factory over a cache's components
func NewFactory(c *Components) *Factory {
	return &Factory{
		c: c,
	}
}

// Components - the cache parts given to every command
func (f *Factory) Components() *Components {
	return f.c
}

// Initialise - give a decoded command the components of this cache,
// commands carrying other commands are initialised recursively
func (f *Factory) Initialise(cmd ReplicableCommand) error {
	switch c := cmd.(type) {
	case *Put, *Remove, *Replace, *PutMap, *Clear, *ApplyDelta, *Get, *Evict,
		*Commit, *Rollback, *ClusteredGet:
		c.initialise(f.c)

	case *SingleRPC:
		c.initialise(f.c)
		if nil == c.Command {
			return fault.ErrInvalidCommand
		}
		return f.Initialise(c.Command)

	case *MultipleRPC:
		c.initialise(f.c)
		for _, sub := range c.Commands {
			if err := f.Initialise(sub); nil != err {
				return err
			}
		}

	case *Prepare:
		c.initialise(f.c)
		for _, m := range c.Modifications {
			if err := f.Initialise(m); nil != err {
				return err
			}
		}

	default:
		return fault.ErrInvalidCommand
	}
	return nil
}

// NewPut - store a value
func (f *Factory) NewPut(key interface{}, value interface{}, lifespan int64, maxIdle int64, flags invocation.Flag) *Put {
	return &Put{base: base{f.c}, Key: key, Value: value, Lifespan: lifespan, MaxIdle: maxIdle, Flags: flags}
}

// NewPutIfAbsent - store a value only if the key is absent
func (f *Factory) NewPutIfAbsent(key interface{}, value interface{}, lifespan int64, maxIdle int64, flags invocation.Flag) *Put {
	cmd := f.NewPut(key, value, lifespan, maxIdle, flags)
	cmd.PutIfAbsent = true
	return cmd
}

// NewRemove - delete a key
func (f *Factory) NewRemove(key interface{}, flags invocation.Flag) *Remove {
	return &Remove{base: base{f.c}, Key: key, Flags: flags}
}

// NewConditionalRemove - delete a key if it holds value
func (f *Factory) NewConditionalRemove(key interface{}, value interface{}, flags invocation.Flag) *Remove {
	return &Remove{base: base{f.c}, Key: key, Value: value, Conditional: true, Flags: flags}
}

// NewReplace - change the value of a present key
func (f *Factory) NewReplace(key interface{}, value interface{}, lifespan int64, maxIdle int64, flags invocation.Flag) *Replace {
	return &Replace{base: base{f.c}, Key: key, NewValue: value, Lifespan: lifespan, MaxIdle: maxIdle, Flags: flags}
}

// NewConditionalReplace - change the value of a key holding oldValue
func (f *Factory) NewConditionalReplace(key interface{}, oldValue interface{}, newValue interface{}, lifespan int64, maxIdle int64, flags invocation.Flag) *Replace {
	cmd := f.NewReplace(key, newValue, lifespan, maxIdle, flags)
	cmd.OldValue = oldValue
	cmd.Conditional = true
	return cmd
}

// NewPutMap - store several values, keys[i] is paired with values[i]
func (f *Factory) NewPutMap(keys []interface{}, values []interface{}, lifespan int64, maxIdle int64, flags invocation.Flag) *PutMap {
	return &PutMap{base: base{f.c}, Keys: keys, Values: values, Lifespan: lifespan, MaxIdle: maxIdle, Flags: flags}
}

// NewClear - remove every entry
func (f *Factory) NewClear(flags invocation.Flag) *Clear {
	return &Clear{base: base{f.c}, Flags: flags}
}

// NewApplyDelta - change an atomic map
func (f *Factory) NewApplyDelta(key interface{}, delta *atomicmap.Delta, flags invocation.Flag) *ApplyDelta {
	return &ApplyDelta{base: base{f.c}, Key: key, Delta: delta, Flags: flags}
}

// NewGet - read a value
func (f *Factory) NewGet(key interface{}, flags invocation.Flag) *Get {
	return &Get{base: base{f.c}, Key: key, Flags: flags}
}

// NewEvict - drop a key from this member
func (f *Factory) NewEvict(key interface{}) *Evict {
	return &Evict{base: base{f.c}, Key: key}
}

// NewClusteredGet - fetch an entry from an owner
func (f *Factory) NewClusteredGet(key interface{}) *ClusteredGet {
	return &ClusteredGet{base: base{f.c}, Cache: f.c.CacheName, Key: key}
}

// NewSingleRPC - wrap one command for this cache on other members
func (f *Factory) NewSingleRPC(cmd ReplicableCommand) *SingleRPC {
	return &SingleRPC{base: base{f.c}, Cache: f.c.CacheName, Command: cmd}
}

// NewMultipleRPC - wrap ordered commands for this cache on other members
func (f *Factory) NewMultipleRPC(cmds []ReplicableCommand) *MultipleRPC {
	return &MultipleRPC{base: base{f.c}, Cache: f.c.CacheName, Commands: cmds}
}

// NewPrepare - ship the modifications of a transaction
func (f *Factory) NewPrepare(gtx *transaction.GlobalTransaction, modifications []WriteCommand, onePhase bool) *Prepare {
	return &Prepare{base: base{f.c}, GTX: gtx, Modifications: modifications, OnePhase: onePhase}
}

// NewCommit - complete a prepared transaction
func (f *Factory) NewCommit(gtx *transaction.GlobalTransaction) *Commit {
	return &Commit{base: base{f.c}, GTX: gtx}
}

// NewRollback - discard a prepared transaction
func (f *Factory) NewRollback(gtx *transaction.GlobalTransaction) *Rollback {
	return &Rollback{base: base{f.c}, GTX: gtx}
}
