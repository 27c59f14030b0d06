// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package invocation

import (
	"sync"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/transaction"
)

// Flag - per call option bits
type Flag uint32

// the call options
const (
	SkipCacheStore    Flag = 1 << iota // do not read or write the cache store
	SkipRemoteLookup                   // do not fetch missing keys from owners
	ForceSynchronous                   // replicate synchronously whatever the mode
	ForceAsynchronous                  // replicate asynchronously whatever the mode
	CacheModeLocal                     // do not replicate at all
)

// Has - test a flag
func (f Flag) Has(flag Flag) bool {
	return flag == f&flag
}

// Context - scope of one logical operation
type Context struct {
	sync.Mutex
	origin        string
	local         bool
	transactional bool
	tx            *transaction.Transaction
	gtx           *transaction.GlobalTransaction
	flags         Flag
	workspace     *transaction.Workspace
	pending       []storage.Modification
	lookedUp      map[interface{}]*entry.Entry
}

// IsOriginLocal - true if the operation started on this member
func (c *Context) IsOriginLocal() bool {
	return c.local
}

// Origin - address of the originating member, empty for local
func (c *Context) Origin() string {
	return c.origin
}

// IsInTxScope - true for transactional contexts
func (c *Context) IsInTxScope() bool {
	return c.transactional
}

// Transaction - the local transaction, nil for remote or non-tx
func (c *Context) Transaction() *transaction.Transaction {
	return c.tx
}

// GlobalTransaction - the cluster identity of the transaction
func (c *Context) GlobalTransaction() *transaction.GlobalTransaction {
	c.Lock()
	defer c.Unlock()
	if nil != c.workspace {
		return c.workspace.GlobalTransaction
	}
	return c.gtx
}

// Workspace - uncommitted state, nil outside a transaction
func (c *Context) Workspace() *transaction.Workspace {
	c.Lock()
	defer c.Unlock()
	return c.workspace
}

// SetWorkspace - attach the transaction workspace
func (c *Context) SetWorkspace(w *transaction.Workspace) {
	c.Lock()
	c.workspace = w
	c.Unlock()
}

// Flags - current option bits
func (c *Context) Flags() Flag {
	c.Lock()
	defer c.Unlock()
	return c.flags
}

// HasFlag - test one option
func (c *Context) HasFlag(f Flag) bool {
	return c.Flags().Has(f)
}

// SetFlags - add options
func (c *Context) SetFlags(f Flag) {
	c.Lock()
	c.flags |= f
	c.Unlock()
}

// AddStoreModification - queue a change for the cache store
func (c *Context) AddStoreModification(m storage.Modification) {
	c.Lock()
	c.pending = append(c.pending, m)
	c.Unlock()
}

// TakeStoreModifications - remove and return the queued store changes
func (c *Context) TakeStoreModifications() []storage.Modification {
	c.Lock()
	defer c.Unlock()
	m := c.pending
	c.pending = nil
	return m
}

// PutLookedUp - remember an entry fetched for this operation, nil
// records that the owners have no entry
func (c *Context) PutLookedUp(key interface{}, e *entry.Entry) {
	c.Lock()
	if nil == c.lookedUp {
		c.lookedUp = make(map[interface{}]*entry.Entry)
	}
	c.lookedUp[key] = e
	c.Unlock()
}

// LookedUp - an entry fetched earlier in this operation
func (c *Context) LookedUp(key interface{}) (*entry.Entry, bool) {
	c.Lock()
	defer c.Unlock()
	e, ok := c.lookedUp[key]
	return e, ok
}
