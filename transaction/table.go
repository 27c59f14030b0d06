// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"sync"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/marshal"
)

// Modification - a write recorded in a workspace, replayed at commit
type Modification interface {
	marshal.Marshallable
}

// Workspace - the uncommitted state of one transaction in one cache
type Workspace struct {
	sync.Mutex
	GlobalTransaction *GlobalTransaction
	Prepared          bool // remote members hold a prepared copy

	modifications []Modification
	entries       map[interface{}]*entry.Entry // nil: removed in this transaction
	cleared       bool
}

func newWorkspace(gtx *GlobalTransaction) *Workspace {
	return &Workspace{
		GlobalTransaction: gtx,
		entries:           make(map[interface{}]*entry.Entry),
	}
}

// Record - append a modification, order is commit order
func (w *Workspace) Record(m Modification) {
	w.Lock()
	w.modifications = append(w.modifications, m)
	w.Unlock()
}

// Modifications - copy of the recorded modifications in order
func (w *Workspace) Modifications() []Modification {
	w.Lock()
	defer w.Unlock()
	result := make([]Modification, len(w.modifications))
	copy(result, w.modifications)
	return result
}

// Lookup - entry as seen by this transaction
//
// found is false if the transaction has not touched the key and has
// not cleared the cache, the caller must then read committed state
func (w *Workspace) Lookup(key interface{}) (e *entry.Entry, found bool) {
	w.Lock()
	defer w.Unlock()
	e, found = w.entries[key]
	if !found && w.cleared {
		return nil, true
	}
	return e, found
}

// Put - remember a written entry
func (w *Workspace) Put(e *entry.Entry) {
	w.Lock()
	w.entries[e.Key] = e
	w.Unlock()
}

// Remove - remember a removal
func (w *Workspace) Remove(key interface{}) {
	w.Lock()
	w.entries[key] = nil
	w.Unlock()
}

// Clear - forget everything written so far and hide committed state
func (w *Workspace) Clear() {
	w.Lock()
	w.entries = make(map[interface{}]*entry.Entry)
	w.cleared = true
	w.Unlock()
}

// Table - transactions with work pending in one cache
type Table struct {
	sync.Mutex
	address string
	local   map[*Transaction]*Workspace
	remote  map[string]*Workspace
}

// NewTable - create a table for the member at address
func NewTable(address string) *Table {
	return &Table{
		address: address,
		local:   make(map[*Transaction]*Workspace),
		remote:  make(map[string]*Workspace),
	}
}

// LocalWorkspace - workspace of a local transaction, created on first
// use; created reports a new workspace so the caller can enlist
func (t *Table) LocalWorkspace(tx *Transaction) (w *Workspace, created bool) {
	t.Lock()
	defer t.Unlock()

	w, ok := t.local[tx]
	if ok {
		return w, false
	}
	w = newWorkspace(NewGlobalTransaction(t.address))
	t.local[tx] = w
	return w, true
}

// FindLocal - workspace of a local transaction if it has one
func (t *Table) FindLocal(tx *Transaction) (*Workspace, bool) {
	t.Lock()
	defer t.Unlock()
	w, ok := t.local[tx]
	return w, ok
}

// RemoveLocal - forget a completed local transaction
func (t *Table) RemoveLocal(tx *Transaction) {
	t.Lock()
	delete(t.local, tx)
	t.Unlock()
}

// RemoteWorkspace - workspace of a transaction started elsewhere
func (t *Table) RemoteWorkspace(gtx *GlobalTransaction, create bool) (*Workspace, bool) {
	t.Lock()
	defer t.Unlock()

	key := gtx.Key()
	w, ok := t.remote[key]
	if ok || !create {
		return w, ok
	}
	w = newWorkspace(gtx)
	t.remote[key] = w
	return w, true
}

// RemoveRemote - forget a completed remote transaction
func (t *Table) RemoveRemote(gtx *GlobalTransaction) {
	t.Lock()
	delete(t.remote, gtx.Key())
	t.Unlock()
}

// Counts - number of local and remote transactions in progress
func (t *Table) Counts() (int, int) {
	t.Lock()
	defer t.Unlock()
	return len(t.local), len(t.remote)
}
