// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/gridd/entry"
)

// Operation - kind of store modification
type Operation int

// modification kinds
const (
	OpStore Operation = iota
	OpRemove
	OpClear
)

// Modification - one change to be applied to a store
type Modification struct {
	Operation Operation
	Entry     *entry.Entry // OpStore
	Key       interface{}  // OpRemove
}

// StoreOf - modification storing an entry
func StoreOf(e *entry.Entry) Modification {
	return Modification{
		Operation: OpStore,
		Entry:     e,
	}
}

// RemoveOf - modification removing a key
func RemoveOf(key interface{}) Modification {
	return Modification{
		Operation: OpRemove,
		Key:       key,
	}
}

// ClearAll - modification removing every entry
func ClearAll() Modification {
	return Modification{
		Operation: OpClear,
	}
}

// Store - persistent backing for a cache
type Store interface {
	Store(e *entry.Entry) error
	Load(key interface{}, now int64) (*entry.Entry, error)
	ContainsKey(key interface{}, now int64) (bool, error)
	Remove(key interface{}) (bool, error)
	PurgeExpired(now int64) (int, error)
	Clear() error
	Prepare(txKey string, modifications []Modification) error
	Commit(txKey string) error
	Rollback(txKey string) error
	Iterate(f func(e *entry.Entry) bool) error
	Close() error
}
