// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package atomicmap is a map stored as a single cache value whose
// changes replicate as a delta of operations instead of the whole map
package atomicmap

import (
	"reflect"
	"sync"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// Map - map recording its own changes
type Map struct {
	sync.RWMutex
	data     map[interface{}]interface{}
	recorded []Operation
}

// New - empty map
func New() *Map {
	return &Map{
		data: make(map[interface{}]interface{}),
	}
}

// MarshalTypeID - wire type
func (m *Map) MarshalTypeID() marshal.TypeID {
	return marshal.TypeAtomicMap
}

// Get - read a key
func (m *Map) Get(key interface{}) (interface{}, bool) {
	m.RLock()
	defer m.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Put - set a key, returns the previous value
func (m *Map) Put(key interface{}, value interface{}) (interface{}, error) {
	if nil == key || !reflect.TypeOf(key).Comparable() {
		return nil, fault.ErrInvalidKey
	}

	m.Lock()
	defer m.Unlock()

	old, existed := m.data[key]
	op := &PutOperation{
		Key:      key,
		NewValue: value,
		oldValue: old,
		existed:  existed,
	}
	op.Replay(m.data)
	m.recorded = append(m.recorded, op)
	return old, nil
}

// Remove - delete a key, returns the previous value
func (m *Map) Remove(key interface{}) interface{} {
	m.Lock()
	defer m.Unlock()

	old, existed := m.data[key]
	if !existed {
		return nil
	}
	op := &RemoveOperation{
		Key:      key,
		oldValue: old,
		existed:  existed,
	}
	op.Replay(m.data)
	m.recorded = append(m.recorded, op)
	return old
}

// Clear - delete everything
func (m *Map) Clear() {
	m.Lock()
	defer m.Unlock()

	op := &ClearOperation{
		original: copyData(m.data),
	}
	op.Replay(m.data)
	m.recorded = append(m.recorded, op)
}

// Size - number of keys
func (m *Map) Size() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.data)
}

// ToMap - a plain copy of the content
func (m *Map) ToMap() map[interface{}]interface{} {
	m.RLock()
	defer m.RUnlock()
	return copyData(m.data)
}

// Copy - same content, nothing recorded
func (m *Map) Copy() *Map {
	return &Map{
		data: m.ToMap(),
	}
}

// Delta - take the operations recorded since the last call
func (m *Map) Delta() *Delta {
	m.Lock()
	defer m.Unlock()

	d := &Delta{
		Operations: m.recorded,
	}
	m.recorded = nil
	return d
}

// Rollback - undo every recorded operation, newest first
func (m *Map) Rollback() {
	m.Lock()
	defer m.Unlock()

	for i := len(m.recorded) - 1; i >= 0; i -= 1 {
		m.recorded[i].Rollback(m.data)
	}
	m.recorded = nil
}

func copyData(data map[interface{}]interface{}) map[interface{}]interface{} {
	result := make(map[interface{}]interface{}, len(data))
	for k, v := range data {
		result[k] = v
	}
	return result
}
