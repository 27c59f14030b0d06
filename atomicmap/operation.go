// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atomicmap

import (
	"github.com/bitmark-inc/gridd/marshal"
)

// Operation - one recorded change to an atomic map
//
// only what Replay needs crosses the wire, the state kept for
// Rollback is local to the member that recorded the operation
type Operation interface {
	marshal.Marshallable
	Replay(data map[interface{}]interface{})
	Rollback(data map[interface{}]interface{})
}

// PutOperation - a key was set
type PutOperation struct {
	Key      interface{}
	NewValue interface{}
	oldValue interface{}
	existed  bool
}

// MarshalTypeID - wire type
func (op *PutOperation) MarshalTypeID() marshal.TypeID {
	return marshal.TypePutOperation
}

// Replay - apply to data
func (op *PutOperation) Replay(data map[interface{}]interface{}) {
	data[op.Key] = op.NewValue
}

// Rollback - undo on data
func (op *PutOperation) Rollback(data map[interface{}]interface{}) {
	if op.existed {
		data[op.Key] = op.oldValue
	} else {
		delete(data, op.Key)
	}
}

// RemoveOperation - a key was removed
type RemoveOperation struct {
	Key      interface{}
	oldValue interface{}
	existed  bool
}

// MarshalTypeID - wire type
func (op *RemoveOperation) MarshalTypeID() marshal.TypeID {
	return marshal.TypeRemoveOperation
}

// Replay - apply to data
func (op *RemoveOperation) Replay(data map[interface{}]interface{}) {
	delete(data, op.Key)
}

// Rollback - undo on data
func (op *RemoveOperation) Rollback(data map[interface{}]interface{}) {
	if op.existed {
		data[op.Key] = op.oldValue
	}
}

// ClearOperation - every key was removed
type ClearOperation struct {
	original map[interface{}]interface{}
}

// MarshalTypeID - wire type
func (op *ClearOperation) MarshalTypeID() marshal.TypeID {
	return marshal.TypeClearOperation
}

// Replay - apply to data
func (op *ClearOperation) Replay(data map[interface{}]interface{}) {
	for k := range data {
		delete(data, k)
	}
}

// Rollback - undo on data
func (op *ClearOperation) Rollback(data map[interface{}]interface{}) {
	for k, v := range op.original {
		data[k] = v
	}
}

// Delta - ordered operations shipped to other members
type Delta struct {
	Operations []Operation
}

// MarshalTypeID - wire type
func (d *Delta) MarshalTypeID() marshal.TypeID {
	return marshal.TypeAtomicMapDelta
}

// IsEmpty - true if nothing was recorded
func (d *Delta) IsEmpty() bool {
	return nil == d || 0 == len(d.Operations)
}

// Replay - apply every operation in order to m
func (d *Delta) Replay(m *Map) {
	if d.IsEmpty() {
		return
	}
	m.Lock()
	defer m.Unlock()
	for _, op := range d.Operations {
		op.Replay(m.data)
	}
}
