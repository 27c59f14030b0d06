// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marshal

import (
	"sync"

	"github.com/bitmark-inc/gridd/fault"
)

// WriteFunc - write the payload of v, the type id is already written
type WriteFunc func(e *Encoder, v interface{}) error

// ReadFunc - read a payload, the type id is already consumed
type ReadFunc func(d *Decoder) (interface{}, error)

// Externalizer - encode/decode pair for one type id
type Externalizer struct {
	Write WriteFunc
	Read  ReadFunc
}

// Registry - static table of type id to externalizer
//
// it is filled once at start up by explicit registration calls and
// only read afterwards
type Registry struct {
	sync.RWMutex
	externalizers map[TypeID]Externalizer
}

// NewRegistry - create an empty registry
func NewRegistry() *Registry {
	return &Registry{
		externalizers: make(map[TypeID]Externalizer),
	}
}

// Register - add an externalizer
//
// a duplicate or primitive id is a programming error and panics
func (r *Registry) Register(id TypeID, ext Externalizer) {
	if id <= lastPrimitive {
		fault.Panicf("marshal: register id: %d  error: %s", id, fault.ErrInvalidTypeID)
	}
	if nil == ext.Write || nil == ext.Read {
		fault.Panicf("marshal: register id: %d  error: incomplete externalizer", id)
	}

	r.Lock()
	defer r.Unlock()

	if _, ok := r.externalizers[id]; ok {
		fault.Panicf("marshal: register id: %d  error: %s", id, fault.ErrAlreadyRegistered)
	}
	r.externalizers[id] = ext
}

// Lookup - find the externalizer for an id
func (r *Registry) Lookup(id TypeID) (Externalizer, bool) {
	r.RLock()
	ext, ok := r.externalizers[id]
	r.RUnlock()
	return ext, ok
}

// IsRegistered - true if the id has an externalizer
func (r *Registry) IsRegistered(id TypeID) bool {
	_, ok := r.Lookup(id)
	return ok
}
