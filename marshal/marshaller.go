// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marshal

import (
	"github.com/bitmark-inc/gridd/fault"
)

// Marshaller - converts objects to and from versioned byte streams
//
// it holds no per call state, so a single instance is shared by all
// goroutines
type Marshaller struct {
	registry *Registry
}

// New - create a marshaller over a filled registry
func New(registry *Registry) *Marshaller {
	return &Marshaller{
		registry: registry,
	}
}

// Registry - the type table used by this marshaller
func (m *Marshaller) Registry() *Registry {
	return m.registry
}

// Marshal - encode one object with the version header
func (m *Marshaller) Marshal(v interface{}) ([]byte, error) {
	e := m.NewEncoder()
	e.buffer = append(e.buffer, Version)
	if err := e.WriteObject(v); nil != err {
		return nil, err
	}
	return e.Bytes(), nil
}

// Unmarshal - decode one object, the whole buffer must be consumed
func (m *Marshaller) Unmarshal(buffer []byte) (interface{}, error) {
	if 0 == len(buffer) {
		return nil, fault.ErrMalformedStream
	}
	if Version != buffer[0] {
		return nil, fault.ErrUnsupportedVersion
	}

	d := m.NewDecoder(buffer[1:])
	v, err := d.ReadObject()
	if nil != err {
		return nil, err
	}
	if 0 != d.Remaining() {
		return nil, fault.ErrMalformedStream
	}
	return v, nil
}

// NewEncoder - encoder without version header, for stores that keep
// the version elsewhere
func (m *Marshaller) NewEncoder() *Encoder {
	return &Encoder{
		registry: m.registry,
		buffer:   make([]byte, 0, 64),
	}
}

// NewDecoder - decoder without version header
func (m *Marshaller) NewDecoder(buffer []byte) *Decoder {
	return &Decoder{
		registry: m.registry,
		buffer:   buffer,
	}
}
