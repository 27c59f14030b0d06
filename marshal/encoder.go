// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marshal

import (
	"encoding/binary"
	"math"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
)

// Encoder - append only output buffer, one per Marshal call
type Encoder struct {
	registry *Registry
	buffer   []byte
}

// Bytes - the encoded data
func (e *Encoder) Bytes() []byte {
	return e.buffer
}

// WriteByte - append a single byte
func (e *Encoder) WriteByte(b byte) error {
	e.buffer = append(e.buffer, b)
	return nil
}

// WriteBool - append one byte, 0 or 1
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.buffer = append(e.buffer, 1)
	} else {
		e.buffer = append(e.buffer, 0)
	}
}

// WriteUnsigned - append a Varint64
func (e *Encoder) WriteUnsigned(value uint64) {
	e.buffer = util.AppendVarint64(e.buffer, value)
}

// WriteSigned - append a fixed 8 byte big endian signed integer
func (e *Encoder) WriteSigned(value int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(value))
	e.buffer = append(e.buffer, b[:]...)
}

// WriteBytes - append a length prefixed byte slice
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUnsigned(uint64(len(b)))
	e.buffer = append(e.buffer, b...)
}

// WriteString - append a length prefixed string
func (e *Encoder) WriteString(s string) {
	e.WriteUnsigned(uint64(len(s)))
	e.buffer = append(e.buffer, s...)
}

// WriteObject - append a type id and the payload of v
func (e *Encoder) WriteObject(v interface{}) error {
	switch value := v.(type) {
	case nil:
		e.buffer = append(e.buffer, byte(TypeNil))
	case bool:
		e.buffer = append(e.buffer, byte(TypeBool))
		e.WriteBool(value)
	case int:
		e.buffer = append(e.buffer, byte(TypeInt64))
		e.WriteSigned(int64(value))
	case int32:
		e.buffer = append(e.buffer, byte(TypeInt64))
		e.WriteSigned(int64(value))
	case int64:
		e.buffer = append(e.buffer, byte(TypeInt64))
		e.WriteSigned(value)
	case uint64:
		e.buffer = append(e.buffer, byte(TypeUint64))
		e.WriteUnsigned(value)
	case float64:
		e.buffer = append(e.buffer, byte(TypeFloat64))
		e.WriteSigned(int64(math.Float64bits(value)))
	case string:
		e.buffer = append(e.buffer, byte(TypeString))
		e.WriteString(value)
	case []byte:
		e.buffer = append(e.buffer, byte(TypeBytes))
		e.WriteBytes(value)
	case []interface{}:
		e.buffer = append(e.buffer, byte(TypeList))
		e.WriteUnsigned(uint64(len(value)))
		for _, item := range value {
			if err := e.WriteObject(item); nil != err {
				return err
			}
		}
	case Marshallable:
		id := value.MarshalTypeID()
		ext, ok := e.registry.Lookup(id)
		if !ok {
			return fault.ErrUnrecognisedType
		}
		e.buffer = append(e.buffer, byte(id))
		return ext.Write(e, v)
	default:
		return fault.ErrNotMarshallable
	}
	return nil
}
