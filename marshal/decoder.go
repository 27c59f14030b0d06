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

// nesting limit for composite objects
const maximumDepth = 32

// Decoder - reads from an immutable input buffer, one per Unmarshal call
type Decoder struct {
	registry *Registry
	buffer   []byte
	offset   int
	depth    int
}

// Remaining - count of unread bytes
func (d *Decoder) Remaining() int {
	return len(d.buffer) - d.offset
}

// ReadByte - read a single byte
func (d *Decoder) ReadByte() (byte, error) {
	if d.offset >= len(d.buffer) {
		return 0, fault.ErrMalformedStream
	}
	b := d.buffer[d.offset]
	d.offset += 1
	return b, nil
}

// ReadBool - read a byte that must be 0 or 1
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if nil != err {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fault.ErrMalformedStream
	}
}

// ReadUnsigned - read a Varint64
func (d *Decoder) ReadUnsigned() (uint64, error) {
	value, n := util.FromVarint64(d.buffer[d.offset:])
	if 0 == n {
		return 0, fault.ErrMalformedStream
	}
	d.offset += n
	return value, nil
}

// ReadSigned - read a fixed 8 byte big endian signed integer
func (d *Decoder) ReadSigned() (int64, error) {
	if d.Remaining() < 8 {
		return 0, fault.ErrMalformedStream
	}
	value := binary.BigEndian.Uint64(d.buffer[d.offset:])
	d.offset += 8
	return int64(value), nil
}

// ReadCount - read a Varint64 count that must not exceed the bytes
// left, every counted item takes at least one byte
func (d *Decoder) ReadCount() (int, error) {
	n, err := d.ReadUnsigned()
	if nil != err {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		return 0, fault.ErrMalformedStream
	}
	return int(n), nil
}

// ReadBytes - read a length prefixed byte slice
//
// the result is a copy, the input buffer is not retained
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadCount()
	if nil != err {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buffer[d.offset:d.offset+n])
	d.offset += n
	return b, nil
}

// ReadString - read a length prefixed string
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadCount()
	if nil != err {
		return "", err
	}
	s := string(d.buffer[d.offset : d.offset+n])
	d.offset += n
	return s, nil
}

// ReadObject - read a type id and its payload
func (d *Decoder) ReadObject() (interface{}, error) {
	b, err := d.ReadByte()
	if nil != err {
		return nil, err
	}
	id := TypeID(b)

	switch id {
	case TypeNil:
		return nil, nil
	case TypeBool:
		return d.ReadBool()
	case TypeInt64:
		return d.ReadSigned()
	case TypeUint64:
		return d.ReadUnsigned()
	case TypeFloat64:
		bits, err := d.ReadSigned()
		if nil != err {
			return nil, err
		}
		return math.Float64frombits(uint64(bits)), nil
	case TypeString:
		return d.ReadString()
	case TypeBytes:
		return d.ReadBytes()
	case TypeList:
		return d.ReadList()
	}

	ext, ok := d.registry.Lookup(id)
	if !ok {
		return nil, fault.ErrUnrecognisedType
	}

	d.depth += 1
	defer func() { d.depth -= 1 }()
	if d.depth > maximumDepth {
		return nil, fault.ErrMalformedStream
	}
	return ext.Read(d)
}

// ReadList - read a count prefixed list of objects, order is preserved
func (d *Decoder) ReadList() ([]interface{}, error) {
	n, err := d.ReadCount()
	if nil != err {
		return nil, err
	}

	d.depth += 1
	defer func() { d.depth -= 1 }()
	if d.depth > maximumDepth {
		return nil, fault.ErrMalformedStream
	}

	list := make([]interface{}, n)
	for i := 0; i < n; i += 1 {
		list[i], err = d.ReadObject()
		if nil != err {
			return nil, err
		}
	}
	return list, nil
}
