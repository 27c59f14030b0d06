// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tree

import (
	"fmt"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// Contents - which half of a node a key addresses, the value is the
// wire byte
type Contents byte

// the node halves
const (
	Data      Contents = 1
	Structure Contents = 2
)

// String - for logging
func (c Contents) String() string {
	switch c {
	case Data:
		return "DATA"
	case Structure:
		return "STRUCTURE"
	default:
		return "*unknown*"
	}
}

// NodeKey - cache key of one half of a node
type NodeKey struct {
	Fqn      Fqn
	Contents Contents
}

// MarshalTypeID - wire type
func (k NodeKey) MarshalTypeID() marshal.TypeID {
	return marshal.TypeNodeKey
}

// String - for logging
func (k NodeKey) String() string {
	return fmt.Sprintf("NodeKey{contents=%s, fqn=%s}", k.Contents, k.Fqn)
}

func dataKey(f Fqn) NodeKey {
	return NodeKey{Fqn: f, Contents: Data}
}

func structureKey(f Fqn) NodeKey {
	return NodeKey{Fqn: f, Contents: Structure}
}

// RegisterExternalizers - add the name and key encodings
func RegisterExternalizers(r *marshal.Registry) {
	r.Register(marshal.TypeFqn, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			f, ok := v.(Fqn)
			if !ok {
				return fault.ErrNotMarshallable
			}
			elements := f.Elements()
			e.WriteUnsigned(uint64(len(elements)))
			for _, element := range elements {
				e.WriteString(element)
			}
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			n, err := d.ReadCount()
			if nil != err {
				return nil, err
			}
			elements := make([]string, n)
			for i := 0; i < n; i += 1 {
				if elements[i], err = d.ReadString(); nil != err {
					return nil, err
				}
			}
			f, err := NewFqn(elements...)
			if nil != err {
				return nil, fault.ErrMalformedStream
			}
			return f, nil
		},
	})

	r.Register(marshal.TypeNodeKey, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			k, ok := v.(NodeKey)
			if !ok {
				return fault.ErrNotMarshallable
			}
			if err := e.WriteObject(k.Fqn); nil != err {
				return err
			}
			return e.WriteByte(byte(k.Contents))
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			v, err := d.ReadObject()
			if nil != err {
				return nil, err
			}
			f, ok := v.(Fqn)
			if !ok {
				return nil, fault.ErrMalformedStream
			}
			b, err := d.ReadByte()
			if nil != err {
				return nil, err
			}
			switch c := Contents(b); c {
			case Data, Structure:
				return NodeKey{Fqn: f, Contents: c}, nil
			default:
				return nil, fault.ErrMalformedStream
			}
		},
	})
}
