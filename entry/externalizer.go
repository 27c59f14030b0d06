// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// MarshalTypeID - wire type of a detached value
func (v Value) MarshalTypeID() marshal.TypeID {
	return marshal.TypeImmortalValue + marshal.TypeID(v.Kind)
}

// MarshalTypeID - wire type of a live entry
func (e *Entry) MarshalTypeID() marshal.TypeID {
	return marshal.TypeImmortalEntry + marshal.TypeID(e.Kind)
}

// RegisterExternalizers - add value and entry encodings to a registry
func RegisterExternalizers(r *marshal.Registry) {
	for _, kind := range []Kind{Immortal, Mortal, Transient, TransientMortal} {
		k := kind
		r.Register(marshal.TypeImmortalValue+marshal.TypeID(k), marshal.Externalizer{
			Write: func(e *marshal.Encoder, v interface{}) error {
				value, ok := v.(Value)
				if !ok {
					return fault.ErrNotMarshallable
				}
				return writeValue(e, value)
			},
			Read: func(d *marshal.Decoder) (interface{}, error) {
				return readValue(d, k)
			},
		})
		r.Register(marshal.TypeImmortalEntry+marshal.TypeID(k), marshal.Externalizer{
			Write: func(e *marshal.Encoder, v interface{}) error {
				ent, ok := v.(*Entry)
				if !ok || nil == ent {
					return fault.ErrNotMarshallable
				}
				if err := e.WriteObject(ent.Key); nil != err {
					return err
				}
				return writeValue(e, ent.Value)
			},
			Read: func(d *marshal.Decoder) (interface{}, error) {
				key, err := d.ReadObject()
				if nil != err {
					return nil, err
				}
				v, err := readValue(d, k)
				if nil != err {
					return nil, err
				}
				return v.ToEntry(key), nil
			},
		})
	}
}

// layout per kind:
//
//	Immortal:        payload
//	Mortal:          payload created:varint lifespan:int64
//	Transient:       payload lastUsed:varint maxIdle:int64
//	TransientMortal: payload created:varint lifespan:int64 lastUsed:varint maxIdle:int64
func writeValue(e *marshal.Encoder, v Value) error {
	if err := e.WriteObject(v.Payload); nil != err {
		return err
	}
	switch v.Kind {
	case Immortal:
	case Mortal:
		e.WriteUnsigned(uint64(v.Created))
		e.WriteSigned(v.Lifespan)
	case Transient:
		e.WriteUnsigned(uint64(v.LastUsed))
		e.WriteSigned(v.MaxIdle)
	case TransientMortal:
		e.WriteUnsigned(uint64(v.Created))
		e.WriteSigned(v.Lifespan)
		e.WriteUnsigned(uint64(v.LastUsed))
		e.WriteSigned(v.MaxIdle)
	default:
		return fault.ErrNotMarshallable
	}
	return nil
}

// decodes straight to the wire kind, so a round trip never changes the
// kind even when a sentinel would select a different one
func readValue(d *marshal.Decoder, kind Kind) (Value, error) {
	payload, err := d.ReadObject()
	if nil != err {
		return Value{}, err
	}

	switch kind {
	case Immortal:
		return NewImmortal(payload), nil

	case Mortal:
		created, lifespan, err := readPair(d)
		if nil != err {
			return Value{}, err
		}
		return NewMortal(payload, created, lifespan), nil

	case Transient:
		lastUsed, maxIdle, err := readPair(d)
		if nil != err {
			return Value{}, err
		}
		return NewTransient(payload, lastUsed, maxIdle), nil

	default:
		created, lifespan, err := readPair(d)
		if nil != err {
			return Value{}, err
		}
		lastUsed, maxIdle, err := readPair(d)
		if nil != err {
			return Value{}, err
		}
		return NewTransientMortal(payload, created, lifespan, lastUsed, maxIdle), nil
	}
}

// a varint timestamp followed by a fixed width duration
func readPair(d *marshal.Decoder) (int64, int64, error) {
	timestamp, err := d.ReadUnsigned()
	if nil != err {
		return 0, 0, err
	}
	duration, err := d.ReadSigned()
	if nil != err {
		return 0, 0, err
	}
	return int64(timestamp), duration, nil
}
