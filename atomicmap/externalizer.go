// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atomicmap

import (
	"reflect"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// RegisterExternalizers - add the map, delta and operation encodings
func RegisterExternalizers(r *marshal.Registry) {
	r.Register(marshal.TypePutOperation, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			op := v.(*PutOperation)
			if err := e.WriteObject(op.Key); nil != err {
				return err
			}
			return e.WriteObject(op.NewValue)
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			key, err := readKey(d)
			if nil != err {
				return nil, err
			}
			value, err := d.ReadObject()
			if nil != err {
				return nil, err
			}
			return &PutOperation{Key: key, NewValue: value}, nil
		},
	})

	r.Register(marshal.TypeRemoveOperation, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			return e.WriteObject(v.(*RemoveOperation).Key)
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			key, err := readKey(d)
			if nil != err {
				return nil, err
			}
			return &RemoveOperation{Key: key}, nil
		},
	})

	r.Register(marshal.TypeClearOperation, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			return &ClearOperation{}, nil
		},
	})

	r.Register(marshal.TypeAtomicMapDelta, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			delta := v.(*Delta)
			e.WriteUnsigned(uint64(len(delta.Operations)))
			for _, op := range delta.Operations {
				if err := e.WriteObject(op); nil != err {
					return err
				}
			}
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			n, err := d.ReadCount()
			if nil != err {
				return nil, err
			}
			delta := &Delta{
				Operations: make([]Operation, n),
			}
			for i := 0; i < n; i += 1 {
				obj, err := d.ReadObject()
				if nil != err {
					return nil, err
				}
				op, ok := obj.(Operation)
				if !ok {
					return nil, fault.ErrMalformedStream
				}
				delta.Operations[i] = op
			}
			return delta, nil
		},
	})

	r.Register(marshal.TypeAtomicMap, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			m := v.(*Map)
			m.RLock()
			defer m.RUnlock()
			e.WriteUnsigned(uint64(len(m.data)))
			for k, value := range m.data {
				if err := e.WriteObject(k); nil != err {
					return err
				}
				if err := e.WriteObject(value); nil != err {
					return err
				}
			}
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			n, err := d.ReadCount()
			if nil != err {
				return nil, err
			}
			m := New()
			for i := 0; i < n; i += 1 {
				k, err := readKey(d)
				if nil != err {
					return nil, err
				}
				value, err := d.ReadObject()
				if nil != err {
					return nil, err
				}
				m.data[k] = value
			}
			return m, nil
		},
	})
}

// a key that cannot index a map means the stream is corrupt
func readKey(d *marshal.Decoder) (interface{}, error) {
	key, err := d.ReadObject()
	if nil != err {
		return nil, err
	}
	if nil == key || !reflect.TypeOf(key).Comparable() {
		return nil, fault.ErrMalformedStream
	}
	return key, nil
}
