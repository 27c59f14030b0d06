// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"github.com/pborman/uuid"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// GlobalTransaction - cluster wide identity of a transaction
type GlobalTransaction struct {
	ID     uuid.UUID
	Origin string // address of the originating member
}

// NewGlobalTransaction - fresh identity originating at address
func NewGlobalTransaction(origin string) *GlobalTransaction {
	return &GlobalTransaction{
		ID:     uuid.NewRandom(),
		Origin: origin,
	}
}

// Key - comparable form for maps
func (gtx *GlobalTransaction) Key() string {
	return gtx.Origin + "/" + gtx.ID.String()
}

func (gtx *GlobalTransaction) String() string {
	return "GlobalTransaction:" + gtx.Key()
}

// Equal - same identity
func (gtx *GlobalTransaction) Equal(other *GlobalTransaction) bool {
	if nil == gtx || nil == other {
		return gtx == other
	}
	return uuid.Equal(gtx.ID, other.ID) && gtx.Origin == other.Origin
}

// MarshalTypeID - wire type
func (gtx *GlobalTransaction) MarshalTypeID() marshal.TypeID {
	return marshal.TypeGlobalTransaction
}

// RegisterExternalizers - add the global transaction encoding
func RegisterExternalizers(r *marshal.Registry) {
	r.Register(marshal.TypeGlobalTransaction, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			gtx := v.(*GlobalTransaction)
			e.WriteBytes(gtx.ID)
			e.WriteString(gtx.Origin)
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			id, err := d.ReadBytes()
			if nil != err {
				return nil, err
			}
			if 16 != len(id) {
				return nil, fault.ErrMalformedStream
			}
			origin, err := d.ReadString()
			if nil != err {
				return nil, err
			}
			return &GlobalTransaction{
				ID:     uuid.UUID(id),
				Origin: origin,
			}, nil
		},
	})
}
