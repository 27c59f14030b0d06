// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting

import (
	"github.com/pborman/uuid"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// Request - envelope of a command sent to another member
//
// the id lets the receiver drop a request delivered twice
type Request struct {
	ID      uuid.UUID
	Command interface{}
}

// MarshalTypeID - wire type
func (r *Request) MarshalTypeID() marshal.TypeID { return marshal.TypeRequest }

// SuccessfulResponse - the value returned by the command
type SuccessfulResponse struct {
	Value interface{}
}

// MarshalTypeID - wire type
func (r *SuccessfulResponse) MarshalTypeID() marshal.TypeID {
	return marshal.TypeSuccessfulResponse
}

// ExceptionResponse - the command failed
type ExceptionResponse struct {
	Class   fault.Class
	Message string
}

// MarshalTypeID - wire type
func (r *ExceptionResponse) MarshalTypeID() marshal.TypeID {
	return marshal.TypeExceptionResponse
}

// Err - the failure as a local error of the same class
func (r *ExceptionResponse) Err(origin string) error {
	return fault.NewRemoteError(origin, r.Class, r.Message)
}

// UnsuccessfulResponse - the request was ignored, e.g. the cache is
// not running on the receiver
type UnsuccessfulResponse struct {
	Reason string
}

// MarshalTypeID - wire type
func (r *UnsuccessfulResponse) MarshalTypeID() marshal.TypeID {
	return marshal.TypeUnsuccessfulResponse
}

// RegisterExternalizers - add the envelope encodings
func RegisterExternalizers(r *marshal.Registry) {

	r.Register(marshal.TypeRequest, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			request := v.(*Request)
			e.WriteBytes(request.ID)
			return e.WriteObject(request.Command)
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			id, err := d.ReadBytes()
			if nil != err {
				return nil, err
			}
			if 16 != len(id) {
				return nil, fault.ErrMalformedStream
			}
			cmd, err := d.ReadObject()
			if nil != err {
				return nil, err
			}
			return &Request{
				ID:      uuid.UUID(id),
				Command: cmd,
			}, nil
		},
	})

	r.Register(marshal.TypeSuccessfulResponse, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			return e.WriteObject(v.(*SuccessfulResponse).Value)
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			value, err := d.ReadObject()
			if nil != err {
				return nil, err
			}
			return &SuccessfulResponse{Value: value}, nil
		},
	})

	r.Register(marshal.TypeExceptionResponse, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			response := v.(*ExceptionResponse)
			if err := e.WriteByte(byte(response.Class)); nil != err {
				return err
			}
			e.WriteString(response.Message)
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			class, err := d.ReadByte()
			if nil != err {
				return nil, err
			}
			message, err := d.ReadString()
			if nil != err {
				return nil, err
			}
			return &ExceptionResponse{
				Class:   fault.Class(class),
				Message: message,
			}, nil
		},
	})

	r.Register(marshal.TypeUnsuccessfulResponse, marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			e.WriteString(v.(*UnsuccessfulResponse).Reason)
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			reason, err := d.ReadString()
			if nil != err {
				return nil, err
			}
			return &UnsuccessfulResponse{Reason: reason}, nil
		},
	})
}
