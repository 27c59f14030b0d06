// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// RegisterExternalizers - add every command encoding
func RegisterExternalizers(r *marshal.Registry) {
	for _, id := range AllIDs() {
		switch id {
		case SingleRPCID:
			r.Register(marshal.TypeID(id), marshal.Externalizer{
				Write: writeSingleRPC,
				Read:  readSingleRPC,
			})
		case MultipleRPCID:
			r.Register(marshal.TypeID(id), marshal.Externalizer{
				Write: writeMultipleRPC,
				Read:  readMultipleRPC,
			})
		default:
			r.Register(marshal.TypeID(id), genericExternalizer(id))
		}
	}
}

// count then each parameter as a full object
func genericExternalizer(id ID) marshal.Externalizer {
	return marshal.Externalizer{
		Write: func(e *marshal.Encoder, v interface{}) error {
			parameters := v.(ReplicableCommand).Parameters()
			e.WriteUnsigned(uint64(len(parameters)))
			for _, p := range parameters {
				if err := e.WriteObject(p); nil != err {
					return err
				}
			}
			return nil
		},
		Read: func(d *marshal.Decoder) (interface{}, error) {
			parameters, err := d.ReadList()
			if nil != err {
				return nil, err
			}
			cmd, err := New(id)
			if nil != err {
				return nil, err
			}
			if err := cmd.SetParameters(id, parameters); nil != err {
				return nil, err
			}
			return cmd, nil
		},
	}
}

func writeSingleRPC(e *marshal.Encoder, v interface{}) error {
	cmd := v.(*SingleRPC)
	e.WriteString(cmd.Cache)
	return e.WriteObject(cmd.Command)
}

func readSingleRPC(d *marshal.Decoder) (interface{}, error) {
	cache, err := d.ReadString()
	if nil != err {
		return nil, err
	}
	obj, err := d.ReadObject()
	if nil != err {
		return nil, err
	}
	sub, ok := obj.(ReplicableCommand)
	if !ok {
		return nil, fault.ErrMalformedStream
	}
	return &SingleRPC{
		Cache:   cache,
		Command: sub,
	}, nil
}

func writeMultipleRPC(e *marshal.Encoder, v interface{}) error {
	cmd := v.(*MultipleRPC)
	e.WriteString(cmd.Cache)
	e.WriteUnsigned(uint64(len(cmd.Commands)))
	for _, sub := range cmd.Commands {
		if err := e.WriteObject(sub); nil != err {
			return err
		}
	}
	return nil
}

func readMultipleRPC(d *marshal.Decoder) (interface{}, error) {
	cache, err := d.ReadString()
	if nil != err {
		return nil, err
	}
	n, err := d.ReadCount()
	if nil != err {
		return nil, err
	}
	subs := make([]ReplicableCommand, n)
	for i := 0; i < n; i += 1 {
		obj, err := d.ReadObject()
		if nil != err {
			return nil, err
		}
		sub, ok := obj.(ReplicableCommand)
		if !ok {
			return nil, fault.ErrMalformedStream
		}
		subs[i] = sub
	}
	return &MultipleRPC{
		Cache:    cache,
		Commands: subs,
	}, nil
}
