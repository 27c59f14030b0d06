// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"context"

	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/marshal"
)

// Get - read a value
type Get struct {
	base
	Key   interface{}
	Flags invocation.Flag
}

// MarshalTypeID - wire type
func (cmd *Get) MarshalTypeID() marshal.TypeID { return marshal.TypeID(GetID) }

// CommandID - discriminant
func (cmd *Get) CommandID() ID { return GetID }

// Accept - visitor dispatch
func (cmd *Get) Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error) {
	return v.VisitGet(ctx, ic, cmd)
}

// Perform - the value or nil
func (cmd *Get) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}
	return payloadOf(c.Lookup(ic, cmd.Key, c.Time())), nil
}

// ClusteredGet - fetch the complete entry from an owner
type ClusteredGet struct {
	base
	Cache string
	Key   interface{}
}

// MarshalTypeID - wire type
func (cmd *ClusteredGet) MarshalTypeID() marshal.TypeID { return marshal.TypeID(ClusteredGetID) }

// CommandID - discriminant
func (cmd *ClusteredGet) CommandID() ID { return ClusteredGetID }

// CacheName - routing
func (cmd *ClusteredGet) CacheName() string { return cmd.Cache }

// Perform - the *entry.Entry or nil, loading from the store if needed
func (cmd *ClusteredGet) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if err := container.ValidKey(cmd.Key); nil != err {
		return nil, err
	}

	now := c.Time()
	e, err := c.LoadEntry(cmd.Key, now, func() (*entry.Entry, error) {
		if nil == c.Store {
			return nil, nil
		}
		return c.Store.Load(cmd.Key, now)
	})
	if nil != err || nil == e {
		return nil, err
	}
	return e, nil
}
