// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"context"
	"encoding/binary"
	"reflect"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/marshal"
)

// SingleRPC - one command addressed to a cache on another member
type SingleRPC struct {
	base
	Cache   string
	Command ReplicableCommand
}

// MarshalTypeID - wire type
func (cmd *SingleRPC) MarshalTypeID() marshal.TypeID { return marshal.TypeID(SingleRPCID) }

// CommandID - discriminant
func (cmd *SingleRPC) CommandID() ID { return SingleRPCID }

// CacheName - routing
func (cmd *SingleRPC) CacheName() string { return cmd.Cache }

// Perform - route the command, errors are returned as they are
func (cmd *SingleRPC) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if nil == cmd.Command {
		return nil, fault.ErrInvalidCommand
	}
	return replay(ctx, c, ic, cmd.Command)
}

// MultipleRPC - ordered commands addressed to a cache on another member
type MultipleRPC struct {
	base
	Cache    string
	Commands []ReplicableCommand
}

// MarshalTypeID - wire type
func (cmd *MultipleRPC) MarshalTypeID() marshal.TypeID { return marshal.TypeID(MultipleRPCID) }

// CommandID - discriminant
func (cmd *MultipleRPC) CommandID() ID { return MultipleRPCID }

// CacheName - routing
func (cmd *MultipleRPC) CacheName() string { return cmd.Cache }

// Perform - replay every command in order, stopping at the first
// error; commands already replayed stay applied
//
// the results of the replayed commands are returned in order
func (cmd *MultipleRPC) Perform(ctx context.Context, ic *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}

	results := make([]interface{}, 0, len(cmd.Commands))
	for i, sub := range cmd.Commands {
		result, err := replay(ctx, c, ic, sub)
		if nil != err {
			c.Log.Warnf("cache: %s  replay stopped at: %d/%d  command: %s  error: %s", cmd.Cache, i, len(cmd.Commands), sub.CommandID(), err)
			return nil, &fault.ReplayFailure{
				Index:   i,
				Applied: i,
				Err:     err,
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Equal - same cache and element-wise equal commands
func (cmd *MultipleRPC) Equal(other *MultipleRPC) bool {
	if nil == cmd || nil == other {
		return cmd == other
	}
	if cmd.Cache != other.Cache || len(cmd.Commands) != len(other.Commands) {
		return false
	}
	for i, sub := range cmd.Commands {
		if !Equal(sub, other.Commands[i]) {
			return false
		}
	}
	return true
}

// Hash - consistent with Equal
func (cmd *MultipleRPC) Hash() uint64 {
	h := sha3.New256()
	_, _ = h.Write([]byte(cmd.Cache))
	m := cmd.marshaller()
	for _, sub := range cmd.Commands {
		_, _ = h.Write([]byte{byte(sub.CommandID())})
		if nil == m {
			continue
		}
		e := m.NewEncoder()
		if nil != e.WriteObject(sub.Parameters()) {
			continue
		}
		_, _ = h.Write(e.Bytes())
	}
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// marshaller of the batch, or of the first initialised sub-command
func (cmd *MultipleRPC) marshaller() *marshal.Marshaller {
	if nil != cmd.c && nil != cmd.c.Marshaller {
		return cmd.c.Marshaller
	}
	for _, sub := range cmd.Commands {
		b, ok := sub.(interface{ components() (*Components, error) })
		if !ok {
			continue
		}
		c, err := b.components()
		if nil == err && nil != c.Marshaller {
			return c.Marshaller
		}
	}
	return nil
}

// Equal - same command with equal parameters
func Equal(a ReplicableCommand, b ReplicableCommand) bool {
	if nil == a || nil == b {
		return a == b
	}
	return a.CommandID() == b.CommandID() && equalParameters(a.Parameters(), b.Parameters())
}

// nested commands compare by Equal, everything else deeply
func equalParameters(a []interface{}, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch x := a[i].(type) {
		case ReplicableCommand:
			y, ok := b[i].(ReplicableCommand)
			if !ok || !Equal(x, y) {
				return false
			}
		case []interface{}:
			y, ok := b[i].([]interface{})
			if !ok || !equalParameters(x, y) {
				return false
			}
		default:
			if !reflect.DeepEqual(a[i], b[i]) {
				return false
			}
		}
	}
	return true
}

// a transaction command performs with no invocation context, a data
// command runs through the chain with a fresh remote context
func replay(ctx context.Context, c *Components, ic *invocation.Context, cmd ReplicableCommand) (interface{}, error) {
	origin := ""
	if nil != ic {
		origin = ic.Origin()
	}

	switch sub := cmd.(type) {
	case TransactionBoundaryCommand:
		return sub.Perform(ctx, nil)
	case VisitableCommand:
		if nil == c.Chain {
			return nil, fault.ErrNotInitialised
		}
		subCtx, subIC := c.Contexts.CreateRemoteInvocationContext(ctx, origin)
		return c.Chain.Invoke(subCtx, subIC, sub)
	default:
		return sub.Perform(ctx, ic)
	}
}
