// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands

import (
	"context"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/transaction"
)

// ID - command discriminant, also the wire type id
type ID byte

// the commands - values are part of the wire format
const (
	PutID          ID = ID(marshal.FirstCommand) + iota // 32
	RemoveID                                            // 33
	ReplaceID                                           // 34
	PutMapID                                            // 35
	ClearID                                             // 36
	ApplyDeltaID                                        // 37
	GetID                                               // 38
	EvictID                                             // 39
	SingleRPCID                                         // 40
	MultipleRPCID                                       // 41
	PrepareID                                           // 42
	CommitID                                            // 43
	RollbackID                                          // 44
	ClusteredGetID                                      // 45
)

// ReplicableCommand - an operation that can be performed here or on
// another member
type ReplicableCommand interface {
	marshal.Marshallable
	CommandID() ID
	Parameters() []interface{}
	SetParameters(id ID, parameters []interface{}) error
	Perform(ctx context.Context, ic *invocation.Context) (interface{}, error)
	initialise(c *Components)
}

// VisitableCommand - a command run through the interceptor chain
type VisitableCommand interface {
	ReplicableCommand
	Accept(ctx context.Context, ic *invocation.Context, v Visitor) (interface{}, error)
}

// WriteCommand - a visitable command that modifies the cache
type WriteCommand interface {
	VisitableCommand

	// keys written, nil means every key
	AffectedKeys() []interface{}

	// false if a condition prevented the write, such a command is
	// not replicated
	Successful() bool

	CommandFlags() invocation.Flag

	// apply to the data container, returns the store modifications
	apply(c *Components, now int64, originLocal bool, txID string) []storage.Modification
}

// TransactionBoundaryCommand - prepare, commit or rollback of a
// transaction started elsewhere
type TransactionBoundaryCommand interface {
	ReplicableCommand
	GlobalTransaction() *transaction.GlobalTransaction
}

// CacheRPCCommand - a command addressed to a named cache
type CacheRPCCommand interface {
	ReplicableCommand
	CacheName() string
}

// Visitor - per command handler, implemented by interceptors
type Visitor interface {
	VisitPut(ctx context.Context, ic *invocation.Context, cmd *Put) (interface{}, error)
	VisitRemove(ctx context.Context, ic *invocation.Context, cmd *Remove) (interface{}, error)
	VisitReplace(ctx context.Context, ic *invocation.Context, cmd *Replace) (interface{}, error)
	VisitPutMap(ctx context.Context, ic *invocation.Context, cmd *PutMap) (interface{}, error)
	VisitClear(ctx context.Context, ic *invocation.Context, cmd *Clear) (interface{}, error)
	VisitApplyDelta(ctx context.Context, ic *invocation.Context, cmd *ApplyDelta) (interface{}, error)
	VisitGet(ctx context.Context, ic *invocation.Context, cmd *Get) (interface{}, error)
	VisitEvict(ctx context.Context, ic *invocation.Context, cmd *Evict) (interface{}, error)
}

// Invoker - entry point of an interceptor chain
type Invoker interface {
	Invoke(ctx context.Context, ic *invocation.Context, cmd VisitableCommand) (interface{}, error)
}

// String - command name for logging
func (id ID) String() string {
	switch id {
	case PutID:
		return "Put"
	case RemoveID:
		return "Remove"
	case ReplaceID:
		return "Replace"
	case PutMapID:
		return "PutMap"
	case ClearID:
		return "Clear"
	case ApplyDeltaID:
		return "ApplyDelta"
	case GetID:
		return "Get"
	case EvictID:
		return "Evict"
	case SingleRPCID:
		return "SingleRPC"
	case MultipleRPCID:
		return "MultipleRPC"
	case PrepareID:
		return "Prepare"
	case CommitID:
		return "Commit"
	case RollbackID:
		return "Rollback"
	case ClusteredGetID:
		return "ClusteredGet"
	default:
		return "*unknown*"
	}
}

// New - blank command for an id, used when decoding
func New(id ID) (ReplicableCommand, error) {
	switch id {
	case PutID:
		return &Put{}, nil
	case RemoveID:
		return &Remove{}, nil
	case ReplaceID:
		return &Replace{}, nil
	case PutMapID:
		return &PutMap{}, nil
	case ClearID:
		return &Clear{}, nil
	case ApplyDeltaID:
		return &ApplyDelta{}, nil
	case GetID:
		return &Get{}, nil
	case EvictID:
		return &Evict{}, nil
	case SingleRPCID:
		return &SingleRPC{}, nil
	case MultipleRPCID:
		return &MultipleRPC{}, nil
	case PrepareID:
		return &Prepare{}, nil
	case CommitID:
		return &Commit{}, nil
	case RollbackID:
		return &Rollback{}, nil
	case ClusteredGetID:
		return &ClusteredGet{}, nil
	default:
		return nil, fault.ErrUnrecognisedType
	}
}

// AllIDs - every command id in wire order
func AllIDs() []ID {
	ids := make([]ID, 0, ClusteredGetID-PutID+1)
	for id := PutID; id <= ClusteredGetID; id += 1 {
		ids = append(ids, id)
	}
	return ids
}
