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
	"github.com/bitmark-inc/gridd/transaction"
)

// Prepare - the modifications of a transaction, applied at once when
// OnePhase is set
type Prepare struct {
	base
	GTX           *transaction.GlobalTransaction
	Modifications []WriteCommand
	OnePhase      bool
}

// MarshalTypeID - wire type
func (cmd *Prepare) MarshalTypeID() marshal.TypeID { return marshal.TypeID(PrepareID) }

// CommandID - discriminant
func (cmd *Prepare) CommandID() ID { return PrepareID }

// GlobalTransaction - identity
func (cmd *Prepare) GlobalTransaction() *transaction.GlobalTransaction { return cmd.GTX }

// Perform - replay the modifications into a remote workspace, the
// invocation context argument is ignored
func (cmd *Prepare) Perform(ctx context.Context, _ *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if nil == cmd.GTX {
		return nil, fault.ErrInvalidCommand
	}

	w, _ := c.Table.RemoteWorkspace(cmd.GTX, true)
	txCtx, ic := c.Contexts.CreateRemoteTxInvocationContext(ctx, cmd.GTX.Origin, cmd.GTX)
	ic.SetWorkspace(w)

	for _, m := range cmd.Modifications {
		if _, err := c.Chain.Invoke(txCtx, ic, m); nil != err {
			c.Table.RemoveRemote(cmd.GTX)
			return nil, err
		}
	}

	if !cmd.OnePhase {
		w.Lock()
		w.Prepared = true
		w.Unlock()
		return nil, nil
	}

	err = ApplyWorkspace(ctx, c, w, false)
	c.Table.RemoveRemote(cmd.GTX)
	if nil != c.Notifier {
		c.Notifier.TransactionCompletedEvent(cmd.GTX.Key(), nil == err, false)
	}
	return nil, err
}

// Commit - apply a prepared remote workspace
type Commit struct {
	base
	GTX *transaction.GlobalTransaction
}

// MarshalTypeID - wire type
func (cmd *Commit) MarshalTypeID() marshal.TypeID { return marshal.TypeID(CommitID) }

// CommandID - discriminant
func (cmd *Commit) CommandID() ID { return CommitID }

// GlobalTransaction - identity
func (cmd *Commit) GlobalTransaction() *transaction.GlobalTransaction { return cmd.GTX }

// Perform - a member that never saw the prepare has nothing to do
func (cmd *Commit) Perform(ctx context.Context, _ *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if nil == cmd.GTX {
		return nil, fault.ErrInvalidCommand
	}

	w, ok := c.Table.RemoteWorkspace(cmd.GTX, false)
	if !ok {
		return nil, nil
	}
	err = ApplyWorkspace(ctx, c, w, false)
	c.Table.RemoveRemote(cmd.GTX)
	if nil != c.Notifier {
		c.Notifier.TransactionCompletedEvent(cmd.GTX.Key(), nil == err, false)
	}
	return nil, err
}

// Rollback - discard a remote workspace
type Rollback struct {
	base
	GTX *transaction.GlobalTransaction
}

// MarshalTypeID - wire type
func (cmd *Rollback) MarshalTypeID() marshal.TypeID { return marshal.TypeID(RollbackID) }

// CommandID - discriminant
func (cmd *Rollback) CommandID() ID { return RollbackID }

// GlobalTransaction - identity
func (cmd *Rollback) GlobalTransaction() *transaction.GlobalTransaction { return cmd.GTX }

// Perform - forget the workspace
func (cmd *Rollback) Perform(ctx context.Context, _ *invocation.Context) (interface{}, error) {
	c, err := cmd.components()
	if nil != err {
		return nil, err
	}
	if nil == cmd.GTX {
		return nil, fault.ErrInvalidCommand
	}

	if _, ok := c.Table.RemoteWorkspace(cmd.GTX, false); ok {
		c.Table.RemoveRemote(cmd.GTX)
		if nil != c.Notifier {
			c.Notifier.TransactionCompletedEvent(cmd.GTX.Key(), false, false)
		}
	}
	return nil, nil
}
