// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/transaction"
)

// ResourceFactory - the participant that prepares and commits the
// workspace of one local transaction
type ResourceFactory func(tx *transaction.Transaction, w *transaction.Workspace) transaction.Resource

// Tx - binds local transactions to their workspace
//
// the first write of a transaction creates the workspace and enlists
// a resource for it; reads use the workspace if there is one
type Tx struct {
	Base
	Enlisted counter.Counter

	log         *logger.L
	table       *transaction.Table
	newResource ResourceFactory
}

// NewTx - create the transaction stage
func NewTx(log *logger.L, table *transaction.Table, newResource ResourceFactory) *Tx {
	i := &Tx{
		log:         log,
		table:       table,
		newResource: newResource,
	}
	i.handleDefault = i.write
	return i
}

// VisitGet - read through the workspace without creating one
func (i *Tx) VisitGet(ctx context.Context, ic *invocation.Context, cmd *commands.Get) (interface{}, error) {
	if isLocalTx(ic) && nil == ic.Workspace() {
		if w, ok := i.table.FindLocal(ic.Transaction()); ok {
			ic.SetWorkspace(w)
		}
	}
	return i.InvokeNext(ctx, ic, cmd)
}

// VisitEvict - eviction is never transactional
func (i *Tx) VisitEvict(ctx context.Context, ic *invocation.Context, cmd *commands.Evict) (interface{}, error) {
	return i.InvokeNext(ctx, ic, cmd)
}

func (i *Tx) write(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	if !isLocalTx(ic) || nil != ic.Workspace() {
		return i.InvokeNext(ctx, ic, cmd)
	}

	tx := ic.Transaction()
	if nil == tx {
		return nil, fault.ErrTransactionNotActive
	}
	w, created := i.table.LocalWorkspace(tx)
	if created {
		if err := tx.Enlist(i.newResource(tx, w)); nil != err {
			i.table.RemoveLocal(tx)
			return nil, err
		}
		i.Enlisted.Increment()
		i.log.Debugf("tx: %s  enlisted as: %s", tx.ID(), w.GlobalTransaction)
	}
	ic.SetWorkspace(w)
	return i.InvokeNext(ctx, ic, cmd)
}

func isLocalTx(ic *invocation.Context) bool {
	return nil != ic && ic.IsInTxScope() && ic.IsOriginLocal()
}
