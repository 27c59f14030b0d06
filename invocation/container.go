// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package invocation

import (
	"context"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/transaction"
)

type associationKey struct{}

// Container - creates invocation contexts and associates them with a
// call chain
//
// the association is a value in the returned context.Context, so
// goroutines only see the context they were handed
type Container struct {
	tm transaction.Manager
}

// NewContainer - tm may be nil for a non-transactional cache
func NewContainer(tm transaction.Manager) *Container {
	return &Container{
		tm: tm,
	}
}

// CreateInvocationContext - local context, transactional if a
// transaction is running on ctx
func (c *Container) CreateInvocationContext(ctx context.Context) (context.Context, *Context) {
	if nil != c.tm {
		if tx := c.tm.GetTransaction(ctx); nil != tx && (tx.IsActive() || transaction.MarkedRollback == tx.Status()) {
			return c.CreateTxInvocationContext(ctx)
		}
	}
	return c.CreateNonTxInvocationContext(ctx)
}

// CreateNonTxInvocationContext - local, non-transactional
func (c *Container) CreateNonTxInvocationContext(ctx context.Context) (context.Context, *Context) {
	ic := &Context{
		local: true,
	}
	return associate(ctx, ic), ic
}

// CreateTxInvocationContext - local, bound to the running transaction
func (c *Container) CreateTxInvocationContext(ctx context.Context) (context.Context, *Context) {
	ic := &Context{
		local:         true,
		transactional: true,
	}
	if nil != c.tm {
		ic.tx = c.tm.GetTransaction(ctx)
	}
	return associate(ctx, ic), ic
}

// CreateRemoteInvocationContext - replaying a command from origin
func (c *Container) CreateRemoteInvocationContext(ctx context.Context, origin string) (context.Context, *Context) {
	ic := &Context{
		origin: origin,
	}
	return associate(ctx, ic), ic
}

// CreateRemoteTxInvocationContext - replaying part of a transaction
// started on origin
func (c *Container) CreateRemoteTxInvocationContext(ctx context.Context, origin string, gtx *transaction.GlobalTransaction) (context.Context, *Context) {
	ic := &Context{
		origin:        origin,
		transactional: true,
		gtx:           gtx,
	}
	return associate(ctx, ic), ic
}

// Get - the associated context
func (c *Container) Get(ctx context.Context) (*Context, error) {
	ic, ok := ctx.Value(associationKey{}).(*Context)
	if !ok || nil == ic {
		return nil, fault.ErrNoInvocationContext
	}
	return ic, nil
}

// Suspend - a context with no association, and the suspended token
func (c *Container) Suspend(ctx context.Context) (context.Context, *Context) {
	ic, err := c.Get(ctx)
	if nil != err {
		return ctx, nil
	}
	return associate(ctx, nil), ic
}

// Resume - associate a suspended token again
func (c *Container) Resume(ctx context.Context, token *Context) context.Context {
	return associate(ctx, token)
}

func associate(ctx context.Context, ic *Context) context.Context {
	return context.WithValue(ctx, associationKey{}, ic)
}
