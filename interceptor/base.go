// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/invocation"
)

// Interceptor - one stage of a chain
type Interceptor interface {
	commands.Visitor
	SetNext(next commands.Visitor)
}

// HandleFunc - handler used for every command a stage does not
// visit individually
type HandleFunc func(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error)

// Base - pass through stage, embedded by every interceptor
type Base struct {
	next          commands.Visitor
	handleDefault HandleFunc
}

// SetNext - link to the following stage
func (b *Base) SetNext(next commands.Visitor) {
	b.next = next
}

// InvokeNext - continue down the chain
func (b *Base) InvokeNext(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	return cmd.Accept(ctx, ic, b.next)
}

func (b *Base) visit(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	if nil != b.handleDefault {
		return b.handleDefault(ctx, ic, cmd)
	}
	return b.InvokeNext(ctx, ic, cmd)
}

// VisitPut - default handling
func (b *Base) VisitPut(ctx context.Context, ic *invocation.Context, cmd *commands.Put) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitRemove - default handling
func (b *Base) VisitRemove(ctx context.Context, ic *invocation.Context, cmd *commands.Remove) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitReplace - default handling
func (b *Base) VisitReplace(ctx context.Context, ic *invocation.Context, cmd *commands.Replace) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitPutMap - default handling
func (b *Base) VisitPutMap(ctx context.Context, ic *invocation.Context, cmd *commands.PutMap) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitClear - default handling
func (b *Base) VisitClear(ctx context.Context, ic *invocation.Context, cmd *commands.Clear) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitApplyDelta - default handling
func (b *Base) VisitApplyDelta(ctx context.Context, ic *invocation.Context, cmd *commands.ApplyDelta) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitGet - default handling
func (b *Base) VisitGet(ctx context.Context, ic *invocation.Context, cmd *commands.Get) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// VisitEvict - default handling
func (b *Base) VisitEvict(ctx context.Context, ic *invocation.Context, cmd *commands.Evict) (interface{}, error) {
	return b.visit(ctx, ic, cmd)
}

// Chain - linked stages, the entry point of a cache
type Chain struct {
	stages []Interceptor
}

// NewChain - link the stages in order, the last one must not call
// InvokeNext
func NewChain(stages ...Interceptor) *Chain {
	for i := 0; i < len(stages)-1; i += 1 {
		stages[i].SetNext(stages[i+1])
	}
	return &Chain{
		stages: stages,
	}
}

// Invoke - run cmd through every stage
func (c *Chain) Invoke(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	return cmd.Accept(ctx, ic, c.stages[0])
}

// Stages - the stages in order
func (c *Chain) Stages() []Interceptor {
	return c.stages
}
