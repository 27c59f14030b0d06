// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/interceptor"
	"github.com/bitmark-inc/gridd/transaction"
)

func TestTxEnlistsOnce(t *testing.T) {
	f := newFixture(nil)

	resources := []*applyResource{}
	stage := interceptor.NewTx(f.log, f.components.Table, func(tx *transaction.Transaction, w *transaction.Workspace) transaction.Resource {
		r := &applyResource{c: f.components, w: w}
		resources = append(resources, r)
		return r
	})
	chain := f.chain(stage, interceptor.NewCall())

	txCtx, _, err := f.manager.Begin(context.Background())
	assert.Nil(t, err, "begin error")

	ctx, ic := f.components.Contexts.CreateInvocationContext(txCtx)
	_, err = chain.Invoke(ctx, ic, f.factory.NewPut("a", "1", -1, -1, 0))
	assert.Nil(t, err, "first put error")

	ctx, ic = f.components.Contexts.CreateInvocationContext(txCtx)
	_, err = chain.Invoke(ctx, ic, f.factory.NewPut("b", "2", -1, -1, 0))
	assert.Nil(t, err, "second put error")

	assert.Equal(t, uint64(1), stage.Enlisted.Uint64(), "enlisted")
	assert.Equal(t, 1, len(resources), "resources")

	// visible inside the transaction only
	ctx, ic = f.components.Contexts.CreateInvocationContext(txCtx)
	value, err := chain.Invoke(ctx, ic, f.factory.NewGet("a", 0))
	assert.Nil(t, err, "tx get error")
	assert.Equal(t, "1", value, "tx value")

	plainCtx, plain := f.local()
	value, _ = chain.Invoke(plainCtx, plain, f.factory.NewGet("a", 0))
	assert.Nil(t, value, "outside the transaction")

	err = f.manager.Commit(txCtx)
	assert.Nil(t, err, "commit error")
	assert.Equal(t, 1, resources[0].prepared, "prepared")
	assert.Equal(t, 1, resources[0].commits, "commits")

	value, _ = chain.Invoke(plainCtx, plain, f.factory.NewGet("b", 0))
	assert.Equal(t, "2", value, "after commit")
}

func TestTxReadDoesNotEnlist(t *testing.T) {
	f := newFixture(nil)

	stage := interceptor.NewTx(f.log, f.components.Table, func(tx *transaction.Transaction, w *transaction.Workspace) transaction.Resource {
		t.Fatal("resource created for a read")
		return nil
	})
	chain := f.chain(stage, interceptor.NewCall())

	txCtx, _, _ := f.manager.Begin(context.Background())
	ctx, ic := f.components.Contexts.CreateInvocationContext(txCtx)
	value, err := chain.Invoke(ctx, ic, f.factory.NewGet("a", 0))
	assert.Nil(t, err, "get error")
	assert.Nil(t, value, "value")

	local, remote := f.components.Table.Counts()
	assert.Equal(t, 0, local, "local workspaces")
	assert.Equal(t, 0, remote, "remote workspaces")
}
