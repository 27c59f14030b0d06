// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/notifications"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/storage/mocks"
	"github.com/bitmark-inc/gridd/transaction"
)

func TestPutAndGet(t *testing.T) {
	f := newFixture(t)
	ctx, ic := f.local()

	previous, err := f.factory.NewPut("k", "v1", -1, -1, 0).Perform(ctx, ic)
	assert.Nil(t, err, "put error")
	assert.Nil(t, previous, "previous of new key")

	previous, err = f.factory.NewPut("k", "v2", -1, -1, 0).Perform(ctx, ic)
	assert.Nil(t, err, "put error")
	assert.Equal(t, "v1", previous, "previous value")

	value, err := f.factory.NewGet("k", 0).Perform(ctx, ic)
	assert.Nil(t, err, "get error")
	assert.Equal(t, "v2", value, "value")

	_, err = f.factory.NewPut([]byte("k"), "v", -1, -1, 0).Perform(ctx, ic)
	assert.Equal(t, fault.ErrInvalidKey, err, "slice key")
}

func TestExpiryOfPut(t *testing.T) {
	f := newFixture(t)
	ctx, ic := f.local()

	_, _ = f.factory.NewPut("k", "v", 60000, -1, 0).Perform(ctx, ic)

	f.now = 61000
	value, _ := f.factory.NewGet("k", 0).Perform(ctx, ic)
	assert.Equal(t, "v", value, "at lifespan boundary")

	f.now = 61001
	value, _ = f.factory.NewGet("k", 0).Perform(ctx, ic)
	assert.Nil(t, value, "after lifespan")
}

func TestConditionalCommands(t *testing.T) {
	f := newFixture(t)
	ctx, ic := f.local()

	put := f.factory.NewPutIfAbsent("k", "first", -1, -1, 0)
	result, _ := put.Perform(ctx, ic)
	assert.Nil(t, result, "absent key")
	assert.True(t, put.Successful(), "first put if absent")

	put = f.factory.NewPutIfAbsent("k", "second", -1, -1, 0)
	result, _ = put.Perform(ctx, ic)
	assert.Equal(t, "first", result, "existing value")
	assert.False(t, put.Successful(), "second put if absent")

	replace := f.factory.NewConditionalReplace("k", "wrong", "x", -1, -1, 0)
	result, _ = replace.Perform(ctx, ic)
	assert.Equal(t, false, result, "mismatched replace")
	assert.False(t, replace.Successful(), "mismatched replace successful")

	replace = f.factory.NewConditionalReplace("k", "first", "third", -1, -1, 0)
	result, _ = replace.Perform(ctx, ic)
	assert.Equal(t, true, result, "matching replace")

	replace = f.factory.NewReplace("missing", "x", -1, -1, 0)
	result, _ = replace.Perform(ctx, ic)
	assert.Nil(t, result, "replace of absent key")
	assert.False(t, replace.Successful(), "replace of absent key successful")
	assert.False(t, f.components.Container.ContainsKey("missing", f.now), "replace created key")

	remove := f.factory.NewConditionalRemove("k", "first", 0)
	result, _ = remove.Perform(ctx, ic)
	assert.Equal(t, false, result, "mismatched remove")

	remove = f.factory.NewConditionalRemove("k", "third", 0)
	result, _ = remove.Perform(ctx, ic)
	assert.Equal(t, true, result, "matching remove")
	assert.False(t, f.components.Container.ContainsKey("k", f.now), "key after remove")
}

func TestPutMapClearEvict(t *testing.T) {
	f := newFixture(t)
	ctx, ic := f.local()

	_, err := f.factory.NewPutMap([]interface{}{"a", "b", "c"}, []interface{}{1, 2, 3}, -1, -1, 0).Perform(ctx, ic)
	assert.Nil(t, err, "put map error")
	assert.Equal(t, 3, f.components.Container.Size(f.now), "size")

	_, err = f.factory.NewPutMap([]interface{}{"a"}, nil, -1, -1, 0).Perform(ctx, ic)
	assert.Equal(t, fault.ErrInvalidCommand, err, "unpaired keys")

	_, _ = f.factory.NewEvict("a").Perform(ctx, ic)
	assert.Equal(t, 2, f.components.Container.Size(f.now), "size after evict")

	_, _ = f.factory.NewClear(0).Perform(ctx, ic)
	assert.Equal(t, 0, f.components.Container.Size(f.now), "size after clear")
}

func TestApplyDelta(t *testing.T) {
	f := newFixture(t)
	ctx, ic := f.local()

	m := atomicmap.New()
	_, _ = m.Put("a", "1")
	_, _ = m.Put("b", "2")
	_, err := f.factory.NewApplyDelta("map", m.Delta(), 0).Perform(ctx, ic)
	assert.Nil(t, err, "first delta")

	m.Remove("a")
	_, err = f.factory.NewApplyDelta("map", m.Delta(), 0).Perform(ctx, ic)
	assert.Nil(t, err, "second delta")

	stored := f.components.Container.Get("map", f.now).Payload.(*atomicmap.Map)
	assert.Equal(t, map[interface{}]interface{}{"b": "2"}, stored.ToMap(), "stored map")
}

func TestStoreModifications(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	f.components.Store = mocks.NewMockStore(ctl)

	ctx, ic := f.local()
	_, _ = f.factory.NewPut("k", "v", -1, -1, 0).Perform(ctx, ic)
	_, _ = f.factory.NewRemove("x", 0).Perform(ctx, ic)
	_, _ = f.factory.NewPut("skip", "v", -1, -1, invocation.SkipCacheStore).Perform(ctx, ic)

	mods := ic.TakeStoreModifications()
	assert.Len(t, mods, 2, "store modifications")
	assert.Equal(t, storage.OpStore, mods[0].Operation, "first")
	assert.Equal(t, "k", mods[0].Entry.Key, "stored key")
	assert.Equal(t, storage.RemoveOf("x"), mods[1], "second")
}

func TestNotOwner(t *testing.T) {
	f := newFixture(t)
	f.components.Owns = func(key interface{}) bool {
		return "mine" == key
	}
	ctx, ic := f.local()

	_, _ = f.factory.NewPutMap([]interface{}{"mine", "theirs"}, []interface{}{1, 2}, -1, -1, 0).Perform(ctx, ic)
	assert.Equal(t, []interface{}{"mine"}, f.components.Container.Keys(f.now), "only owned keys kept")

	// a value fetched from the owners is visible to the operation
	ic.PutLookedUp("theirs", entry.Create("theirs", "remote", f.now, -1, -1))
	previous, _ := f.factory.NewPut("theirs", "new", -1, -1, 0).Perform(ctx, ic)
	assert.Equal(t, "remote", previous, "previous from owner")
	assert.False(t, f.components.Container.ContainsKey("theirs", f.now), "non-owned key stored")
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	s := f.components.Notifier.Subscribe(10)
	ctx, ic := f.local()

	_, _ = f.factory.NewPut("k", "v1", -1, -1, 0).Perform(ctx, ic)
	_, _ = f.factory.NewPut("k", "v2", -1, -1, 0).Perform(ctx, ic)
	_, _ = f.factory.NewRemove("k", 0).Perform(ctx, ic)

	assert.Equal(t, notifications.EntryCreated, (<-s.C).Type, "first event")
	modified := <-s.C
	assert.Equal(t, notifications.EntryModified, modified.Type, "second event")
	assert.Equal(t, "v1", modified.Previous, "previous value")
	removed := <-s.C
	assert.Equal(t, notifications.EntryRemoved, removed.Type, "third event")
	assert.True(t, removed.OriginLocal, "local origin")
}

func TestMultipleRPCReplayOrder(t *testing.T) {
	f := newFixture(t)

	subs := []commands.ReplicableCommand{
		f.factory.NewPut("k", "1", -1, -1, 0),
		f.factory.NewPut("k", "2", -1, -1, 0),
		f.factory.NewRemove("k", 0),
		f.factory.NewPut("k", "3", -1, -1, 0),
		f.factory.NewPut("j", "x", -1, -1, 0),
	}
	decoded := f.roundTrip(t, f.factory.NewMultipleRPC(subs))

	ctx, ic := f.remote("10.0.0.1:2200")
	results, err := decoded.Perform(ctx, ic)
	assert.Nil(t, err, "replay error")
	assert.Equal(t, []interface{}{nil, "1", "2", nil, nil}, results, "results in order")

	assert.Equal(t, "3", f.components.Container.Get("k", f.now).Payload, "final value")
	assert.Len(t, f.chain.invoked, 5, "invocations")
	for i, cmd := range f.chain.invoked {
		assert.True(t, commands.Equal(subs[i], cmd), "invocation: %d out of order", i)
		assert.Equal(t, "10.0.0.1:2200", f.chain.origins[i], "origin of: %d", i)
	}
}

func TestMultipleRPCStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)

	decoded := f.roundTrip(t, f.factory.NewMultipleRPC([]commands.ReplicableCommand{
		f.factory.NewPut("a", "1", -1, -1, 0),
		f.factory.NewPutMap([]interface{}{[]interface{}{"not a key"}}, []interface{}{"x"}, -1, -1, 0),
		f.factory.NewPut("c", "3", -1, -1, 0),
	}))

	ctx, ic := f.remote("10.0.0.1:2200")
	_, err := decoded.Perform(ctx, ic)

	assert.True(t, fault.IsErrReplay(err), "not a replay failure: %v", err)
	var failure *fault.ReplayFailure
	assert.True(t, errors.As(err, &failure), "replay failure type")
	assert.Equal(t, 1, failure.Index, "failing index")
	assert.Equal(t, 1, failure.Applied, "applied count")
	assert.Equal(t, fault.ErrInvalidKey, failure.Err, "cause")
	assert.True(t, fault.IsErrInvalid(err), "cause class")

	// the first stays applied, the third never ran
	assert.True(t, f.components.Container.ContainsKey("a", f.now), "applied command rolled back")
	assert.False(t, f.components.Container.ContainsKey("c", f.now), "command after failure ran")
	assert.Len(t, f.chain.invoked, 2, "invocations")
}

func TestSingleRPCErrorUnwrapped(t *testing.T) {
	f := newFixture(t)
	cmd := f.factory.NewSingleRPC(f.factory.NewPutMap([]interface{}{"a"}, []interface{}{}, -1, -1, 0))

	ctx, ic := f.remote("10.0.0.1:2200")
	_, err := cmd.Perform(ctx, ic)
	assert.Equal(t, fault.ErrInvalidCommand, err, "single rpc error")
}

func TestTransactionRemotelyInvisibleUntilCommit(t *testing.T) {
	origin := newFixture(t)
	remote := newFixture(t)
	s := remote.components.Notifier.Subscribe(10)

	gtx := transaction.NewGlobalTransaction("10.0.0.1:2200")
	prepare := origin.factory.NewPrepare(gtx, []commands.WriteCommand{
		origin.factory.NewPut("k", "v", -1, -1, 0),
		origin.factory.NewPutIfAbsent("k", "ignored by origin decision", -1, -1, 0),
		origin.factory.NewRemove("gone", 0),
	}, false)

	_, _ = remote.factory.NewPut("gone", "x", -1, -1, 0).Perform(remote.local())
	<-s.C

	batch := remote.roundTrip(t, remote.factory.NewMultipleRPC([]commands.ReplicableCommand{prepare}))
	ctx, ic := remote.remote(gtx.Origin)
	_, err := batch.Perform(ctx, ic)
	assert.Nil(t, err, "prepare error")

	// replayed inside a remote transaction context
	assert.Len(t, remote.chain.invoked, 3, "modifications replayed")
	for i, inTx := range remote.chain.inTx {
		assert.True(t, inTx, "modification: %d outside transaction", i)
		assert.Equal(t, gtx.Origin, remote.chain.origins[i], "origin of: %d", i)
	}

	assert.False(t, remote.components.Container.ContainsKey("k", remote.now), "visible before commit")
	assert.True(t, remote.components.Container.ContainsKey("gone", remote.now), "removed before commit")
	_, n := remote.components.Table.Counts()
	assert.Equal(t, 1, n, "remote transactions")

	commit := remote.roundTrip(t, remote.factory.NewSingleRPC(origin.factory.NewCommit(gtx)))
	_, err = commit.Perform(ctx, ic)
	assert.Nil(t, err, "commit error")

	assert.Equal(t, "ignored by origin decision", remote.components.Container.Get("k", remote.now).Payload, "value after commit")
	assert.False(t, remote.components.Container.ContainsKey("gone", remote.now), "removal after commit")
	_, n = remote.components.Table.Counts()
	assert.Equal(t, 0, n, "remote transactions after commit")

	created := <-s.C
	assert.Equal(t, gtx.Key(), created.TransactionID, "transaction of event")
	assert.False(t, created.OriginLocal, "remote origin")

	// a second commit finds nothing to do
	_, err = commit.Perform(ctx, ic)
	assert.Nil(t, err, "repeated commit")
}

func TestTransactionRollback(t *testing.T) {
	f := newFixture(t)
	gtx := transaction.NewGlobalTransaction("10.0.0.1:2200")

	_, err := f.factory.NewPrepare(gtx, []commands.WriteCommand{
		f.factory.NewPut("k", "v", -1, -1, 0),
	}, false).Perform(context.Background(), nil)
	assert.Nil(t, err, "prepare error")

	_, err = f.factory.NewRollback(gtx).Perform(context.Background(), nil)
	assert.Nil(t, err, "rollback error")

	_, err = f.factory.NewCommit(gtx).Perform(context.Background(), nil)
	assert.Nil(t, err, "commit after rollback")
	assert.False(t, f.components.Container.ContainsKey("k", f.now), "rolled back value visible")
}

func TestOnePhasePrepareWritesStore(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	store := mocks.NewMockStore(ctl)
	f.components.Store = store
	gtx := transaction.NewGlobalTransaction("10.0.0.1:2200")

	gomock.InOrder(
		store.EXPECT().Prepare(gtx.Key(), gomock.Any()).Do(func(_ string, mods []storage.Modification) {
			assert.Len(t, mods, 2, "store modifications")
			assert.Equal(t, storage.RemoveOf("c"), mods[1], "removal")
		}).Return(nil),
		store.EXPECT().Commit(gtx.Key()).Return(nil),
	)

	_, err := f.factory.NewPrepare(gtx, []commands.WriteCommand{
		f.factory.NewPut("a", "1", -1, -1, 0),
		f.factory.NewPut("b", "2", -1, -1, invocation.SkipCacheStore),
		f.factory.NewRemove("c", 0),
	}, true).Perform(context.Background(), nil)

	assert.Nil(t, err, "one phase prepare error")
	assert.True(t, f.components.Container.ContainsKey("a", f.now), "applied")
	assert.True(t, f.components.Container.ContainsKey("b", f.now), "applied without store")
}

func TestLocalTransactionWorkspace(t *testing.T) {
	f := newFixture(t)
	tm := transaction.NewDummyManager(f.components.Log)
	f.components.Contexts = invocation.NewContainer(tm)

	ctx, tx, err := tm.Begin(context.Background())
	assert.Nil(t, err, "begin error")

	ctx, ic := f.components.Contexts.CreateInvocationContext(ctx)
	assert.True(t, ic.IsInTxScope(), "transactional context")

	_, err = f.factory.NewPut("k", "v", -1, -1, 0).Perform(ctx, ic)
	assert.Equal(t, fault.ErrTransactionNotActive, err, "no workspace")

	w, created := f.components.Table.LocalWorkspace(tx)
	assert.True(t, created, "workspace created")
	ic.SetWorkspace(w)

	_, _ = f.factory.NewPut("k", "v", -1, -1, 0).Perform(ctx, ic)
	value, _ := f.factory.NewGet("k", 0).Perform(ctx, ic)
	assert.Equal(t, "v", value, "read own write")
	assert.False(t, f.components.Container.ContainsKey("k", f.now), "visible outside the transaction")

	_, _ = f.factory.NewClear(0).Perform(ctx, ic)
	value, _ = f.factory.NewGet("k", 0).Perform(ctx, ic)
	assert.Nil(t, value, "read after clear")

	assert.Len(t, w.Modifications(), 2, "recorded modifications")
	assert.Nil(t, commands.ApplyWorkspace(ctx, f.components, w, true), "apply error")
	assert.Equal(t, 0, f.components.Container.Size(f.now), "cleared at commit")
}

func TestClusteredGetLoadsFromStore(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	store := mocks.NewMockStore(ctl)
	f.components.Store = store

	stored := entry.Create("k", "from store", f.now, -1, -1)
	store.EXPECT().Load("k", f.now).Return(stored, nil).Times(1)
	store.EXPECT().Load("missing", f.now).Return(nil, nil).Times(1)

	ctx, ic := f.remote("10.0.0.1:2200")
	result, err := f.factory.NewClusteredGet("k").Perform(ctx, ic)
	assert.Nil(t, err, "clustered get error")
	assert.Equal(t, "from store", result.(*entry.Entry).Payload, "loaded payload")

	// second read is served from memory
	result, err = f.factory.NewClusteredGet("k").Perform(ctx, ic)
	assert.Nil(t, err, "clustered get error")
	assert.Equal(t, "k", result.(*entry.Entry).Key, "cached key")

	result, err = f.factory.NewClusteredGet("missing").Perform(ctx, ic)
	assert.Nil(t, err, "missing key error")
	assert.Nil(t, result, "missing key")
}
