// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/transaction"
)

func TestGlobalTransactionRoundTrip(t *testing.T) {
	r := marshal.NewRegistry()
	transaction.RegisterExternalizers(r)
	m := marshal.New(r)

	gtx := transaction.NewGlobalTransaction("127.0.0.1:2136")
	b, err := m.Marshal(gtx)
	assert.Nil(t, err, "marshal error")

	v, err := m.Unmarshal(b)
	assert.Nil(t, err, "unmarshal error")
	decoded := v.(*transaction.GlobalTransaction)
	assert.True(t, gtx.Equal(decoded), "round trip")
	assert.Equal(t, gtx.Key(), decoded.Key(), "key")
}

func TestLocalWorkspace(t *testing.T) {
	tm := newManager()
	_, tx, _ := tm.Begin(context.Background())

	table := transaction.NewTable("node-a")

	w1, created := table.LocalWorkspace(tx)
	assert.True(t, created, "first use")
	w2, created := table.LocalWorkspace(tx)
	assert.False(t, created, "second use")
	assert.Equal(t, w1, w2, "different workspace")
	assert.Equal(t, "node-a", w1.GlobalTransaction.Origin, "origin")

	local, remote := table.Counts()
	assert.Equal(t, 1, local, "local count")
	assert.Equal(t, 0, remote, "remote count")

	table.RemoveLocal(tx)
	_, ok := table.FindLocal(tx)
	assert.False(t, ok, "not removed")
}

func TestRemoteWorkspace(t *testing.T) {
	table := transaction.NewTable("node-b")
	gtx := transaction.NewGlobalTransaction("node-a")

	_, ok := table.RemoteWorkspace(gtx, false)
	assert.False(t, ok, "found before create")

	w, ok := table.RemoteWorkspace(gtx, true)
	assert.True(t, ok, "create")
	assert.Equal(t, gtx, w.GlobalTransaction, "global transaction")

	table.RemoveRemote(gtx)
	_, ok = table.RemoteWorkspace(gtx, false)
	assert.False(t, ok, "not removed")
}

func TestWorkspaceView(t *testing.T) {
	table := transaction.NewTable("node-a")
	w, _ := table.RemoteWorkspace(transaction.NewGlobalTransaction("node-b"), true)

	_, found := w.Lookup("k1")
	assert.False(t, found, "untouched key")

	e := entry.Create("k1", "v1", 1000, -1, -1)
	w.Put(e)
	got, found := w.Lookup("k1")
	assert.True(t, found, "written key")
	assert.Equal(t, e, got, "written entry")

	w.Remove("k1")
	got, found = w.Lookup("k1")
	assert.True(t, found, "removed key")
	assert.Nil(t, got, "removed entry visible")

	w.Clear()
	got, found = w.Lookup("other")
	assert.True(t, found, "cleared workspace hides committed state")
	assert.Nil(t, got, "cleared entry visible")
}
