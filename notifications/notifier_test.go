// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifications_test

import (
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/notifications"
)

func TestQueue(t *testing.T) {
	n := notifications.New(logger.New("testing"), "users")
	assert.False(t, n.HasSubscribers(), "subscribers before subscribe")

	s := n.Subscribe(10)
	assert.True(t, n.HasSubscribers(), "no subscribers")

	n.EntryWritten("k", "v1", nil, false, true, "")
	n.EntryWritten("k", "v2", "v1", true, false, "tx-1")
	n.EntryRemovedEvent("k", "v2", true, "")
	n.TransactionCompletedEvent("tx-1", true, false)

	expected := []notifications.Event{
		{Type: notifications.EntryCreated, CacheName: "users", Key: "k", Value: "v1", OriginLocal: true},
		{Type: notifications.EntryModified, CacheName: "users", Key: "k", Value: "v2", Previous: "v1", TransactionID: "tx-1"},
		{Type: notifications.EntryRemoved, CacheName: "users", Key: "k", Previous: "v2", OriginLocal: true},
		{Type: notifications.TransactionCompleted, CacheName: "users", TransactionID: "tx-1", Successful: true},
	}
	for i, e := range expected {
		assert.Equal(t, e, <-s.C, "event: %d", i)
	}
}

func TestBroadcast(t *testing.T) {
	n := notifications.New(logger.New("testing"), "c")
	s1 := n.Subscribe(0)
	s2 := n.Subscribe(0)

	n.EntryRemovedEvent("k", "v", true, "")

	e1 := <-s1.C
	e2 := <-s2.C
	assert.Equal(t, e1, e2, "subscribers saw different events")
	assert.Equal(t, "EntryRemoved", e1.Type.String(), "event type")
}

func TestFullQueueDrops(t *testing.T) {
	n := notifications.New(logger.New("testing"), "c")
	s := n.Subscribe(1)

	n.EntryRemovedEvent("a", nil, true, "")
	n.EntryRemovedEvent("b", nil, true, "")

	assert.Equal(t, uint64(1), s.Dropped.Uint64(), "dropped count")
	assert.Equal(t, "a", (<-s.C).Key, "first event kept")
}

func TestUnsubscribe(t *testing.T) {
	n := notifications.New(logger.New("testing"), "c")
	s := n.Subscribe(1)
	n.Unsubscribe(s)

	_, ok := <-s.C
	assert.False(t, ok, "channel open after unsubscribe")
	assert.False(t, n.HasSubscribers(), "still subscribed")

	// no panic on a nil notifier or after unsubscribe
	n.EntryRemovedEvent("k", nil, true, "")
	var none *notifications.Notifier
	none.Notify(notifications.Event{})
}
