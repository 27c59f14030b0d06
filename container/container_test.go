// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package container_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/background"
	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/storage/mocks"
)

func TestValidKey(t *testing.T) {
	assert.Nil(t, container.ValidKey("k"), "string key")
	assert.Nil(t, container.ValidKey(int64(7)), "int key")
	assert.Nil(t, container.ValidKey(struct{ A, B string }{"a", "b"}), "struct key")
	assert.Equal(t, fault.ErrInvalidKey, container.ValidKey(nil), "nil key")
	assert.Equal(t, fault.ErrInvalidKey, container.ValidKey([]byte("k")), "slice key")
	assert.Equal(t, fault.ErrInvalidKey, container.ValidKey(map[string]int{}), "map key")
}

func TestPutGetRemove(t *testing.T) {
	c := container.New()

	assert.Nil(t, c.Put("one", "data-one", -1, -1, 1000), "first put previous")
	assert.Nil(t, c.Put("two", "data-two", -1, -1, 1000), "first put previous")
	previous := c.Put("one", "data-one(NEW)", -1, -1, 2000)
	assert.Equal(t, "data-one", previous.Payload, "previous payload")

	e := c.Get("one", 3000)
	assert.Equal(t, "data-one(NEW)", e.Payload, "payload")
	assert.Equal(t, 2, c.Size(3000), "size")

	removed := c.Remove("two", 3000)
	assert.Equal(t, "data-two", removed.Payload, "removed payload")
	assert.Nil(t, c.Remove("two", 3000), "second remove")
	assert.False(t, c.ContainsKey("two", 3000), "removed key present")
	assert.Equal(t, []interface{}{"one"}, c.Keys(3000), "keys")
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	c := container.New()
	c.Put("k", "v", -1, -1, 1000)

	e := c.Get("k", 1000)
	e.SetPayload("changed")
	assert.Equal(t, "v", c.Peek("k").Payload, "container entry changed through copy")
}

func TestExpiry(t *testing.T) {
	c := container.New()
	c.Put("mortal", "m", 1000, -1, 1000)
	c.Put("transient", "t", -1, 1000, 1000)
	c.Put("immortal", "i", -1, -1, 1000)

	assert.Equal(t, 3, c.Size(2000), "size at boundary")

	// a read at 1500 keeps the transient entry alive
	assert.NotNil(t, c.Get("transient", 1500), "transient read")
	assert.Equal(t, int64(1500), c.Peek("transient").LastUsed, "touched")

	assert.Nil(t, c.Get("mortal", 2001), "mortal after lifespan")
	assert.Nil(t, c.Peek("mortal"), "expired entry not removed on read")
	assert.True(t, c.ContainsKey("transient", 2400), "transient before idle")

	n, err := c.PurgeExpired(4000)
	assert.Nil(t, err, "purge error")
	assert.Equal(t, 1, n, "purged")
	assert.Equal(t, 1, c.Size(4000), "immortal left")

	previous := c.Put("immortal", "again", 10, -1, 5000)
	assert.Equal(t, "i", previous.Payload, "replaced immortal")
	assert.Nil(t, c.Get("immortal", 5011), "new lifespan not applied")
}

func TestExpiredPreviousIsNil(t *testing.T) {
	c := container.New()
	c.Put("k", "old", 10, -1, 1000)
	assert.Nil(t, c.Put("k", "new", -1, -1, 5000), "expired previous returned")
	c.Put("j", "old", 10, -1, 1000)
	assert.Nil(t, c.Remove("j", 5000), "expired removal returned")
	assert.Nil(t, c.Peek("j"), "expired entry still present")
}

func TestClearAndEntries(t *testing.T) {
	c := container.New()
	c.Put("a", 1, -1, -1, 0)
	c.Put("b", 2, -1, -1, 0)
	assert.Len(t, c.Entries(0), 2, "entries")
	c.Clear()
	assert.Equal(t, 0, c.Size(0), "size after clear")
	assert.Len(t, c.Entries(0), 0, "entries after clear")
}

func TestReaperPurgesAll(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	c := container.New()
	c.Put("k", "v", 1, -1, 0)

	store := mocks.NewMockStore(ctl)
	store.EXPECT().PurgeExpired(int64(100)).Return(3, nil).Times(1)

	r := container.NewReaper(logger.New("testing"), time.Hour, c, store)
	assert.Equal(t, 4, r.Purge(100), "total purged")
}

func TestReaperContinuesAfterError(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	c := container.New()
	c.Put("k", "v", 1, -1, 0)

	store := mocks.NewMockStore(ctl)
	store.EXPECT().PurgeExpired(gomock.Any()).Return(0, errors.New("disk")).Times(1)

	r := container.NewReaper(logger.New("testing"), time.Hour, store, c)
	assert.Equal(t, 1, r.Purge(100), "container still purged")
}

func TestReaperRuns(t *testing.T) {
	c := container.New()
	c.Put("k", "v", 1, -1, 0)

	r := container.NewReaper(logger.New("testing"), 10*time.Millisecond, c)
	b := background.Start(background.Processes{r}, nil)

	deadline := time.Now().Add(2 * time.Second)
	for nil != c.Peek("k") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Stop()

	assert.Nil(t, c.Peek("k"), "expired entry not reaped")
}
