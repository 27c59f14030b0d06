// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
)

func TestMortalExpiryScenario(t *testing.T) {
	v := entry.CreateValue("v", 1000, 60000, 1000, -1)
	assert.Equal(t, entry.Mortal, v.Kind, "kind")

	assert.True(t, v.IsExpired(70000), "expired at 70000")
	assert.False(t, v.IsExpired(50000), "not expired at 50000")

	// boundary: expired only strictly after created + lifespan
	assert.False(t, v.IsExpired(61000), "expired at exact lifespan")
	assert.True(t, v.IsExpired(61001), "not expired after lifespan")
}

func TestTransientExpiryIgnoresLifespan(t *testing.T) {
	const T = 5000
	for _, lifespan := range []int64{-1, 1000000} {
		v := entry.CreateValue("v", T, lifespan, T, 60000)
		assert.False(t, v.IsExpired(T+60000), "lifespan %d: expired at limit", lifespan)
		assert.True(t, v.IsExpired(T+60001), "lifespan %d: not expired after idle", lifespan)
	}
}

func TestTransientMortalExpiry(t *testing.T) {
	v := entry.NewTransientMortal("v", 0, 100, 50, 20)
	assert.False(t, v.IsExpired(60), "neither exceeded")
	assert.True(t, v.IsExpired(71), "idle exceeded")

	v = entry.NewTransientMortal("v", 0, 100, 95, 20)
	assert.True(t, v.IsExpired(101), "lifespan exceeded")

	v = entry.NewTransientMortal("v", 0, -1, 0, -1)
	assert.False(t, v.IsExpired(math.MaxInt64), "sentinels never expire")
}

func TestImmortal(t *testing.T) {
	v := entry.CreateValue("v", 10, -1, 10, -1)
	assert.Equal(t, entry.Immortal, v.Kind, "kind")
	assert.False(t, v.IsExpired(math.MaxInt64), "immortal expired")
	assert.False(t, v.CanExpire(), "immortal can expire")
	assert.Equal(t, int64(-1), v.ExpiryTime(), "immortal expiry time")
}

func TestCreateValueKinds(t *testing.T) {
	items := []struct {
		lifespan int64
		maxIdle  int64
		kind     entry.Kind
	}{
		{-1, -1, entry.Immortal},
		{0, -1, entry.Mortal},
		{-1, 0, entry.Transient},
		{10, 20, entry.TransientMortal},
	}
	for i, item := range items {
		v := entry.CreateValue("p", 1, item.lifespan, 2, item.maxIdle)
		assert.Equal(t, item.kind, v.Kind, "%d: kind", i)
		assert.Equal(t, "p", v.Payload, "%d: payload", i)
		assert.Equal(t, item.lifespan, v.Lifespan, "%d: lifespan", i)
		assert.Equal(t, item.maxIdle, v.MaxIdle, "%d: max idle", i)
	}
}

func TestExpiryTime(t *testing.T) {
	assert.Equal(t, int64(1100), entry.NewMortal("v", 1000, 100).ExpiryTime(), "mortal")
	assert.Equal(t, int64(550), entry.NewTransient("v", 500, 50).ExpiryTime(), "transient")
	assert.Equal(t, int64(1020), entry.NewTransientMortal("v", 1000, 100, 1000, 20).ExpiryTime(), "idle first")
	assert.Equal(t, int64(1100), entry.NewTransientMortal("v", 1000, 100, 1090, 20).ExpiryTime(), "lifespan first")
}

func TestTouch(t *testing.T) {
	e := entry.Create("k", "v", 1000, -1, 500)
	assert.Equal(t, entry.Transient, e.Kind, "kind")

	e.Touch(1400)
	assert.False(t, e.IsExpired(1800), "touch did not extend idle time")
	assert.True(t, e.IsExpired(1901), "idle time not honoured")

	m := entry.Create("k", "v", 1000, 500, -1)
	m.Touch(1400)
	assert.Equal(t, int64(-1), m.LastUsed, "mortal tracked last use")
}

func TestReincarnate(t *testing.T) {
	e := entry.Create("k", "v", 1000, 500, -1)
	e.Reincarnate(2000)
	assert.False(t, e.IsExpired(2400), "reincarnate did not restart lifespan")
	assert.Equal(t, int64(2000), e.Created, "created")
}

func TestSetLifespanAndMaxIdle(t *testing.T) {
	e := entry.Create("k", "v", 1000, -1, -1)
	assert.Equal(t, entry.Immortal, e.Kind, "initial kind")

	e.SetLifespan(2000, 100)
	assert.Equal(t, entry.Mortal, e.Kind, "after lifespan")
	assert.Equal(t, int64(2000), e.Created, "created stamped")

	e.SetMaxIdle(2050, 10)
	assert.Equal(t, entry.TransientMortal, e.Kind, "after max idle")
	assert.Equal(t, int64(2000), e.Created, "created kept")
	assert.Equal(t, int64(2050), e.LastUsed, "last used stamped")

	e.SetLifespan(2060, -1)
	assert.Equal(t, entry.Transient, e.Kind, "lifespan removed")

	e.SetMaxIdle(2070, -1)
	assert.Equal(t, entry.Immortal, e.Kind, "max idle removed")
	assert.Equal(t, "v", e.Payload, "payload kept")
}

func TestEntryValueConversion(t *testing.T) {
	v := entry.NewMortal([]byte("data"), 7, 9)
	e := v.ToEntry("key")
	assert.Equal(t, "key", e.Key, "key")
	assert.Equal(t, v, e.ToValue(), "value")
}

func TestLifespanFromExpiry(t *testing.T) {
	const now = int64(1500000000000)

	l, err := entry.LifespanFromExpiry(0, now)
	assert.Nil(t, err, "zero")
	assert.Equal(t, entry.NoExpiry, l, "zero expiry")

	l, err = entry.LifespanFromExpiry(60, now)
	assert.Nil(t, err, "relative")
	assert.Equal(t, int64(60000), l, "relative expiry")

	l, err = entry.LifespanFromExpiry(now/1000+10, now)
	assert.Nil(t, err, "absolute")
	assert.Equal(t, int64(10000), l, "absolute expiry")

	_, err = entry.LifespanFromExpiry(now/1000-10, now)
	assert.Equal(t, fault.ErrExpiryInPast, err, "absolute in past")

	_, err = entry.LifespanFromExpiry(-5, now)
	assert.Equal(t, fault.ErrExpiryInPast, err, "negative")
}
