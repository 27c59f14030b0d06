// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package atomicmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

func newMarshaller() *marshal.Marshaller {
	r := marshal.NewRegistry()
	atomicmap.RegisterExternalizers(r)
	return marshal.New(r)
}

func TestPutRemoveClear(t *testing.T) {
	m := atomicmap.New()

	old, err := m.Put("a", "1")
	assert.Nil(t, err, "put error")
	assert.Nil(t, old, "previous of new key")
	old, _ = m.Put("a", "2")
	assert.Equal(t, "1", old, "previous value")
	_, _ = m.Put("b", "3")

	assert.Equal(t, "3", m.Remove("b"), "removed value")
	assert.Nil(t, m.Remove("b"), "second remove")

	v, ok := m.Get("a")
	assert.True(t, ok, "key missing")
	assert.Equal(t, "2", v, "value")

	m.Clear()
	assert.Equal(t, 0, m.Size(), "size after clear")

	_, err = m.Put([]byte("k"), 1)
	assert.Equal(t, fault.ErrInvalidKey, err, "slice key")
}

func TestRollback(t *testing.T) {
	m := atomicmap.New()
	_, _ = m.Put("keep", "original")
	_, _ = m.Put("change", "original")
	_ = m.Delta()

	_, _ = m.Put("change", "changed")
	_, _ = m.Put("new", "added")
	m.Remove("keep")
	m.Clear()
	_, _ = m.Put("after", "clear")

	m.Rollback()
	assert.Equal(t, map[interface{}]interface{}{"keep": "original", "change": "original"}, m.ToMap(), "after rollback")
	assert.True(t, m.Delta().IsEmpty(), "operations remain after rollback")
}

func TestDeltaReplay(t *testing.T) {
	source := atomicmap.New()
	target := atomicmap.New()
	_, _ = target.Put("stale", "x")

	source.Clear()
	_, _ = source.Put("a", int64(1))
	_, _ = source.Put("b", int64(2))
	source.Remove("a")

	delta := source.Delta()
	assert.Len(t, delta.Operations, 4, "recorded operations")

	delta.Replay(target)
	assert.Equal(t, source.ToMap(), target.ToMap(), "replayed content")
	assert.True(t, source.Delta().IsEmpty(), "delta taken twice")
}

func TestDeltaWireForm(t *testing.T) {
	marshaller := newMarshaller()

	source := atomicmap.New()
	_, _ = source.Put("k", "old")
	_ = source.Delta()
	_, _ = source.Put("k", "new")
	source.Remove("gone")
	_, _ = source.Put("gone", "x")
	source.Remove("gone")
	source.Clear()

	buffer, err := marshaller.Marshal(source.Delta())
	assert.Nil(t, err, "marshal error")

	// put carries key and new value only, the old value stays local
	put, _ := marshaller.Marshal(&atomicmap.PutOperation{Key: "k", NewValue: "new"})
	expected := []byte{marshal.Version, byte(marshal.TypePutOperation),
		byte(marshal.TypeString), 1, 'k',
		byte(marshal.TypeString), 3, 'n', 'e', 'w',
	}
	assert.Equal(t, expected, put, "put operation layout")

	v, err := marshaller.Unmarshal(buffer)
	assert.Nil(t, err, "unmarshal error")
	delta, ok := v.(*atomicmap.Delta)
	assert.True(t, ok, "decoded type")
	assert.Len(t, delta.Operations, 4, "decoded operations")

	target := atomicmap.New()
	_, _ = target.Put("other", "y")
	delta.Replay(target)
	assert.Equal(t, 0, target.Size(), "clear was not last")
}

func TestMapRoundTrip(t *testing.T) {
	marshaller := newMarshaller()

	m := atomicmap.New()
	_, _ = m.Put("a", "1")
	_, _ = m.Put(int64(2), []byte{2})

	buffer, err := marshaller.Marshal(m)
	assert.Nil(t, err, "marshal error")
	v, err := marshaller.Unmarshal(buffer)
	assert.Nil(t, err, "unmarshal error")
	assert.Equal(t, m.ToMap(), v.(*atomicmap.Map).ToMap(), "content")
}

func TestMalformedKey(t *testing.T) {
	marshaller := newMarshaller()
	buffer := []byte{marshal.Version, byte(marshal.TypeRemoveOperation), byte(marshal.TypeBytes), 1, 'k'}
	_, err := marshaller.Unmarshal(buffer)
	assert.Equal(t, fault.ErrMalformedStream, err, "bytes key accepted")
}
