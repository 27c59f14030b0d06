// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package distribution_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/distribution"
)

func TestEmptyRing(t *testing.T) {
	h := distribution.New(2, 0)
	assert.Nil(t, h.Locate([]byte("k")), "owners of empty ring")
	assert.False(t, h.IsOwner("a", []byte("k")), "owner in empty ring")
}

func TestOwnerCount(t *testing.T) {
	h := distribution.New(2, 0)
	h.SetMembers([]string{"c", "a", "b", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, h.Members(), "members")

	for i := 0; i < 100; i += 1 {
		key := []byte(fmt.Sprintf("key-%d", i))
		owners := h.Locate(key)
		assert.Len(t, owners, 2, "owners of %s", key)
		assert.NotEqual(t, owners[0], owners[1], "duplicate owner of %s", key)
		assert.True(t, h.IsOwner(owners[1], key), "backup owner")
	}

	h = distribution.New(5, 0)
	h.SetMembers([]string{"a", "b"})
	assert.Len(t, h.Locate([]byte("k")), 2, "owners capped by members")
}

func TestStableAcrossInstances(t *testing.T) {
	h1 := distribution.New(2, 16)
	h2 := distribution.New(2, 16)
	h1.SetMembers([]string{"x:1", "y:2", "z:3"})
	h2.SetMembers([]string{"z:3", "x:1", "y:2"})

	for i := 0; i < 50; i += 1 {
		key := []byte(fmt.Sprintf("%d", i))
		assert.Equal(t, h1.Locate(key), h2.Locate(key), "member order changed ownership")
	}
}

func TestSpread(t *testing.T) {
	h := distribution.New(1, 0)
	h.SetMembers([]string{"a", "b", "c"})

	counts := map[string]int{}
	for i := 0; i < 3000; i += 1 {
		counts[h.Locate([]byte(fmt.Sprintf("key-%d", i)))[0]] += 1
	}
	for m, n := range counts {
		assert.True(t, n > 300, "member %s owns only %d keys", m, n)
	}
	assert.Len(t, counts, 3, "members owning keys")
}
