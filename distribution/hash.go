// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package distribution chooses the owners of a key in distributed mode
package distribution

import (
	"encoding/binary"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/crypto/sha3"
)

// DefaultVirtualNodes - points placed on the ring for each member
const DefaultVirtualNodes = 64

type point struct {
	position uint64
	member   string
}

// ConsistentHash - ring of members
type ConsistentHash struct {
	sync.RWMutex
	numOwners    int
	virtualNodes int
	ring         []point
	members      []string
}

// New - create an empty ring
func New(numOwners int, virtualNodes int) *ConsistentHash {
	if numOwners < 1 {
		numOwners = 1
	}
	if virtualNodes < 1 {
		virtualNodes = DefaultVirtualNodes
	}
	return &ConsistentHash{
		numOwners:    numOwners,
		virtualNodes: virtualNodes,
	}
}

// NumOwners - copies kept of each key
func (h *ConsistentHash) NumOwners() int {
	return h.numOwners
}

// SetMembers - rebuild the ring for a new cluster view
func (h *ConsistentHash) SetMembers(members []string) {
	unique := make(map[string]struct{}, len(members))
	ring := make([]point, 0, len(members)*h.virtualNodes)
	sorted := make([]string, 0, len(members))

	for _, m := range members {
		if _, ok := unique[m]; ok {
			continue
		}
		unique[m] = struct{}{}
		sorted = append(sorted, m)
		for i := 0; i < h.virtualNodes; i += 1 {
			ring = append(ring, point{
				position: position([]byte(m + "#" + strconv.Itoa(i))),
				member:   m,
			})
		}
	}
	sort.Slice(ring, func(i, j int) bool {
		if ring[i].position == ring[j].position {
			return ring[i].member < ring[j].member
		}
		return ring[i].position < ring[j].position
	})
	sort.Strings(sorted)

	h.Lock()
	h.ring = ring
	h.members = sorted
	h.Unlock()
}

// Members - the current members in sorted order
func (h *ConsistentHash) Members() []string {
	h.RLock()
	defer h.RUnlock()
	result := make([]string, len(h.members))
	copy(result, h.members)
	return result
}

// Locate - owners of an encoded key, primary first
func (h *ConsistentHash) Locate(key []byte) []string {
	h.RLock()
	defer h.RUnlock()

	n := h.numOwners
	if n > len(h.members) {
		n = len(h.members)
	}
	if 0 == n {
		return nil
	}

	p := position(key)
	start := sort.Search(len(h.ring), func(i int) bool {
		return h.ring[i].position >= p
	})

	owners := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; len(owners) < n && i < len(h.ring); i += 1 {
		m := h.ring[(start+i)%len(h.ring)].member
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		owners = append(owners, m)
	}
	return owners
}

// IsOwner - true if member holds a copy of the key
func (h *ConsistentHash) IsOwner(member string, key []byte) bool {
	for _, m := range h.Locate(key) {
		if m == member {
			return true
		}
	}
	return false
}

func position(data []byte) uint64 {
	digest := sha3.Sum256(data)
	return binary.BigEndian.Uint64(digest[:8])
}
