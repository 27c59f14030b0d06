// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package container

import (
	"reflect"
	"sync"

	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
)

// Container - the entries of one cache
type Container struct {
	sync.RWMutex
	entries map[interface{}]*entry.Entry
}

// New - create an empty container
func New() *Container {
	return &Container{
		entries: make(map[interface{}]*entry.Entry),
	}
}

// ValidKey - keys must be non-nil and usable as a map key
func ValidKey(key interface{}) error {
	if nil == key || !reflect.TypeOf(key).Comparable() {
		return fault.ErrInvalidKey
	}
	return nil
}

// Get - copy of the live entry, touched; nil if absent or expired
func (c *Container) Get(key interface{}, now int64) *entry.Entry {
	c.Lock()
	defer c.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if e.IsExpired(now) {
		delete(c.entries, key)
		return nil
	}
	e.Touch(now)
	return copyOf(e)
}

// Peek - copy of the entry without touching it or checking expiry
func (c *Container) Peek(key interface{}) *entry.Entry {
	c.RLock()
	defer c.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	return copyOf(e)
}

// Put - store a payload, returns the previous unexpired entry or nil
func (c *Container) Put(key interface{}, payload interface{}, lifespan int64, maxIdle int64, now int64) *entry.Entry {
	return c.PutEntry(entry.Create(key, payload, now, lifespan, maxIdle), now)
}

// PutEntry - store a complete entry as is, used for loaded and
// replicated entries; returns the previous unexpired entry or nil
func (c *Container) PutEntry(e *entry.Entry, now int64) *entry.Entry {
	c.Lock()
	defer c.Unlock()

	previous, ok := c.entries[e.Key]
	c.entries[e.Key] = copyOf(e)
	if !ok || previous.IsExpired(now) {
		return nil
	}
	return previous
}

// Remove - delete a key, returns the removed unexpired entry or nil
func (c *Container) Remove(key interface{}, now int64) *entry.Entry {
	c.Lock()
	defer c.Unlock()

	previous, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)
	if previous.IsExpired(now) {
		return nil
	}
	return previous
}

// ContainsKey - true if an unexpired entry is present
func (c *Container) ContainsKey(key interface{}, now int64) bool {
	return nil != c.Get(key, now)
}

// Size - count of unexpired entries
func (c *Container) Size(now int64) int {
	c.RLock()
	defer c.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !e.IsExpired(now) {
			n += 1
		}
	}
	return n
}

// Keys - snapshot of the unexpired keys
func (c *Container) Keys(now int64) []interface{} {
	c.RLock()
	defer c.RUnlock()

	keys := make([]interface{}, 0, len(c.entries))
	for k, e := range c.entries {
		if !e.IsExpired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Entries - snapshot copies of the unexpired entries
func (c *Container) Entries(now int64) []*entry.Entry {
	c.RLock()
	defer c.RUnlock()

	result := make([]*entry.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.IsExpired(now) {
			result = append(result, copyOf(e))
		}
	}
	return result
}

// Clear - remove everything
func (c *Container) Clear() {
	c.Lock()
	c.entries = make(map[interface{}]*entry.Entry)
	c.Unlock()
}

// PurgeExpired - remove entries expired at now
func (c *Container) PurgeExpired(now int64) (int, error) {
	c.Lock()
	defer c.Unlock()

	n := 0
	for key, e := range c.entries {
		if e.IsExpired(now) {
			delete(c.entries, key)
			n += 1
		}
	}
	return n, nil
}

func copyOf(e *entry.Entry) *entry.Entry {
	duplicate := *e
	return &duplicate
}
