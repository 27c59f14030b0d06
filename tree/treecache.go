// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tree

import (
	"context"
	"sort"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/cache"
)

// TreeCache - tree view of a cache
//
// each operation runs in a transaction of its own unless ctx already
// carries one; on a non-transactional cache the steps of an operation
// are applied one by one
type TreeCache struct {
	log *logger.L
	c   *cache.Cache
}

// New - view c as a tree
func New(log *logger.L, c *cache.Cache) *TreeCache {
	return &TreeCache{
		log: log,
		c:   c,
	}
}

// Cache - the cache holding the nodes
func (t *TreeCache) Cache() *cache.Cache {
	return t.c
}

// run f in a transaction, committing on success
func (t *TreeCache) batch(ctx context.Context, f func(ctx context.Context) error) error {
	tm := t.c.TransactionManager()
	if nil == tm || nil != tm.GetTransaction(ctx) {
		return f(ctx)
	}

	txCtx, tx, err := tm.Begin(ctx)
	if nil != err {
		return err
	}
	if err := f(txCtx); nil != err {
		if e := tm.Rollback(txCtx); nil != e {
			t.log.Warnf("tx: %s  rollback error: %s", tx.ID(), e)
		}
		return err
	}
	return tm.Commit(txCtx)
}

// Exists - true if the node is present
func (t *TreeCache) Exists(ctx context.Context, f Fqn) (bool, error) {
	if f.IsRoot() {
		return true, nil
	}
	return t.c.ContainsKey(ctx, structureKey(f))
}

// AddChild - create the node and any missing ancestors
func (t *TreeCache) AddChild(ctx context.Context, f Fqn) error {
	return t.batch(ctx, func(ctx context.Context) error {
		return t.create(ctx, f)
	})
}

func (t *TreeCache) create(ctx context.Context, f Fqn) error {
	if f.IsRoot() {
		return nil
	}
	exists, err := t.Exists(ctx, f)
	if nil != err || exists {
		return err
	}
	if err := t.create(ctx, f.Parent()); nil != err {
		return err
	}

	if _, err := t.c.PutIfAbsent(ctx, structureKey(f), atomicmap.New()); nil != err {
		return err
	}
	if _, err := t.c.PutIfAbsent(ctx, dataKey(f), atomicmap.New()); nil != err {
		return err
	}
	return t.updateMap(ctx, structureKey(f.Parent()), func(m *atomicmap.Map) error {
		_, err := m.Put(f.Name(), true)
		return err
	})
}

// change the map at key and ship the change
func (t *TreeCache) updateMap(ctx context.Context, key NodeKey, change func(m *atomicmap.Map) error) error {
	m, err := t.c.AtomicMap(ctx, key)
	if nil != err {
		return err
	}
	if err := change(m); nil != err {
		return err
	}
	return t.c.CommitAtomicMap(ctx, key, m)
}

// Put - set a value in the data of a node, creating the node if needed;
// returns the previous value
func (t *TreeCache) Put(ctx context.Context, f Fqn, key interface{}, value interface{}) (interface{}, error) {
	var previous interface{}
	err := t.batch(ctx, func(ctx context.Context) error {
		if err := t.create(ctx, f); nil != err {
			return err
		}
		return t.updateMap(ctx, dataKey(f), func(m *atomicmap.Map) error {
			var err error
			previous, err = m.Put(key, value)
			return err
		})
	})
	if nil != err {
		return nil, err
	}
	return previous, nil
}

// Get - a value from the data of a node, nil if either is missing
func (t *TreeCache) Get(ctx context.Context, f Fqn, key interface{}) (interface{}, error) {
	m, err := t.c.AtomicMap(ctx, dataKey(f))
	if nil != err {
		return nil, err
	}
	value, _ := m.Get(key)
	return value, nil
}

// Data - a copy of all data of a node
func (t *TreeCache) Data(ctx context.Context, f Fqn) (map[interface{}]interface{}, error) {
	m, err := t.c.AtomicMap(ctx, dataKey(f))
	if nil != err {
		return nil, err
	}
	return m.ToMap(), nil
}

// Remove - delete a value from the data of a node, returns it
func (t *TreeCache) Remove(ctx context.Context, f Fqn, key interface{}) (interface{}, error) {
	var previous interface{}
	err := t.batch(ctx, func(ctx context.Context) error {
		exists, err := t.Exists(ctx, f)
		if nil != err || !exists {
			return err
		}
		return t.updateMap(ctx, dataKey(f), func(m *atomicmap.Map) error {
			previous = m.Remove(key)
			return nil
		})
	})
	if nil != err {
		return nil, err
	}
	return previous, nil
}

// Children - sorted names of the direct children of a node
func (t *TreeCache) Children(ctx context.Context, f Fqn) ([]string, error) {
	m, err := t.c.AtomicMap(ctx, structureKey(f))
	if nil != err {
		return nil, err
	}
	names := []string{}
	for k := range m.ToMap() {
		if name, ok := k.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// RemoveNode - delete a node with everything below it, false if it
// did not exist; the root cannot be removed
func (t *TreeCache) RemoveNode(ctx context.Context, f Fqn) (bool, error) {
	if f.IsRoot() {
		return false, nil
	}
	removed := false
	err := t.batch(ctx, func(ctx context.Context) error {
		exists, err := t.Exists(ctx, f)
		if nil != err || !exists {
			return err
		}
		if err := t.removeSubtree(ctx, f); nil != err {
			return err
		}
		removed = true
		return t.updateMap(ctx, structureKey(f.Parent()), func(m *atomicmap.Map) error {
			m.Remove(f.Name())
			return nil
		})
	})
	return removed, err
}

func (t *TreeCache) removeSubtree(ctx context.Context, f Fqn) error {
	children, err := t.Children(ctx, f)
	if nil != err {
		return err
	}
	for _, name := range children {
		child, err := f.Child(name)
		if nil != err {
			return err
		}
		if err := t.removeSubtree(ctx, child); nil != err {
			return err
		}
	}
	if _, err := t.c.Remove(ctx, dataKey(f)); nil != err {
		return err
	}
	_, err = t.c.Remove(ctx, structureKey(f))
	return err
}
