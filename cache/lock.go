// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"

	"github.com/bitmark-inc/gridd/invocation"
)

// cluster locks are entries under this prefix, never written to the
// cache store
const lockPrefix = "lock:"

func lockKey(name string) string {
	return lockPrefix + name
}

// Lock - take the named lock for owner, false if someone else holds it
func (c *Cache) Lock(ctx context.Context, name string, owner string) (bool, error) {
	holder, err := c.WithFlags(invocation.SkipCacheStore).PutIfAbsent(ctx, lockKey(name), owner)
	if nil != err {
		return false, err
	}
	return nil == holder, nil
}

// Unlock - release the named lock, false if owner did not hold it
func (c *Cache) Unlock(ctx context.Context, name string, owner string) (bool, error) {
	return c.WithFlags(invocation.SkipCacheStore).RemoveIf(ctx, lockKey(name), owner)
}

// IsLocked - true if anyone holds the named lock
//
// the check runs outside any transaction of ctx so it sees the
// committed state
func (c *Cache) IsLocked(ctx context.Context, name string) (bool, error) {
	if nil != c.tm && nil != c.tm.GetTransaction(ctx) {
		ctx, _ = c.tm.Suspend(ctx)
	}
	return c.WithFlags(invocation.SkipCacheStore).ContainsKey(ctx, lockKey(name))
}
