// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	preparedExpiration = 2 * time.Minute
	cleanupInterval    = 1 * time.Minute
)

// batches staged by Prepare, waiting for Commit or Rollback
type preparedCache struct {
	cache *cache.Cache
}

type staged struct {
	batch     *leveldb.Batch
	completed int32
}

func newPreparedCache(log *logger.L) *preparedCache {
	c := cache.New(preparedExpiration, cleanupInterval)
	c.OnEvicted(func(key string, obj interface{}) {
		if 0 == atomic.LoadInt32(&obj.(*staged).completed) {
			log.Warnf("prepared transaction: %s  abandoned", key)
		}
	})
	return &preparedCache{
		cache: c,
	}
}

func (p *preparedCache) put(txKey string, batch *leveldb.Batch) {
	p.cache.Set(txKey, &staged{batch: batch}, cache.DefaultExpiration)
}

func (p *preparedCache) take(txKey string) (*leveldb.Batch, bool) {
	obj, found := p.cache.Get(txKey)
	if !found {
		return nil, false
	}
	s := obj.(*staged)
	atomic.StoreInt32(&s.completed, 1)
	p.cache.Delete(txKey)
	return s.batch, true
}

func (p *preparedCache) clear() {
	for _, item := range p.cache.Items() {
		atomic.StoreInt32(&item.Object.(*staged).completed, 1)
	}
	p.cache.Flush()
}
