// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/background"
	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/container"
	"github.com/bitmark-inc/gridd/distribution"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/interceptor"
	"github.com/bitmark-inc/gridd/invocation"
	"github.com/bitmark-inc/gridd/metrics"
	"github.com/bitmark-inc/gridd/notifications"
	"github.com/bitmark-inc/gridd/replqueue"
	"github.com/bitmark-inc/gridd/storage"
	"github.com/bitmark-inc/gridd/transaction"
)

// the parts shared by every flag view of one cache
type core struct {
	running int32 // atomic

	name    string
	log     *logger.L
	config  Configuration
	manager *Manager

	components *commands.Components
	factory    *commands.Factory
	chain      *interceptor.Chain
	tm         transaction.Manager // nil: not transactional
	store      *storage.LevelDBStore
	hash       *distribution.ConsistentHash
	queue      *replqueue.Queue

	replication  *interceptor.Replication
	distribution *interceptor.Distribution

	metrics   *metrics.Set
	processes *background.T
}

// Cache - a named cache, possibly viewed with extra call flags
type Cache struct {
	*core
	flags invocation.Flag
}

func newCache(m *Manager, name string, config Configuration) (*Cache, error) {
	log := logger.New("cache-" + name)

	c := &core{
		name:    name,
		log:     log,
		config:  config,
		manager: m,
	}
	if config.Transactional {
		c.tm = m.tm
	}

	c.components = &commands.Components{
		CacheName:  name,
		Address:    m.address,
		Log:        log,
		Container:  container.New(),
		Contexts:   invocation.NewContainer(c.tm),
		Table:      transaction.NewTable(m.address),
		Notifier:   notifications.New(log, name),
		Marshaller: m.marshaller,
	}

	if "" != config.StoreFile {
		store, err := storage.Open(log, config.StoreFile, m.marshaller, false)
		if nil != err {
			log.Errorf("open store: %q  error: %s", config.StoreFile, err)
			return nil, err
		}
		c.store = store
		c.components.Store = store
	}

	if config.Mode.IsDistributed() {
		c.hash = distribution.New(config.NumOwners, config.VirtualNodes)
		c.hash.SetMembers(m.Members())
		c.components.Owns = c.owns
	}

	c.factory = commands.NewFactory(c.components)
	c.chain = interceptor.NewChain(c.stages()...)
	c.components.Chain = c.chain
	c.metrics = c.collectors()

	return &Cache{core: c}, nil
}

// build the interceptor chain for the configured mode
func (c *core) stages() []interceptor.Interceptor {
	stages := []interceptor.Interceptor{
		interceptor.NewInvocationContext(c.log, c.IsRunning),
	}
	if nil != c.tm {
		stages = append(stages, interceptor.NewTx(c.log, c.components.Table, c.newResource))
	}

	if c.config.Mode.IsClustered() {
		synchronous := c.config.Mode.IsSynchronous()
		var enqueuer interceptor.Enqueuer
		if !synchronous && c.config.UseReplQueue {
			c.queue = replqueue.New(c.log, &queueSender{c: c}, c.config.ReplQueueInterval, c.config.ReplQueueMaxElements)
			enqueuer = c.queue
		}
		if c.config.Mode.IsDistributed() {
			c.distribution = interceptor.NewDistribution(c.log, c.factory, c.manager.rpc, enqueuer, synchronous, c.locate)
			stages = append(stages, c.distribution)
		} else {
			c.replication = interceptor.NewReplication(c.log, c.factory, c.manager.rpc, enqueuer, synchronous)
			stages = append(stages, c.replication)
		}
	}

	if nil != c.components.Store {
		stages = append(stages,
			interceptor.NewCacheLoader(c.log, c.components),
			interceptor.NewCacheStore(c.log, c.components),
		)
	}
	return append(stages, interceptor.NewCall())
}

// members keeping key, primary first
func (c *core) locate(key interface{}) []string {
	k, err := c.components.Marshaller.Marshal(key)
	if nil != err {
		return nil
	}
	return c.hash.Locate(k)
}

func (c *core) owns(key interface{}) bool {
	for _, owner := range c.locate(key) {
		if c.manager.address == owner {
			return true
		}
	}
	return false
}

func (c *core) start() {
	purgers := []container.Purger{c.components.Container}
	if nil != c.store {
		purgers = append(purgers, c.store)
	}
	processes := background.Processes{
		container.NewReaper(c.log, c.config.ExpirationWakeUpInterval, purgers...),
	}
	if nil != c.queue {
		processes = append(processes, c.queue)
	}
	c.processes = background.Start(processes, nil)
	atomic.StoreInt32(&c.running, 1)
	c.log.Infof("started in mode: %s", c.config.Mode)
}

// refuse new operations, flush the queue and close the store
func (c *core) stop() {
	if !atomic.CompareAndSwapInt32(&c.running, 1, 0) {
		return
	}
	c.processes.Stop()
	if nil != c.store {
		if err := c.store.Close(); nil != err {
			c.log.Errorf("close store error: %s", err)
		}
	}
	c.log.Info("stopped")
}

// IsRunning - true between start and stop
func (c *core) IsRunning() bool {
	return 1 == atomic.LoadInt32(&c.running)
}

// Name - of the cache
func (c *core) Name() string {
	return c.name
}

// Configuration - as defined
func (c *core) Configuration() Configuration {
	return c.config
}

// TransactionManager - nil unless the cache is transactional
func (c *core) TransactionManager() transaction.Manager {
	return c.tm
}

// Subscribe - receive the events of this cache
func (c *core) Subscribe(size int) *notifications.Subscription {
	return c.components.Notifier.Subscribe(size)
}

// Unsubscribe - stop receiving events
func (c *core) Unsubscribe(s *notifications.Subscription) {
	c.components.Notifier.Unsubscribe(s)
}

// Size - live entries held by this member
func (c *core) Size() int {
	return c.components.Container.Size(c.components.Time())
}

// WithFlags - a view of the same cache whose operations carry flags
func (c *Cache) WithFlags(flags invocation.Flag) *Cache {
	return &Cache{
		core:  c.core,
		flags: c.flags | flags,
	}
}

func (c *Cache) invoke(ctx context.Context, cmd commands.VisitableCommand) (interface{}, error) {
	ctx, ic := c.components.Contexts.CreateInvocationContext(ctx)
	ic.SetFlags(c.flags)
	return c.chain.Invoke(ctx, ic, cmd)
}

// Put - store a value, returns the previous one
func (c *Cache) Put(ctx context.Context, key interface{}, value interface{}) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewPut(key, value, entry.NoExpiry, entry.NoExpiry, c.flags))
}

// PutWithLifespan - store a value that expires; a duration of zero or
// less does not expire
func (c *Cache) PutWithLifespan(ctx context.Context, key interface{}, value interface{}, lifespan time.Duration, maxIdle time.Duration) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewPut(key, value, milliseconds(lifespan), milliseconds(maxIdle), c.flags))
}

// PutWithExpiry - store a value with a memcached style expiry: seconds
// from now, or a Unix time if more than thirty days
func (c *Cache) PutWithExpiry(ctx context.Context, key interface{}, value interface{}, expiry int64) (interface{}, error) {
	lifespan, err := entry.LifespanFromExpiry(expiry, c.components.Time())
	if nil != err {
		return nil, err
	}
	return c.invoke(ctx, c.factory.NewPut(key, value, lifespan, entry.NoExpiry, c.flags))
}

// PutIfAbsent - store only if there is no value, returns the existing
// value or nil
func (c *Cache) PutIfAbsent(ctx context.Context, key interface{}, value interface{}) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewPutIfAbsent(key, value, entry.NoExpiry, entry.NoExpiry, c.flags))
}

// PutAll - store every pair
func (c *Cache) PutAll(ctx context.Context, values map[interface{}]interface{}) error {
	keys := make([]interface{}, 0, len(values))
	payloads := make([]interface{}, 0, len(values))
	for k, v := range values {
		keys = append(keys, k)
		payloads = append(payloads, v)
	}
	_, err := c.invoke(ctx, c.factory.NewPutMap(keys, payloads, entry.NoExpiry, entry.NoExpiry, c.flags))
	return err
}

// Replace - change a present value, returns the previous one or nil
// if the key was absent
func (c *Cache) Replace(ctx context.Context, key interface{}, value interface{}) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewReplace(key, value, entry.NoExpiry, entry.NoExpiry, c.flags))
}

// ReplaceIf - change the value only if it equals oldValue
func (c *Cache) ReplaceIf(ctx context.Context, key interface{}, oldValue interface{}, newValue interface{}) (bool, error) {
	result, err := c.invoke(ctx, c.factory.NewConditionalReplace(key, oldValue, newValue, entry.NoExpiry, entry.NoExpiry, c.flags))
	return true == result, err
}

// Remove - delete a key, returns the previous value
func (c *Cache) Remove(ctx context.Context, key interface{}) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewRemove(key, c.flags))
}

// RemoveIf - delete a key only if it holds value
func (c *Cache) RemoveIf(ctx context.Context, key interface{}, value interface{}) (bool, error) {
	result, err := c.invoke(ctx, c.factory.NewConditionalRemove(key, value, c.flags))
	return true == result, err
}

// Clear - delete every key
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.invoke(ctx, c.factory.NewClear(c.flags))
	return err
}

// Get - the value or nil
func (c *Cache) Get(ctx context.Context, key interface{}) (interface{}, error) {
	return c.invoke(ctx, c.factory.NewGet(key, c.flags))
}

// ContainsKey - true if the key has a value
func (c *Cache) ContainsKey(ctx context.Context, key interface{}) (bool, error) {
	value, err := c.Get(ctx, key)
	return nil != value, err
}

// Evict - drop a key from this member's memory only
func (c *Cache) Evict(ctx context.Context, key interface{}) error {
	_, err := c.invoke(ctx, c.factory.NewEvict(key))
	return err
}

// ApplyDelta - replay atomic map operations on the map at key
func (c *Cache) ApplyDelta(ctx context.Context, key interface{}, delta *atomicmap.Delta) error {
	if nil == delta || delta.IsEmpty() {
		return nil
	}
	_, err := c.invoke(ctx, c.factory.NewApplyDelta(key, delta, c.flags))
	return err
}

// AtomicMap - a private copy of the map at key, an empty map if there
// is none; changes take effect with CommitAtomicMap
func (c *Cache) AtomicMap(ctx context.Context, key interface{}) (*atomicmap.Map, error) {
	value, err := c.Get(ctx, key)
	if nil != err {
		return nil, err
	}
	if nil == value {
		return atomicmap.New(), nil
	}
	m, ok := value.(*atomicmap.Map)
	if !ok {
		return nil, fault.ErrNotAtomicMap
	}
	return m.Copy(), nil
}

// CommitAtomicMap - ship the changes made to m since the last commit
func (c *Cache) CommitAtomicMap(ctx context.Context, key interface{}, m *atomicmap.Map) error {
	return c.ApplyDelta(ctx, key, m.Delta())
}

func milliseconds(d time.Duration) int64 {
	if d <= 0 {
		return entry.NoExpiry
	}
	return int64(d / time.Millisecond)
}
