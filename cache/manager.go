// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/gridd/atomicmap"
	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/remoting"
	"github.com/bitmark-inc/gridd/transaction"
)

// StandaloneAddress - member address of a manager without transport
const StandaloneAddress = "standalone"

// Options - member wide settings
type Options struct {
	// wait limit of synchronous calls
	SyncReplTimeout time.Duration

	// inbound requests per second, zero for no limit
	MaximumRequestRate float64

	// receives the collectors of every cache, nil for none
	Registerer prometheus.Registerer
}

// Manager - the caches of one member and the transport they share
type Manager struct {
	sync.RWMutex // guards the fields below
	caches       map[string]*Cache
	members      []string
	started      bool

	log        *logger.L
	address    string
	transport  remoting.Transport // nil: standalone
	marshaller *marshal.Marshaller
	rpc        *remoting.RPCManager
	handler    *remoting.InboundHandler
	tm         transaction.Manager
	registerer prometheus.Registerer
}

// NewMarshaller - a marshaller knowing every grid type plus anything
// the extra functions register
func NewMarshaller(extra ...func(r *marshal.Registry)) *marshal.Marshaller {
	r := marshal.NewRegistry()
	entry.RegisterExternalizers(r)
	transaction.RegisterExternalizers(r)
	atomicmap.RegisterExternalizers(r)
	commands.RegisterExternalizers(r)
	remoting.RegisterExternalizers(r)
	for _, register := range extra {
		register(r)
	}
	return marshal.New(r)
}

// NewManager - create a manager; a nil transport allows local caches
// only and a nil tm non-transactional caches only
func NewManager(log *logger.L, transport remoting.Transport, tm transaction.Manager, m *marshal.Marshaller, options Options) *Manager {
	address := StandaloneAddress
	if nil != transport {
		address = transport.Address()
	}
	manager := &Manager{
		caches:     make(map[string]*Cache),
		members:    []string{address},
		log:        log,
		address:    address,
		transport:  transport,
		marshaller: m,
		tm:         tm,
		registerer: options.Registerer,
	}
	if nil != transport {
		manager.rpc = remoting.NewRPCManager(log, transport, m, options.SyncReplTimeout)
		manager.handler = remoting.NewInboundHandler(log, m, manager, options.MaximumRequestRate)
	}
	return manager
}

// Start - begin receiving requests from other members
func (m *Manager) Start() error {
	m.Lock()
	if m.started {
		m.Unlock()
		return fault.ErrAlreadyInitialised
	}
	m.started = true
	m.Unlock()

	if nil == m.transport {
		return nil
	}
	m.transport.SetHandler(m.handler)
	if err := m.transport.Start(); nil != err {
		m.log.Errorf("start transport error: %s", err)
		return err
	}
	m.UpdateMembers(m.transport.Members())
	m.log.Infof("member: %s  started", m.address)
	return nil
}

// Stop - stop every cache, then the transport
func (m *Manager) Stop() {
	m.Lock()
	caches := make([]*Cache, 0, len(m.caches))
	for _, c := range m.caches {
		caches = append(caches, c)
	}
	m.started = false
	m.Unlock()

	for _, c := range caches {
		c.stop()
	}
	if nil != m.transport {
		if err := m.transport.Stop(); nil != err {
			m.log.Warnf("stop transport error: %s", err)
		}
	}
	m.log.Infof("member: %s  stopped", m.address)
}

// Address - of this member
func (m *Manager) Address() string {
	return m.address
}

// Marshaller - shared by every cache
func (m *Manager) Marshaller() *marshal.Marshaller {
	return m.marshaller
}

// TransactionManager - nil if there is none
func (m *Manager) TransactionManager() transaction.Manager {
	return m.tm
}

// RPC - nil if standalone
func (m *Manager) RPC() *remoting.RPCManager {
	return m.rpc
}

// Handler - nil if standalone
func (m *Manager) Handler() *remoting.InboundHandler {
	return m.handler
}

// DefineCache - create and start a cache
func (m *Manager) DefineCache(name string, config Configuration) (*Cache, error) {
	if err := config.Validate(); nil != err {
		return nil, err
	}
	if config.Mode.IsClustered() && nil == m.rpc {
		return nil, fault.ErrNotConnected
	}
	if config.Transactional && nil == m.tm {
		return nil, fault.ErrNotInitialised
	}

	m.Lock()
	defer m.Unlock()

	if _, ok := m.caches[name]; ok {
		return nil, fault.ErrCacheAlreadyDefined
	}

	c, err := newCache(m, name, config)
	if nil != err {
		return nil, err
	}
	if nil != m.registerer {
		if err := c.metrics.Register(m.registerer); nil != err {
			m.log.Warnf("cache: %s  register metrics error: %s", name, err)
		}
	}
	c.start()
	m.caches[name] = c
	return c, nil
}

// GetCache - a defined cache
func (m *Manager) GetCache(name string) (*Cache, error) {
	m.RLock()
	defer m.RUnlock()

	c, ok := m.caches[name]
	if !ok {
		return nil, fault.ErrCacheNotFound
	}
	return c, nil
}

// RemoveCache - stop a cache and forget it
func (m *Manager) RemoveCache(name string) error {
	m.Lock()
	c, ok := m.caches[name]
	delete(m.caches, name)
	m.Unlock()

	if !ok {
		return fault.ErrCacheNotFound
	}
	c.stop()
	if nil != m.registerer {
		c.metrics.Unregister(m.registerer)
	}
	return nil
}

// CacheNames - sorted names of the defined caches
func (m *Manager) CacheNames() []string {
	m.RLock()
	defer m.RUnlock()

	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory - command factory of a running cache, used by the inbound
// handler
func (m *Manager) Factory(name string) (*commands.Factory, bool) {
	m.RLock()
	c, ok := m.caches[name]
	m.RUnlock()

	if !ok || !c.IsRunning() {
		return nil, false
	}
	return c.factory, true
}

// Members - the current cluster view, this member included
func (m *Manager) Members() []string {
	m.RLock()
	defer m.RUnlock()
	return append([]string{}, m.members...)
}

// UpdateMembers - install a new cluster view; this member is always
// part of it
func (m *Manager) UpdateMembers(members []string) {
	seen := map[string]struct{}{
		m.address: {},
	}
	view := []string{m.address}
	for _, member := range members {
		if _, ok := seen[member]; !ok {
			seen[member] = struct{}{}
			view = append(view, member)
		}
	}
	sort.Strings(view)

	m.Lock()
	m.members = view
	caches := make([]*Cache, 0, len(m.caches))
	for _, c := range m.caches {
		caches = append(caches, c)
	}
	m.Unlock()

	for _, c := range caches {
		if nil != c.hash {
			c.hash.SetMembers(view)
		}
	}
	m.log.Debugf("members: %v", view)
}

// Reconfigure - apply new replication queue tuning to a cache
func (m *Manager) Reconfigure(name string, interval time.Duration, maxElements int) error {
	c, err := m.GetCache(name)
	if nil != err {
		return err
	}
	if nil != c.queue {
		c.queue.Reconfigure(interval, maxElements)
	}
	return nil
}
