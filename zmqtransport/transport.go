// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"context"
	"sort"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/background"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/remoting"
	"github.com/bitmark-inc/gridd/util"
)

const (
	defaultTimeout = 10 * time.Second
)

// Peer - how to reach another member
type Peer struct {
	Address   string // IP:port of its listener, also its member address
	Broadcast string // IP:port of its publisher
	PublicKey []byte
}

// Configuration - the sockets of this member
type Configuration struct {
	Address    string   // announced listener address
	Listen     []string // listener bind addresses
	Publish    []string // publisher bind addresses
	PrivateKey []byte
	PublicKey  []byte
	Timeout    time.Duration // synchronous request limit when ctx has none
}

// Transport - remoting.Transport over ZeroMQ
type Transport struct {
	sync.RWMutex
	log     *logger.L
	config  Configuration
	address string
	handler remoting.Handler
	peers   map[string]Peer
	clients map[string]*client

	publishLock sync.Mutex
	publisher   *zmq.Socket

	subscriber *subscriber
	processes  *background.T
	running    bool
}

// New - a stopped transport
func New(log *logger.L, config Configuration) (*Transport, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if keySize != len(config.PrivateKey) {
		return nil, fault.ErrInvalidPrivateKey
	}
	if keySize != len(config.PublicKey) {
		return nil, fault.ErrInvalidPublicKey
	}
	address, err := util.CanonicalIPandPort(config.Address)
	if nil != err {
		return nil, err
	}
	if 0 == len(config.Listen) {
		config.Listen = []string{address}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	return &Transport{
		log:     log,
		config:  config,
		address: address,
		peers:   make(map[string]Peer),
		clients: make(map[string]*client),
	}, nil
}

// Address - of this member
func (t *Transport) Address() string {
	return t.address
}

// Members - this member and every known peer, sorted
func (t *Transport) Members() []string {
	t.RLock()
	defer t.RUnlock()

	members := make([]string, 0, len(t.peers)+1)
	members = append(members, t.address)
	for address := range t.peers {
		members = append(members, address)
	}
	sort.Strings(members)
	return members
}

// Peers - the known peers sorted by address
func (t *Transport) Peers() []Peer {
	t.RLock()
	defer t.RUnlock()
	return t.peerList()
}

func (t *Transport) peerList() []Peer {
	peers := make([]Peer, 0, len(t.peers))
	for _, p := range t.peers {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Address < peers[j].Address
	})
	return peers
}

// SetPeers - replace the known peers, this member is skipped
//
// connections to members that left are closed
func (t *Transport) SetPeers(peers []Peer) {
	t.Lock()

	current := make(map[string]Peer)
	for _, p := range peers {
		address, err := util.CanonicalIPandPort(p.Address)
		if nil != err {
			t.log.Warnf("peer: %q  error: %s", p.Address, err)
			continue
		}
		if address == t.address {
			continue
		}
		p.Address = address
		current[address] = p
	}

	for address, c := range t.clients {
		if p, ok := current[address]; !ok || string(p.PublicKey) != string(c.serverKey) {
			c.close()
			delete(t.clients, address)
		}
	}
	t.peers = current
	list := t.peerList()
	s := t.subscriber
	t.Unlock()

	if nil != s {
		s.update(list)
	}
}

// SetHandler - receiver of requests
func (t *Transport) SetHandler(h remoting.Handler) {
	t.Lock()
	t.handler = h
	t.Unlock()
}

func (t *Transport) currentHandler() remoting.Handler {
	t.RLock()
	defer t.RUnlock()
	return t.handler
}

// Start - bind the listener and publisher and start receiving
func (t *Transport) Start() error {
	t.Lock()
	defer t.Unlock()

	if t.running {
		return fault.ErrAlreadyInitialised
	}

	if err := startAuthentication(); nil != err {
		return err
	}

	l, err := newListener(logger.New("zmq-listener"), t)
	if nil != err {
		return err
	}

	s, err := newSubscriber(logger.New("zmq-subscriber"), t)
	if nil != err {
		l.close()
		return err
	}
	s.pending = t.peerList()

	if 0 != len(t.config.Publish) {
		publisher, err := newBind(t.log, zmq.PUB, t.config.PrivateKey, t.config.PublicKey, t.config.Publish)
		if nil != err {
			l.close()
			s.close()
			return err
		}
		t.publishLock.Lock()
		t.publisher = publisher
		t.publishLock.Unlock()
	}

	t.subscriber = s
	t.processes = background.Start(background.Processes{l, s}, nil)
	t.running = true
	t.log.Infof("started: %s", t.address)
	return nil
}

// Stop - stop receiving and close every socket
func (t *Transport) Stop() error {
	t.Lock()
	if !t.running {
		t.Unlock()
		return nil
	}
	t.running = false
	processes := t.processes
	t.processes = nil
	t.subscriber = nil
	t.Unlock()

	processes.Stop()

	t.Lock()
	for address, c := range t.clients {
		c.close()
		delete(t.clients, address)
	}
	t.Unlock()

	t.publishLock.Lock()
	if nil != t.publisher {
		t.publisher.Close()
		t.publisher = nil
	}
	t.publishLock.Unlock()

	t.log.Info("stopped")
	return nil
}

// Send - request every target in parallel, the replies are in target
// order
func (t *Transport) Send(ctx context.Context, targets []string, payload []byte) ([]remoting.Reply, error) {
	replies := make([]remoting.Reply, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			replies[i] = t.call(ctx, target, payload)
			return nil
		})
	}

	// a late member has its own timeout in its Reply, the replies
	// that did arrive are kept
	err := g.Wait()
	return replies, err
}

func (t *Transport) call(ctx context.Context, target string, payload []byte) remoting.Reply {
	reply := remoting.Reply{
		Address: target,
	}

	c, err := t.client(target)
	if nil != err {
		reply.Err = err
		return reply
	}
	reply.Payload, reply.Err = c.call(ctx, t.address, payload, t.config.Timeout)
	if nil != reply.Err {
		t.log.Debugf("member: %s  error: %s", target, reply.Err)
	}
	return reply
}

func (t *Transport) client(target string) (*client, error) {
	t.Lock()
	defer t.Unlock()

	if !t.running {
		return nil, fault.ErrNotConnected
	}
	if c, ok := t.clients[target]; ok {
		return c, nil
	}
	p, ok := t.peers[target]
	if !ok {
		return nil, fault.ErrNotConnected
	}
	c, err := newClient(t.config.PrivateKey, t.config.PublicKey, p)
	if nil != err {
		return nil, err
	}
	t.clients[target] = c
	return c, nil
}

// SendAsync - publish once per target, subscribers keep only their own
func (t *Transport) SendAsync(targets []string, payload []byte) error {
	t.publishLock.Lock()
	defer t.publishLock.Unlock()

	if nil == t.publisher {
		return fault.ErrNotConnected
	}
	for _, target := range targets {
		if target == t.address {
			continue
		}
		if _, err := t.publisher.SendMessage(target, t.address, payload); nil != err {
			return err
		}
	}
	return nil
}
