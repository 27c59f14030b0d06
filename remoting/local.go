// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/gridd/fault"
)

const (
	localInboxSize = 1000
)

// LocalNetwork - members of a cluster inside one process
type LocalNetwork struct {
	sync.RWMutex
	members map[string]*LocalTransport
}

// NewLocalNetwork - an empty network
func NewLocalNetwork() *LocalNetwork {
	return &LocalNetwork{
		members: make(map[string]*LocalTransport),
	}
}

// Join - transport of a new member, replacing any previous member at
// the same address
func (n *LocalNetwork) Join(address string) *LocalTransport {
	t := &LocalTransport{
		network: n,
		address: address,
	}
	n.Lock()
	n.members[address] = t
	n.Unlock()
	return t
}

// Leave - remove a member, it can no longer be reached
func (n *LocalNetwork) Leave(address string) {
	n.Lock()
	delete(n.members, address)
	n.Unlock()
}

func (n *LocalNetwork) lookup(address string) (*LocalTransport, bool) {
	n.RLock()
	defer n.RUnlock()
	t, ok := n.members[address]
	return t, ok
}

func (n *LocalNetwork) addresses() []string {
	n.RLock()
	defer n.RUnlock()
	result := make([]string, 0, len(n.members))
	for address := range n.members {
		result = append(result, address)
	}
	sort.Strings(result)
	return result
}

type delivery struct {
	origin  string
	payload []byte
}

// LocalTransport - one member of a LocalNetwork
type LocalTransport struct {
	sync.RWMutex
	network *LocalNetwork
	address string
	handler Handler
	running bool
	inbox   chan delivery
	done    chan struct{}
	wg      sync.WaitGroup
}

// Address - of this member
func (t *LocalTransport) Address() string {
	return t.address
}

// Members - every member of the network
func (t *LocalTransport) Members() []string {
	return t.network.addresses()
}

// SetHandler - receiver of requests
func (t *LocalTransport) SetHandler(h Handler) {
	t.Lock()
	t.handler = h
	t.Unlock()
}

// Start - begin accepting requests
func (t *LocalTransport) Start() error {
	t.Lock()
	defer t.Unlock()

	if t.running {
		return fault.ErrAlreadyInitialised
	}
	t.running = true
	t.inbox = make(chan delivery, localInboxSize)
	t.done = make(chan struct{})

	t.wg.Add(1)
	go t.receive(t.inbox, t.done)
	return nil
}

// Stop - stop accepting requests, asynchronous requests already
// queued are discarded
func (t *LocalTransport) Stop() error {
	t.Lock()
	if !t.running {
		t.Unlock()
		return nil
	}
	t.running = false
	close(t.done)
	t.Unlock()

	t.wg.Wait()
	return nil
}

// performs asynchronous deliveries one at a time in arrival order
func (t *LocalTransport) receive(inbox <-chan delivery, done <-chan struct{}) {
	defer t.wg.Done()
	for {
		select {
		case <-done:
			return
		case d := <-inbox:
			if h := t.currentHandler(); nil != h {
				h.Handle(context.Background(), d.origin, d.payload)
			}
		}
	}
}

func (t *LocalTransport) currentHandler() Handler {
	t.RLock()
	defer t.RUnlock()
	if !t.running {
		return nil
	}
	return t.handler
}

// Send - deliver to every target in parallel and collect the replies
// in target order
func (t *LocalTransport) Send(ctx context.Context, targets []string, payload []byte) ([]Reply, error) {
	replies := make([]Reply, len(targets))

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

func (t *LocalTransport) call(ctx context.Context, target string, payload []byte) Reply {
	reply := Reply{
		Address: target,
	}

	remote, ok := t.network.lookup(target)
	if !ok {
		reply.Err = fault.ErrNotConnected
		return reply
	}
	h := remote.currentHandler()
	if nil == h {
		reply.Err = fault.ErrNotConnected
		return reply
	}

	response := make(chan []byte, 1)
	go func() {
		response <- h.Handle(ctx, t.address, payload)
	}()

	select {
	case reply.Payload = <-response:
	case <-ctx.Done():
		reply.Err = ctx.Err()
	}
	return reply
}

// SendAsync - queue for every target, targets that are not running
// are skipped
func (t *LocalTransport) SendAsync(targets []string, payload []byte) error {
	for _, target := range targets {
		remote, ok := t.network.lookup(target)
		if !ok {
			continue
		}
		remote.enqueue(delivery{
			origin:  t.address,
			payload: payload,
		})
	}
	return nil
}

func (t *LocalTransport) enqueue(d delivery) {
	t.RLock()
	inbox, done, running := t.inbox, t.done, t.running
	t.RUnlock()

	if !running {
		return
	}
	select {
	case inbox <- d:
	case <-done:
	}
}
