// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"context"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/util"
)

// receives asynchronous requests from the publishers of every peer
//
// the SUB socket is owned by the polling goroutine, peer changes are
// handed over through pending and a signal
type subscriber struct {
	sync.Mutex
	log       *logger.L
	t         *Transport
	push      *zmq.Socket // signal send, guarded by the mutex
	pull      *zmq.Socket // signal receive
	socket    *zmq.Socket
	pending   []Peer
	connected map[string]string // address → publisher endpoint
}

func newSubscriber(log *logger.L, t *Transport) (*subscriber, error) {
	push, pull, err := newSignalPair("subscriber")
	if nil != err {
		return nil, err
	}

	socket, err := zmq.NewSocket(zmq.SUB)
	if nil != err {
		goto failure
	}
	if err = configureClient(socket, t.config.PrivateKey, t.config.PublicKey); nil != err {
		socket.Close()
		goto failure
	}
	if err = socket.SetIpv6(true); nil != err {
		socket.Close()
		goto failure
	}

	// the topic is the target address
	if err = socket.SetSubscribe(t.Address()); nil != err {
		socket.Close()
		goto failure
	}

	return &subscriber{
		log:       log,
		t:         t,
		push:      push,
		pull:      pull,
		socket:    socket,
		connected: make(map[string]string),
	}, nil

failure:
	push.Close()
	pull.Close()
	return nil, err
}

// hand the current peers to the polling goroutine
func (s *subscriber) update(peers []Peer) {
	s.Lock()
	defer s.Unlock()
	s.pending = peers
	if nil != s.push {
		_, _ = s.push.SendMessage(signalUpdate)
	}
}

// Run - background process, the sockets are closed before it returns
func (s *subscriber) Run(_ interface{}, shutdown <-chan struct{}) {
	log := s.log
	log.Info("starting…")

	done := make(chan struct{})
	go func() {
		defer close(done)

		s.reconnect()

		poller := zmq.NewPoller()
		poller.Add(s.socket, zmq.POLLIN)
		poller.Add(s.pull, zmq.POLLIN)
	loop:
		for {
			sockets, err := poller.Poll(-1)
			if nil != err {
				log.Errorf("poll error: %s", err)
				continue loop
			}
			for _, socket := range sockets {
				switch socket.Socket {
				case s.socket:
					s.process()
				case s.pull:
					data, _ := s.pull.RecvMessage(0)
					if 1 == len(data) && signalUpdate == data[0] {
						s.reconnect()
						continue
					}
					break loop
				}
			}
		}
		s.pull.Close()
		s.socket.Close()
	}()

	<-shutdown
	log.Info("shutting down…")
	s.Lock()
	_, _ = s.push.SendMessage(signalStop)
	s.push.Close()
	s.push = nil
	s.Unlock()
	<-done
	log.Info("stopped")
}

// bring the connections in line with the pending peers
func (s *subscriber) reconnect() {
	s.Lock()
	peers := s.pending
	s.Unlock()

	wanted := make(map[string]Peer)
	for _, peer := range peers {
		if "" != peer.Broadcast && peer.Address != s.t.Address() {
			wanted[peer.Address] = peer
		}
	}

	for address, endpoint := range s.connected {
		if peer, ok := wanted[address]; ok {
			if e, err := util.ZmqAddress(peer.Broadcast); nil == err && e == endpoint {
				continue
			}
		}
		if err := s.socket.Disconnect(endpoint); nil != err {
			s.log.Warnf("disconnect: %q  error: %s", endpoint, err)
		}
		delete(s.connected, address)
	}

	for address, peer := range wanted {
		if _, ok := s.connected[address]; ok {
			continue
		}
		endpoint, err := util.ZmqAddress(peer.Broadcast)
		if nil != err {
			s.log.Warnf("member: %s  broadcast: %q  error: %s", address, peer.Broadcast, err)
			continue
		}
		if err := s.socket.SetCurveServerkey(string(peer.PublicKey)); nil != err {
			s.log.Warnf("member: %s  key error: %s", address, err)
			continue
		}
		if err := s.socket.Connect(endpoint); nil != err {
			s.log.Warnf("connect: %q  error: %s", endpoint, err)
			continue
		}
		s.log.Infof("subscribed to member: %s  at: %q", address, endpoint)
		s.connected[address] = endpoint
	}
}

func (s *subscriber) process() {
	data, err := s.socket.RecvMessageBytes(0)
	if nil != err {
		s.log.Errorf("receive error: %s", err)
		return
	}

	// the subscription is a prefix match, the topic must be exact
	if 3 != len(data) || string(data[0]) != s.t.Address() {
		return
	}
	if h := s.t.currentHandler(); nil != h {
		h.Handle(context.Background(), string(data[1]), data[2])
	}
}

// release the sockets of a subscriber that never ran
func (s *subscriber) close() {
	s.push.Close()
	s.pull.Close()
	s.socket.Close()
}
