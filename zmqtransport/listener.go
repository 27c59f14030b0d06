// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"context"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"
)

// answers synchronous requests one at a time
type listener struct {
	log    *logger.L
	t      *Transport
	push   *zmq.Socket // signal send
	pull   *zmq.Socket // signal receive
	socket *zmq.Socket
}

func newListener(log *logger.L, t *Transport) (*listener, error) {
	push, pull, err := newSignalPair("listener")
	if nil != err {
		return nil, err
	}

	socket, err := newBind(log, zmq.REP, t.config.PrivateKey, t.config.PublicKey, t.config.Listen)
	if nil != err {
		push.Close()
		pull.Close()
		return nil, err
	}

	return &listener{
		log:    log,
		t:      t,
		push:   push,
		pull:   pull,
		socket: socket,
	}, nil
}

// Run - background process, the sockets are closed before it returns
func (l *listener) Run(_ interface{}, shutdown <-chan struct{}) {
	log := l.log
	log.Info("starting…")

	done := make(chan struct{})
	go func() {
		defer close(done)

		poller := zmq.NewPoller()
		poller.Add(l.socket, zmq.POLLIN)
		poller.Add(l.pull, zmq.POLLIN)
	loop:
		for {
			sockets, err := poller.Poll(-1)
			if nil != err {
				log.Errorf("poll error: %s", err)
				continue loop
			}
			for _, socket := range sockets {
				switch s := socket.Socket; s {
				case l.socket:
					l.process()
				case l.pull:
					_, _ = s.RecvMessageBytes(0)
					break loop
				}
			}
		}
		l.pull.Close()
		l.socket.Close()
	}()

	<-shutdown
	log.Info("shutting down…")
	_, _ = l.push.SendMessage(signalStop)
	<-done
	l.push.Close()
	log.Info("stopped")
}

func (l *listener) process() {
	log := l.log

	data, err := l.socket.RecvMessageBytes(0)
	if nil != err {
		log.Errorf("receive error: %s", err)
		return
	}

	// REP must answer every request, a malformed one gets an empty
	// reply which the sender cannot decode
	response := []byte{}
	if 2 != len(data) {
		log.Warnf("ignoring request with %d frames", len(data))
	} else if h := l.t.currentHandler(); nil == h {
		log.Warn("no handler")
	} else {
		response = h.Handle(context.Background(), string(data[0]), data[1])
	}

	if _, err := l.socket.SendBytes(response, 0); nil != err {
		log.Errorf("send error: %s", err)
	}
}

// release the sockets of a listener that never ran
func (l *listener) close() {
	l.push.Close()
	l.pull.Close()
	l.socket.Close()
}
