// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"syscall"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
)

const identifierSize = 32

// REQ connection to the listener of one member
//
// a zmq socket is not safe for concurrent use, calls to one member are
// serialised by the mutex
type client struct {
	sync.Mutex
	privateKey []byte
	publicKey  []byte
	serverKey  []byte
	endpoint   string
	socket     *zmq.Socket
}

func newClient(privateKey []byte, publicKey []byte, peer Peer) (*client, error) {
	if keySize != len(peer.PublicKey) {
		return nil, fault.ErrInvalidPublicKey
	}
	endpoint, err := util.ZmqAddress(peer.Address)
	if nil != err {
		return nil, err
	}
	return &client{
		privateKey: privateKey,
		publicKey:  publicKey,
		serverKey:  peer.PublicKey,
		endpoint:   endpoint,
	}, nil
}

func (c *client) open() error {
	socket, err := zmq.NewSocket(zmq.REQ)
	if nil != err {
		return err
	}

	identifier := make([]byte, identifierSize)
	if _, err = rand.Read(identifier); nil != err {
		goto failure
	}

	if err = configureClient(socket, c.privateKey, c.publicKey); nil != err {
		goto failure
	}
	if err = socket.SetIdentity(string(identifier)); nil != err {
		goto failure
	}
	if err = socket.SetCurveServerkey(string(c.serverKey)); nil != err {
		goto failure
	}

	// a timed out request must not block the next one
	if err = socket.SetReqCorrelate(1); nil != err {
		goto failure
	}
	if err = socket.SetReqRelaxed(1); nil != err {
		goto failure
	}
	if err = socket.SetIpv6(strings.HasPrefix(c.endpoint, "tcp://[")); nil != err {
		goto failure
	}
	if err = socket.Connect(c.endpoint); nil != err {
		goto failure
	}

	c.socket = socket
	return nil

failure:
	socket.Close()
	return err
}

// send one request and wait for its reply until ctx is done, timeout
// is used when ctx has no deadline
func (c *client) call(ctx context.Context, origin string, payload []byte, timeout time.Duration) ([]byte, error) {
	c.Lock()
	defer c.Unlock()

	if nil == c.socket {
		if err := c.open(); nil != err {
			return nil, err
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	if err := c.socket.SetSndtimeo(timeout); nil != err {
		return nil, err
	}
	if err := c.socket.SetRcvtimeo(timeout); nil != err {
		return nil, err
	}

	if _, err := c.socket.SendMessage(origin, payload); nil != err {
		return nil, c.failed(err)
	}
	data, err := c.socket.RecvMessageBytes(0)
	if nil != err {
		return nil, c.failed(err)
	}
	if 1 != len(data) {
		return nil, fault.ErrMalformedStream
	}
	return data[0], nil
}

// a timeout leaves the socket usable, anything else closes it so the
// next call reconnects
func (c *client) failed(err error) error {
	if zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN) {
		return context.DeadlineExceeded
	}
	c.closeSocket()
	return err
}

func (c *client) closeSocket() {
	if nil == c.socket {
		return
	}
	_ = c.socket.Close()
	c.socket = nil
}

func (c *client) close() {
	c.Lock()
	c.closeSocket()
	c.Unlock()
}
