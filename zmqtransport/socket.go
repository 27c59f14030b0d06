// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"strings"
	"sync"
	"time"

	"github.com/pborman/uuid"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/util"
)

const (
	zapDomain = "gridd"

	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second

	signalStop   = "stop"
	signalUpdate = "update"
)

var oneTimeAuthStart sync.Once

// start the ZAP handler once for the process
func startAuthentication() error {
	err := error(nil)
	oneTimeAuthStart.Do(func() {
		zmq.AuthSetVerbose(false)
		err = zmq.AuthStart()
		if nil == err {
			zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)
		}
	})
	return err
}

// connected push/pull pair on a fresh inproc endpoint, used to wake a
// polling goroutine
func newSignalPair(name string) (*zmq.Socket, *zmq.Socket, error) {
	endpoint := "inproc://gridd-" + name + "-" + uuid.NewRandom().String()

	push, err := zmq.NewSocket(zmq.PUSH)
	if nil != err {
		return nil, nil, err
	}
	_ = push.SetLinger(0)
	if err := push.Bind(endpoint); nil != err {
		push.Close()
		return nil, nil, err
	}

	pull, err := zmq.NewSocket(zmq.PULL)
	if nil != err {
		push.Close()
		return nil, nil, err
	}
	_ = pull.SetLinger(0)
	if err := pull.Connect(endpoint); nil != err {
		push.Close()
		pull.Close()
		return nil, nil, err
	}
	return push, pull, nil
}

// CURVE server socket bound to every address
func newBind(log *logger.L, socketType zmq.Type, privateKey []byte, publicKey []byte, addresses []string) (*zmq.Socket, error) {
	endpoints := make([]string, len(addresses))
	v6 := false
	for i, address := range addresses {
		endpoint, err := util.ZmqAddress(address)
		if nil != err {
			return nil, err
		}
		endpoints[i] = endpoint
		v6 = v6 || strings.HasPrefix(endpoint, "tcp://[")
	}

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	err = configureServer(socket, privateKey, publicKey, v6)
	if nil != err {
		goto failure
	}

	for i, endpoint := range endpoints {
		err = socket.Bind(endpoint)
		if nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, endpoint, err)
			goto failure
		}
		log.Infof("bind[%d]: %q", i, endpoint)
	}
	return socket, nil

failure:
	socket.Close()
	return nil, err
}

func configureServer(socket *zmq.Socket, privateKey []byte, publicKey []byte, v6 bool) error {
	if err := socket.SetCurveServer(1); nil != err {
		return err
	}
	if err := socket.SetCurveSecretkey(string(privateKey)); nil != err {
		return err
	}
	if err := socket.SetZapDomain(zapDomain); nil != err {
		return err
	}
	if err := socket.SetIdentity(string(publicKey)); nil != err {
		return err
	}
	if err := socket.SetIpv6(v6); nil != err {
		return err
	}
	if err := socket.SetLinger(0); nil != err {
		return err
	}
	return setHeartbeat(socket)
}

// CURVE client side keys, the server key is set before each connect
func configureClient(socket *zmq.Socket, privateKey []byte, publicKey []byte) error {
	if err := socket.SetCurveServer(0); nil != err {
		return err
	}
	if err := socket.SetCurvePublickey(string(publicKey)); nil != err {
		return err
	}
	if err := socket.SetCurveSecretkey(string(privateKey)); nil != err {
		return err
	}
	if err := socket.SetLinger(0); nil != err {
		return err
	}
	return setHeartbeat(socket)
}

// heartbeats need zmq 4.2, older libraries run without them
func setHeartbeat(socket *zmq.Socket) error {
	if err := socket.SetHeartbeatIvl(heartbeatInterval); nil != err && zmq.ErrorNotImplemented42 != err {
		return err
	}
	if err := socket.SetHeartbeatTimeout(heartbeatTimeout); nil != err && zmq.ErrorNotImplemented42 != err {
		return err
	}
	if err := socket.SetHeartbeatTtl(heartbeatTTL); nil != err && zmq.ErrorNotImplemented42 != err {
		return err
	}
	return nil
}
