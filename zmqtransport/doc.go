// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqtransport - cluster transport over ZeroMQ
//
// every member binds a REP socket for synchronous requests and a PUB
// socket for asynchronous ones; all traffic is CURVE encrypted
//
// request (REQ → REP):
//
//	[origin address] [payload]
//
// reply:
//
//	[payload]
//
// asynchronous (PUB → SUB), the subscriber takes only frames whose
// topic is its own address:
//
//	[target address] [origin address] [payload]
//
// a member is known by the address of its REP socket, the peers
// together with their publisher addresses and public keys are supplied
// by discovery through SetPeers
package zmqtransport
