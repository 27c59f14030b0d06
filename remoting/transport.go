// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting

import (
	"context"
)

// Handler - receives the payload of a request, returns the payload of
// the response
type Handler interface {
	Handle(ctx context.Context, origin string, payload []byte) []byte
}

// Reply - the result of a synchronous send to one member
type Reply struct {
	Address string
	Payload []byte
	Err     error
}

// Transport - the network seen by a member
type Transport interface {
	// address of this member
	Address() string

	// every reachable member including this one, sorted
	Members() []string

	// deliver to every target and wait for the replies, a target
	// that does not answer before ctx is done has ctx.Err() in its
	// Reply; the error is only for a send that could not start
	Send(ctx context.Context, targets []string, payload []byte) ([]Reply, error)

	// deliver without waiting, payloads from one sender arrive at a
	// target in the order they were sent
	SendAsync(targets []string, payload []byte) error

	SetHandler(h Handler)
	Start() error
	Stop() error
}
