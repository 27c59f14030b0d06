// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package remoting moves commands between members of the cluster.
//
// outbound: RPCManager wraps a command in a Request, marshals it and
// hands it to a Transport, synchronously (waiting for one Response
// per target) or asynchronously.
//
// inbound: InboundHandler decodes a Request, initialises its command
// for the named cache, performs it with a remote invocation context
// and marshals the Response.  Every request is handled in isolation,
// a malformed stream, a failing command or a panic only produces an
// ExceptionResponse.
//
// wire form of the envelope:
//
//	Request:              uuid bytes, command object
//	SuccessfulResponse:   value object
//	ExceptionResponse:    class byte, message string
//	UnsuccessfulResponse: reason string
package remoting
