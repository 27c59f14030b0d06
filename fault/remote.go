// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// Class - error class code carried in an exception response
type Class byte

// error class codes - these are part of the wire format
const (
	ClassGeneric     Class = 0
	ClassExists      Class = 1
	ClassInvalid     Class = 2
	ClassMarshal     Class = 3
	ClassNotFound    Class = 4
	ClassProcess     Class = 5
	ClassState       Class = 6
	ClassTimeout     Class = 7
	ClassTransaction Class = 8
	ClassReplay      Class = 9
)

// ClassOf - determine the wire class of an error
func ClassOf(e error) Class {
	switch {
	case nil == e:
		return ClassGeneric
	case IsErrReplay(e):
		return ClassReplay
	case IsErrExists(e):
		return ClassExists
	case IsErrInvalid(e):
		return ClassInvalid
	case IsErrMarshal(e):
		return ClassMarshal
	case IsErrNotFound(e):
		return ClassNotFound
	case IsErrProcess(e):
		return ClassProcess
	case IsErrState(e):
		return ClassState
	case IsErrTimeout(e):
		return ClassTimeout
	case IsErrTransaction(e):
		return ClassTransaction
	}
	return ClassGeneric
}

// RemoteError - an error raised on another node
type RemoteError struct {
	Origin string
	cause  error
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Origin + ": " + e.cause.Error()
}

func (e *RemoteError) Unwrap() error { return e.cause }

// NewRemoteError - rebuild an error of the same class as the remote one
func NewRemoteError(origin string, class Class, message string) error {
	var cause error
	switch class {
	case ClassExists:
		cause = ExistsError(message)
	case ClassInvalid:
		cause = InvalidError(message)
	case ClassMarshal:
		cause = MarshalError(message)
	case ClassNotFound:
		cause = NotFoundError(message)
	case ClassProcess:
		cause = ProcessError(message)
	case ClassState:
		cause = StateError(message)
	case ClassTimeout:
		cause = TimeoutError(message)
	case ClassTransaction:
		cause = TransactionError(message)
	case ClassReplay:
		cause = &ReplayFailure{Index: -1, Applied: -1, Err: GenericError(message)}
	default:
		cause = GenericError(message)
	}
	return &RemoteError{
		Origin: origin,
		cause:  cause,
	}
}
