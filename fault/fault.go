// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type MarshalError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type StateError GenericError
type TimeoutError GenericError
type TransactionError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised      = ExistsError("already initialised")
	ErrAlreadyRegistered       = ExistsError("type id already registered")
	ErrCacheAlreadyDefined     = ExistsError("cache already defined")
	ErrCacheNotFound           = NotFoundError("cache not found")
	ErrConfigDirPath           = InvalidError("config is not a folder")
	ErrExpiryInPast            = InvalidError("expiry time is in the past")
	ErrInvalidCacheMode        = InvalidError("invalid cache mode")
	ErrInvalidCommand          = InvalidError("invalid command")
	ErrInvalidDnsTxtRecord     = InvalidError("invalid node DNS TXT record")
	ErrInvalidFqn              = InvalidError("invalid fully qualified name")
	ErrInvalidIPAddress        = InvalidError("invalid IP address")
	ErrInvalidKey              = InvalidError("invalid key")
	ErrInvalidLoggerChannel    = InvalidError("invalid logger channel")
	ErrInvalidNodeDomain       = InvalidError("invalid node domain")
	ErrInvalidPortNumber       = InvalidError("invalid port number")
	ErrInvalidPrivateKey       = InvalidError("invalid private key")
	ErrInvalidPrivateKeyFile   = InvalidError("invalid private key file")
	ErrInvalidPublicKey        = InvalidError("invalid public key")
	ErrInvalidPublicKeyFile    = InvalidError("invalid public key file")
	ErrInvalidStructPointer    = InvalidError("invalid struct pointer")
	ErrInvalidTypeID           = InvalidError("type id outside registrable range")
	ErrKeyFileAlreadyExists    = ExistsError("key file already exists")
	ErrMalformedStream         = MarshalError("malformed stream")
	ErrNoInvocationContext     = StateError("no invocation context associated")
	ErrNotAtomicMap            = InvalidError("value is not an atomic map")
	ErrNotConnected            = ProcessError("not connected")
	ErrNotInitialised          = StateError("not initialised")
	ErrNotMarshallable         = MarshalError("value is not marshallable")
	ErrNotRunning              = StateError("cache is not running")
	ErrRateLimiting            = ProcessError("rate limiting")
	ErrReplicationFailed       = ProcessError("replication failed")
	ErrReplicationTimeout      = TimeoutError("replication timeout")
	ErrTransactionAlreadyBegun = TransactionError("transaction already associated")
	ErrTransactionNotActive    = StateError("transaction is not active")
	ErrTransactionNotFound     = NotFoundError("transaction not found")
	ErrTransactionRolledBack   = TransactionError("transaction rolled back")
	ErrUnrecognisedType        = MarshalError("unrecognised type")
	ErrUnsupportedVersion      = MarshalError("unsupported stream version")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string      { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e MarshalError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e ProcessError) Error() string     { return string(e) }
func (e StateError) Error() string       { return string(e) }
func (e TimeoutError) Error() string     { return string(e) }
func (e TransactionError) Error() string { return string(e) }

// determine the class of an error
//
// wrapped errors are unwrapped, so a cause carried inside a
// ReplayFailure or a fmt.Errorf("%w") still classifies correctly
func IsErrExists(e error) bool {
	var x ExistsError
	return errors.As(e, &x)
}
func IsErrInvalid(e error) bool {
	var x InvalidError
	return errors.As(e, &x)
}
func IsErrMarshal(e error) bool {
	var x MarshalError
	return errors.As(e, &x)
}
func IsErrNotFound(e error) bool {
	var x NotFoundError
	return errors.As(e, &x)
}
func IsErrProcess(e error) bool {
	var x ProcessError
	return errors.As(e, &x)
}
func IsErrState(e error) bool {
	var x StateError
	return errors.As(e, &x)
}
func IsErrTimeout(e error) bool {
	var x TimeoutError
	return errors.As(e, &x)
}
func IsErrTransaction(e error) bool {
	var x TransactionError
	return errors.As(e, &x)
}

// ReplayFailure - a composite command stopped part way through
//
// sub-commands before Index were applied and are not rolled back
type ReplayFailure struct {
	Index   int
	Applied int
	Err     error
}

func (e *ReplayFailure) Error() string {
	return fmt.Sprintf("replay stopped at command %d after %d applied: %v", e.Index, e.Applied, e.Err)
}

func (e *ReplayFailure) Unwrap() error { return e.Err }

// IsErrReplay - true if a partial replay is anywhere in the chain
func IsErrReplay(e error) bool {
	var x *ReplayFailure
	return errors.As(e, &x)
}
