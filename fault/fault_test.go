// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/fault"
)

var (
	ErrExistsOne   = fault.ExistsError("exists one ")
	ErrInvalidOne  = fault.InvalidError("invalid one")
	ErrMarshalOne  = fault.MarshalError("marshal one")
	ErrNotFoundOne = fault.NotFoundError("not found one")
	ErrProcessOne  = fault.ProcessError("process one")
	ErrStateOne    = fault.StateError("state one")
	ErrTimeoutOne  = fault.TimeoutError("timeout one")
	ErrTxOne       = fault.TransactionError("transaction one")
)

// test that the error classes can be distinguished
func TestClasses(t *testing.T) {
	errorList := []struct {
		err         error
		exists      bool
		invalid     bool
		marshal     bool
		notFound    bool
		process     bool
		state       bool
		timeout     bool
		transaction bool
	}{
		{ErrExistsOne, true, false, false, false, false, false, false, false},
		{ErrInvalidOne, false, true, false, false, false, false, false, false},
		{ErrMarshalOne, false, false, true, false, false, false, false, false},
		{ErrNotFoundOne, false, false, false, true, false, false, false, false},
		{ErrProcessOne, false, false, false, false, true, false, false, false},
		{ErrStateOne, false, false, false, false, false, true, false, false},
		{ErrTimeoutOne, false, false, false, false, false, false, true, false},
		{ErrTxOne, false, false, false, false, false, false, false, true},
		{fault.ErrUnrecognisedType, false, false, true, false, false, false, false, false},
		{fault.ErrMalformedStream, false, false, true, false, false, false, false, false},
		{fault.ErrNoInvocationContext, false, false, false, false, false, true, false, false},
		{fault.ErrReplicationTimeout, false, false, false, false, false, false, true, false},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrMarshal(err) != e.marshal {
			t.Errorf("%d: expected 'marshal' == %v for err = %v", i, e.marshal, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrState(err) != e.state {
			t.Errorf("%d: expected 'state' == %v for err = %v", i, e.state, err)
		}
		if fault.IsErrTimeout(err) != e.timeout {
			t.Errorf("%d: expected 'timeout' == %v for err = %v", i, e.timeout, err)
		}
		if fault.IsErrTransaction(err) != e.transaction {
			t.Errorf("%d: expected 'transaction' == %v for err = %v", i, e.transaction, err)
		}
	}
}

func TestWrappedClassification(t *testing.T) {
	wrapped := fmt.Errorf("decode put: %w", fault.ErrMalformedStream)
	assert.True(t, fault.IsErrMarshal(wrapped), "wrapped marshal error")

	replay := &fault.ReplayFailure{Index: 2, Applied: 2, Err: fault.ErrReplicationTimeout}
	assert.True(t, fault.IsErrReplay(replay), "replay failure")
	assert.True(t, fault.IsErrTimeout(replay), "cause of replay failure")
	assert.Equal(t, fault.ClassReplay, fault.ClassOf(replay), "replay class wins")
}

func TestRemoteError(t *testing.T) {
	for _, err := range []error{
		fault.ErrReplicationTimeout,
		fault.ErrUnrecognisedType,
		fault.ErrNoInvocationContext,
		fault.ErrCacheNotFound,
	} {
		class := fault.ClassOf(err)
		remote := fault.NewRemoteError("node-b", class, err.Error())
		assert.Equal(t, class, fault.ClassOf(remote), "class survives: %v", err)
		assert.Contains(t, remote.Error(), err.Error(), "message survives")
		assert.Contains(t, remote.Error(), "node-b", "origin in message")
	}
}
