// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
)

func TestCanonical(t *testing.T) {
	testData := []struct {
		in  string
		out string
	}{
		{"127.0.0.1:1234", "127.0.0.1:1234"},
		{"127.0.0.1:1", "127.0.0.1:1"},
		{" 127.0.0.1:1 ", "127.0.0.1:1"},
		{"127.0.0.1:65535", "127.0.0.1:65535"},
		{"0.0.0.0:1234", "0.0.0.0:1234"},
		{"[::1]:1234", "[::1]:1234"},
		{"[::]:1234", "[::]:1234"},
		{"[0:0::0:0]:1234", "[::]:1234"},
		{"[0:0:0:0::1]:1234", "[::1]:1234"},
	}

	for i, d := range testData {
		c, err := util.CanonicalIPandPort(d.in)
		assert.Nil(t, err, "%d: %q", i, d.in)
		assert.Equal(t, d.out, c, "%d: %q", i, d.in)
	}
}

func TestCanonicalInvalid(t *testing.T) {
	testData := []struct {
		in  string
		err error
	}{
		{"127.1:1234", fault.ErrInvalidIPAddress},
		{"256.0.0.0:1234", fault.ErrInvalidIPAddress},
		{"[]:1234", fault.ErrInvalidIPAddress},
		{"[as34::]:1234", fault.ErrInvalidIPAddress},
		{"127.0.0.1", fault.ErrInvalidIPAddress},
		{"127.0.0.1:0", fault.ErrInvalidPortNumber},
		{"127.0.0.1:65536", fault.ErrInvalidPortNumber},
		{"127.0.0.1:xyz", fault.ErrInvalidPortNumber},
	}

	for i, d := range testData {
		_, err := util.CanonicalIPandPort(d.in)
		assert.Equal(t, d.err, err, "%d: %q", i, d.in)
	}
}

func TestZmqAddress(t *testing.T) {
	a, err := util.ZmqAddress("[::1]:2136")
	assert.Nil(t, err, "error")
	assert.Equal(t, "tcp://[::1]:2136", a, "zmq address")
}
