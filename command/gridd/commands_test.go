// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/discovery"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

func TestDnsTXT(t *testing.T) {
	directory, err := ioutil.TempDir("", "gridd")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(directory)

	publicFile := filepath.Join(directory, publicKeyFilename)
	privateFile := filepath.Join(directory, privateKeyFilename)
	err = zmqtransport.MakeKeyPair(publicFile, privateFile)
	assert.Nil(t, err, "wrong MakeKeyPair")

	data, err := ioutil.ReadFile(publicFile)
	assert.Nil(t, err, "read public key")
	publicKey, err := zmqtransport.ReadPublicKey(string(data))
	assert.Nil(t, err, "decode public key")

	options := &Configuration{
		Network: NetworkType{
			Announce:  "127.0.0.1:2200",
			Broadcast: "127.0.0.1:2201",
			PublicKey: publicFile,
		},
	}
	record, err := dnsTXT(options)
	assert.Nil(t, err, "wrong dnsTXT")
	assert.Equal(t, fmt.Sprintf("gridd=v1 a=127.0.0.1 c=2200 s=2201 p=%x", publicKey), record, "record")

	// the record is what discovery accepts
	r, err := discovery.Parse(record)
	assert.Nil(t, err, "wrong Parse")
	assert.Equal(t, uint16(2200), r.ConnectPort, "connect port")
	assert.Equal(t, uint16(2201), r.BroadcastPort, "broadcast port")
	assert.Equal(t, publicKey, r.PublicKey, "public key")

	options.Network.Broadcast = "127.0.0.2:2201"
	_, err = dnsTXT(options)
	assert.NotNil(t, err, "different hosts")

	options.Network.Broadcast = "127.0.0.1"
	_, err = dnsTXT(options)
	assert.NotNil(t, err, "no port")

	options.Network.PublicKey = filepath.Join(directory, "none")
	_, err = dnsTXT(options)
	assert.NotNil(t, err, "no key file")
}

func TestGetFilenameWithDirectory(t *testing.T) {
	assert.Equal(t, "gridd.public", getFilenameWithDirectory(nil, "gridd.public"), "default")
	assert.Equal(t, "/tmp/gridd.public", getFilenameWithDirectory([]string{"/tmp"}, "gridd.public"), "directory")
}
