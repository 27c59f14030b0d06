// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

const (
	publicText  = "PUBLIC:202c14ec485c21d0d18e9dfd096bd760a558d5ee1139f8e4b2e15863433e7d51"
	privateText = "PRIVATE:8f83de9a6fa1f2a3b8a5a3a4ff9f0e86e2b4f1ab0f3b4bd2f4b6d1e1a2c3d4e5"
)

func TestParseKey(t *testing.T) {
	type testItem struct {
		text    string
		private bool
		err     error
	}
	items := []testItem{
		{publicText, false, nil},
		{"  " + publicText + "\n", false, nil},
		{privateText, true, nil},
		{"PUBLIC:202c14", false, fault.ErrInvalidPublicKeyFile},
		{"PRIVATE:xyz", false, fault.ErrInvalidPrivateKeyFile},
		{"SECRET:202c14ec485c21d0d18e9dfd096bd760a558d5ee1139f8e4b2e15863433e7d51", false, fault.ErrInvalidPublicKeyFile},
		{"", false, fault.ErrInvalidPublicKeyFile},
	}

	for i, item := range items {
		key, private, err := zmqtransport.ParseKey(item.text)
		assert.Equal(t, item.err, err, "%d: error", i)
		if nil != item.err {
			continue
		}
		assert.Equal(t, item.private, private, "%d: private", i)
		assert.Equal(t, 32, len(key), "%d: key size", i)
	}

	_, err := zmqtransport.ReadPublicKey(privateText)
	assert.Equal(t, fault.ErrInvalidPublicKeyFile, err, "private as public")
	_, err = zmqtransport.ReadPrivateKey(publicText)
	assert.Equal(t, fault.ErrInvalidPrivateKeyFile, err, "public as private")
}

func TestMakeKeyPair(t *testing.T) {
	publicFile := filepath.Join(dir, "key.public")
	privateFile := filepath.Join(dir, "key.private")

	err := zmqtransport.MakeKeyPair(publicFile, privateFile)
	assert.Nil(t, err, "make key pair error")

	err = zmqtransport.MakeKeyPair(publicFile, privateFile)
	assert.Equal(t, fault.ErrKeyFileAlreadyExists, err, "second make")

	data, err := ioutil.ReadFile(publicFile)
	assert.Nil(t, err, "read public error")
	publicKey, err := zmqtransport.ReadPublicKey(string(data))
	assert.Nil(t, err, "parse public error")

	data, err = ioutil.ReadFile(privateFile)
	assert.Nil(t, err, "read private error")
	privateKey, err := zmqtransport.ReadPrivateKey(string(data))
	assert.Nil(t, err, "parse private error")

	derived, err := zmqtransport.PublicKeyFromPrivate(privateKey)
	assert.Nil(t, err, "derive error")
	assert.True(t, bytes.Equal(publicKey, derived), "derived public key")

	_, err = zmqtransport.PublicKeyFromPrivate([]byte{1, 2, 3})
	assert.Equal(t, fault.ErrInvalidPrivateKey, err, "short private key")
}
