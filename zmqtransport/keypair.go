// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqtransport

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	keySize       = 32
)

// MakeKeyPair - create a CURVE key pair and write the halves to
// separate files, neither file may exist
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if util.EnsureFileExists(publicKeyFileName) || util.EnsureFileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	// zmq returns Z85 text, the files hold hex
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	public := taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	private := taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	if err := ioutil.WriteFile(publicKeyFileName, []byte(public), 0666); nil != err {
		return err
	}
	if err := ioutil.WriteFile(privateKeyFileName, []byte(private), 0600); nil != err {
		_ = os.Remove(publicKeyFileName)
		return err
	}
	return nil
}

// ReadPublicKey - 32 byte key from "PUBLIC:<hex>"
func ReadPublicKey(text string) ([]byte, error) {
	key, private, err := ParseKey(text)
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.ErrInvalidPublicKeyFile
	}
	return key, nil
}

// ReadPrivateKey - 32 byte key from "PRIVATE:<hex>"
func ReadPrivateKey(text string) ([]byte, error) {
	key, private, err := ParseKey(text)
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.ErrInvalidPrivateKeyFile
	}
	return key, nil
}

// ParseKey - decode either kind of tagged key, private is true for a
// private key
func ParseKey(text string) (key []byte, private bool, err error) {
	s := strings.TrimSpace(text)

	var h string
	switch {
	case strings.HasPrefix(s, taggedPrivate):
		h, private, err = s[len(taggedPrivate):], true, fault.ErrInvalidPrivateKeyFile
	case strings.HasPrefix(s, taggedPublic):
		h, private, err = s[len(taggedPublic):], false, fault.ErrInvalidPublicKeyFile
	default:
		return nil, false, fault.ErrInvalidPublicKeyFile
	}

	key, e := hex.DecodeString(h)
	if nil != e || keySize != len(key) {
		return nil, false, err
	}
	return key, private, nil
}

// PublicKeyFromPrivate - the public half of a CURVE private key
func PublicKeyFromPrivate(privateKey []byte) ([]byte, error) {
	if keySize != len(privateKey) {
		return nil, fault.ErrInvalidPrivateKey
	}
	public, err := zmq.AuthCurvePublic(zmq.Z85encode(string(privateKey)))
	if nil != err {
		return nil, err
	}
	return []byte(zmq.Z85decode(public)), nil
}
