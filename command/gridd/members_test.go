// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/zmqtransport"
)

type fakeTransport struct {
	peers []zmqtransport.Peer
}

func (f *fakeTransport) SetPeers(peers []zmqtransport.Peer) {
	f.peers = peers
}

func (f *fakeTransport) Members() []string {
	result := []string{"127.0.0.1:2200"}
	for _, p := range f.peers {
		result = append(result, p.Address)
	}
	return result
}

type fakeManager struct {
	members []string
}

func (f *fakeManager) UpdateMembers(members []string) {
	f.members = members
}

func TestMembersUpdate(t *testing.T) {
	transport := &fakeTransport{}
	manager := &fakeManager{}
	m := &members{
		log: logger.New("test"),
		static: []zmqtransport.Peer{
			{Address: "127.0.0.2:2200"},
		},
		transport: transport,
		manager:   manager,
	}

	m.Update([]zmqtransport.Peer{{Address: "127.0.0.3:2200"}})

	assert.Equal(t, 2, len(transport.peers), "peer count")
	assert.Equal(t, "127.0.0.2:2200", transport.peers[0].Address, "static first")
	assert.Equal(t, []string{"127.0.0.1:2200", "127.0.0.2:2200", "127.0.0.3:2200"}, manager.members, "members")

	m.Update(nil)
	assert.Equal(t, []string{"127.0.0.1:2200", "127.0.0.2:2200"}, manager.members, "static only")
}

func TestStaticPeers(t *testing.T) {
	key := "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	peers, err := staticPeers([]PeerType{
		{Address: "127.0.0.2:2200", Broadcast: "127.0.0.2:2201", PublicKey: key},
		{Address: "127.0.0.3:2200", PublicKey: "PUBLIC:" + key},
	})
	assert.Nil(t, err, "wrong staticPeers")
	assert.Equal(t, 2, len(peers), "count")
	assert.Equal(t, peers[0].PublicKey, peers[1].PublicKey, "same key")
	assert.Equal(t, byte(1), peers[0].PublicKey[0], "first byte")
	assert.Equal(t, "127.0.0.2:2201", peers[0].Broadcast, "broadcast")

	_, err = staticPeers([]PeerType{{Address: "127.0.0.2:2200", PublicKey: "PUBLIC:zz"}})
	assert.NotNil(t, err, "bad key")
}
