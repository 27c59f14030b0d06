// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/zmqtransport"
)

// PeerSetter - the transport side of a membership change
type PeerSetter interface {
	SetPeers(peers []zmqtransport.Peer)
	Members() []string
}

// MemberUpdater - the cache side of a membership change
type MemberUpdater interface {
	UpdateMembers(members []string)
}

// passes each discovered membership to the transport and then to the
// caches, static peers from the configuration are always included
type members struct {
	log       *logger.L
	static    []zmqtransport.Peer
	transport PeerSetter
	manager   MemberUpdater
}

// Update - discovery.Receiver
func (m *members) Update(peers []zmqtransport.Peer) {
	all := make([]zmqtransport.Peer, 0, len(m.static)+len(peers))
	all = append(all, m.static...)
	all = append(all, peers...)

	m.transport.SetPeers(all)
	current := m.transport.Members()
	m.manager.UpdateMembers(current)
	m.log.Infof("members: %v", current)
}

// decode the peers listed in the configuration
func staticPeers(peers []PeerType) ([]zmqtransport.Peer, error) {
	result := make([]zmqtransport.Peer, len(peers))
	for i, p := range peers {
		key, err := hex.DecodeString(p.PublicKey)
		if nil != err {
			key, err = zmqtransport.ReadPublicKey(p.PublicKey)
			if nil != err {
				return nil, err
			}
		}
		result[i] = zmqtransport.Peer{
			Address:   p.Address,
			Broadcast: p.Broadcast,
			PublicKey: key,
		}
	}
	return result, nil
}
