// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/bitmark-inc/gridd/zmqtransport"
)

// one member in the peer file
type peerItem struct {
	Address   string `json:"address"`
	Broadcast string `json:"broadcast"`
	PublicKey string `json:"public_key"`
}

// BackupPeers - write the peers to a file, replacing it
func BackupPeers(peerFile string, peers []zmqtransport.Peer) error {
	items := make([]peerItem, len(peers))
	for i, p := range peers {
		items[i] = peerItem{
			Address:   p.Address,
			Broadcast: p.Broadcast,
			PublicKey: hex.EncodeToString(p.PublicKey),
		}
	}

	f, err := os.OpenFile(peerFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if nil != err {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(items)
}

// RestorePeers - the peers from a file, a missing file gives no peers
// and no error
func RestorePeers(peerFile string) ([]zmqtransport.Peer, error) {
	f, err := os.Open(peerFile)
	if nil != err {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var items []peerItem
	if err := json.NewDecoder(f).Decode(&items); nil != err {
		return nil, err
	}

	peers := make([]zmqtransport.Peer, len(items))
	for i, item := range items {
		key, err := hex.DecodeString(item.PublicKey)
		if nil != err {
			return nil, err
		}
		peers[i] = zmqtransport.Peer{
			Address:   item.Address,
			Broadcast: item.Broadcast,
			PublicKey: key,
		}
	}
	return peers, nil
}
