// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

// Lookuper - members published under a domain
type Lookuper interface {
	Lookup(domainName string) ([]zmqtransport.Peer, error)
}

type lookuper struct {
	log *logger.L
	f   func(string) ([]string, error)
}

// NewLookuper - decode the TXT records returned by f, normally
// net.LookupTXT
func NewLookuper(log *logger.L, f func(string) ([]string, error)) Lookuper {
	return &lookuper{
		log: log,
		f:   f,
	}
}

// Lookup - the peers of every valid record, invalid records are
// skipped
func (l *lookuper) Lookup(domainName string) ([]zmqtransport.Peer, error) {
	log := l.log
	if "" == domainName {
		log.Error("invalid node domain")
		return nil, fault.ErrInvalidNodeDomain
	}

	texts, err := l.f(domainName)
	if nil != err {
		log.Errorf("lookup TXT record error: %s", err)
		return nil, err
	}

	result := make([]zmqtransport.Peer, 0, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		record, err := Parse(t)
		if nil != err {
			log.Debugf("ignore TXT[%d]: %q  error: %s", i, t, err)
			continue
		}
		peer, err := record.Peer()
		if nil != err {
			log.Debugf("ignore TXT[%d]: %q  error: %s", i, t, err)
			continue
		}
		log.Infof("result[%d]: member: %s  broadcast: %s  public key: %x", i, peer.Address, peer.Broadcast, peer.PublicKey)
		result = append(result, peer)
	}
	return result, nil
}
