// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/background"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

const (
	maximumInterval = 1 * time.Hour
	resolverConfig  = "/etc/resolv.conf"
)

// Receiver - takes the complete set of members after each lookup
type Receiver interface {
	Update(peers []zmqtransport.Peer)
}

type domain struct {
	log        *logger.L
	domainName string
	receiver   Receiver
	lookuper   Lookuper
	peerFile   string
}

// New - look the domain up now and return the process that repeats
// the lookup
//
// if the first lookup fails the peers saved in peerFile are used
// instead, an empty peerFile disables saving
func New(log *logger.L, domainName string, receiver Receiver, lookuper Lookuper, peerFile string) (background.Process, error) {
	log.Info("initialising…")

	d := &domain{
		log:        log,
		domainName: domainName,
		receiver:   receiver,
		lookuper:   lookuper,
		peerFile:   peerFile,
	}

	peers, err := lookuper.Lookup(domainName)
	if nil == err {
		d.deliver(peers)
		return d, nil
	}
	if "" == peerFile {
		return nil, err
	}

	log.Warnf("lookup: %s  error: %s  restoring from: %q", domainName, err, peerFile)
	peers, e := RestorePeers(peerFile)
	if nil != e {
		log.Errorf("restore error: %s", e)
		return nil, err
	}
	receiver.Update(peers)
	return d, nil
}

// Run - background processing interface
func (d *domain) Run(_ interface{}, shutdown <-chan struct{}) {
	timer := time.After(interval(d.domainName, d.log))

loop:
	for {
		select {
		case <-timer:
			timer = time.After(interval(d.domainName, d.log))
			peers, err := d.lookuper.Lookup(d.domainName)
			if nil != err {
				continue loop
			}
			d.deliver(peers)

		case <-shutdown:
			break loop
		}
	}
	d.log.Info("stopped")
}

func (d *domain) deliver(peers []zmqtransport.Peer) {
	d.receiver.Update(peers)
	if "" == d.peerFile || 0 == len(peers) {
		return
	}
	if err := BackupPeers(d.peerFile, peers); nil != err {
		d.log.Errorf("backup to: %q  error: %s", d.peerFile, err)
	}
}

// time until the next lookup, the TTL of the domain's SOA record
// limited to maximumInterval
func interval(domainName string, log *logger.L) time.Duration {
	t := maximumInterval

	conf, err := dns.ClientConfigFromFile(resolverConfig)
	if nil != err {
		log.Warnf("reading %s error: %s", resolverConfig, err)
		return t
	}

	// resolv.conf uses at most three
	servers := conf.Servers
	if len(servers) > 3 {
		servers = servers[:3]
	}

loop:
	for _, server := range servers {
		s := net.JoinHostPort(server, conf.Port)
		c := dns.Client{}
		msg := dns.Msg{}
		msg.SetQuestion(dns.Fqdn(domainName), dns.TypeSOA)

		r, _, err := c.Exchange(&msg, s)
		if nil != err {
			log.Debugf("exchange with dns server %q error: %s", s, err)
			continue loop
		}

		for _, section := range [][]dns.RR{r.Answer, r.Ns, r.Extra} {
			if ttl := ttl(section); ttl > 0 {
				log.Debugf("server %q TTL: %d", s, ttl)
				if d := time.Duration(ttl) * time.Second; d < t {
					t = d
				}
				break loop
			}
		}
	}

	log.Infof("next lookup of %s in: %s", domainName, t)
	return t
}

// TTL of the first SOA record, otherwise of the first record
func ttl(rrs []dns.RR) uint32 {
	for _, rr := range rrs {
		if soa, ok := rr.(*dns.SOA); ok {
			return soa.Hdr.Ttl
		}
	}
	if 0 != len(rrs) {
		return rrs[0].Header().Ttl
	}
	return 0
}
