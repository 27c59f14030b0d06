// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/util"
	"github.com/bitmark-inc/gridd/version"
	"github.com/bitmark-inc/gridd/zmqtransport"
)

const (
	publicKeyLength = 2 * 32 // characters
)

// Record - one decoded TXT record
type Record struct {
	IPv4          net.IP
	IPv6          net.IP
	ConnectPort   uint16
	BroadcastPort uint16
	PublicKey     []byte
}

// Parse - decode a record of the form
//
//	gridd=v1 a=<IPv4;IPv6> c=<PORT> s=<PORT> p=<PUBLIC-KEY>
//
// each item must appear exactly once, unknown items are rejected
func Parse(s string) (*Record, error) {
	r := &Record{}

	countA := 0
	countC := 0
	countS := 0
	countP := 0

words:
	for i, w := range strings.Split(strings.TrimSpace(s), " ") {

		if 0 == i {
			if version.Protocol == w {
				continue words
			}
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		if "" == w {
			continue words
		}

		// <letter>=<parameter>
		if len(w) < 3 || '=' != w[1] {
			return nil, fault.ErrInvalidDnsTxtRecord
		}

		parameter := w[2:]
		err := error(nil)
		switch w[0] {
		case 'a':
			err = r.setAddresses(parameter)
			countA += 1
		case 'c':
			r.ConnectPort, err = getPort(parameter)
			countC += 1
		case 's':
			r.BroadcastPort, err = getPort(parameter)
			countS += 1
		case 'p':
			if publicKeyLength != len(parameter) {
				err = fault.ErrInvalidPublicKey
			} else if r.PublicKey, err = hex.DecodeString(parameter); nil != err {
				err = fault.ErrInvalidPublicKey
			}
			countP += 1
		default:
			err = fault.ErrInvalidDnsTxtRecord
		}
		if nil != err {
			return nil, err
		}
	}

	if 1 != countA || 1 != countC || 1 != countS || 1 != countP {
		return nil, fault.ErrInvalidDnsTxtRecord
	}
	return r, nil
}

func (r *Record) setAddresses(parameter string) error {
	for _, address := range strings.Split(parameter, ";") {
		if len(address) > 2 && '[' == address[0] && ']' == address[len(address)-1] {
			address = address[1 : len(address)-1]
		}
		IP := net.ParseIP(address)
		if nil == IP {
			return fault.ErrInvalidIPAddress
		}
		if nil != IP.To4() {
			r.IPv4 = IP
		} else {
			r.IPv6 = IP
		}
	}
	return nil
}

func getPort(s string) (uint16, error) {
	port, err := strconv.Atoi(s)
	if nil != err || port < 1 || port > 65535 {
		return 0, fault.ErrInvalidPortNumber
	}
	return uint16(port), nil
}

// Peer - how to reach the member, IPv4 is preferred
func (r *Record) Peer() (zmqtransport.Peer, error) {
	IP := r.IPv4
	if nil == IP {
		IP = r.IPv6
	}
	if nil == IP {
		return zmqtransport.Peer{}, fault.ErrInvalidIPAddress
	}

	address, err := util.JoinIPandPort(IP, int(r.ConnectPort))
	if nil != err {
		return zmqtransport.Peer{}, err
	}
	broadcast, err := util.JoinIPandPort(IP, int(r.BroadcastPort))
	if nil != err {
		return zmqtransport.Peer{}, err
	}
	return zmqtransport.Peer{
		Address:   address,
		Broadcast: broadcast,
		PublicKey: r.PublicKey,
	}, nil
}

// String - the TXT record text, the inverse of Parse
func (r *Record) String() string {
	addresses := make([]string, 0, 2)
	if nil != r.IPv4 {
		addresses = append(addresses, r.IPv4.String())
	}
	if nil != r.IPv6 {
		addresses = append(addresses, r.IPv6.String())
	}
	return fmt.Sprintf("%s a=%s c=%d s=%d p=%x", version.Protocol, strings.Join(addresses, ";"), r.ConnectPort, r.BroadcastPort, r.PublicKey)
}
