// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/bitmark-inc/gridd/fault"
)

// CanonicalIPandPort - make the IP:Port canonical
//
// examples:
//
//	IPv4:  127.0.0.1:1234
//	IPv6:  [::1]:1234
func CanonicalIPandPort(hostPort string) (string, error) {
	host, port, err := net.SplitHostPort(strings.TrimSpace(hostPort))
	if nil != err {
		return "", fault.ErrInvalidIPAddress
	}

	IP := net.ParseIP(strings.Trim(host, " "))
	if nil == IP {
		return "", fault.ErrInvalidIPAddress
	}

	numericPort, err := strconv.Atoi(strings.Trim(port, " "))
	if nil != err {
		return "", fault.ErrInvalidPortNumber
	}
	return JoinIPandPort(IP, numericPort)
}

// JoinIPandPort - canonical string for an IP and a port number
func JoinIPandPort(IP net.IP, port int) (string, error) {
	if port < 1 || port > 65535 {
		return "", fault.ErrInvalidPortNumber
	}
	if nil != IP.To4() {
		return IP.String() + ":" + strconv.Itoa(port), nil
	}
	return "[" + IP.String() + "]:" + strconv.Itoa(port), nil
}

// ZmqAddress - convert a canonical IP:Port to a zmq tcp endpoint
func ZmqAddress(hostPort string) (string, error) {
	c, err := CanonicalIPandPort(hostPort)
	if nil != err {
		return "", err
	}
	return "tcp://" + c, nil
}
