// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package discovery - find the members of a cluster from DNS TXT
// records
//
// each member publishes one record under the cluster domain:
//
//	gridd=v1 a=<IPv4;IPv6> c=<listener port> s=<publisher port> p=<public key hex>
//
// the domain is looked up again after the TTL of its SOA record, the
// last good result is kept in a peer file for starts when DNS is not
// reachable
package discovery
