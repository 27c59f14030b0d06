// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package discovery

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestTTL(t *testing.T) {
	a := &dns.A{Hdr: dns.RR_Header{Name: "grid.", Rrtype: dns.TypeA, Ttl: 60}}
	soa := &dns.SOA{Hdr: dns.RR_Header{Name: "grid.", Rrtype: dns.TypeSOA, Ttl: 300}}

	assert.Equal(t, uint32(0), ttl(nil), "empty section")
	assert.Equal(t, uint32(60), ttl([]dns.RR{a}), "first record")
	assert.Equal(t, uint32(300), ttl([]dns.RR{a, soa}), "SOA preferred")
}
