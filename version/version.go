// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

// ensure that git has a tag: "vX.Y" corresponding to major and minor
const (
	Major   = "0"
	Minor   = "9"
	Version = Major + "." + Minor
)

// Protocol - cluster protocol identifier announced in DNS TXT
// records and checked on connection
const Protocol = "gridd=v1"
