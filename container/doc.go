// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package container holds the live entries of one cache
//
//	***** Data Structure *****
//
//	Container        Key                 Value
//	|___ entries     any comparable      *entry.Entry (owned)
//
//	***** Expiry *****
//
//	expiry is never stored, it is computed from the entry metadata at
//	the time of access; an expired entry found by a read is removed at
//	once, the reaper removes the rest at ExpirationWakeUpInterval
//
//	***** Ownership *****
//
//	entries are copied in and out so a caller never holds a pointer to
//	an entry that is still owned by the container
package container
