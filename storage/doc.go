// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the cache store collaborator
//
// the LevelDB store keeps each cache entry under a one byte prefix:
//
//	0x00 ++ "VERSION"            - database version, 4 byte big endian
//	E ++ key                      - marshalled entry (with version byte)
//	X ++ expiry time ++ key       - expiry index, empty value
//
// key          = the marshalled key object without a version byte
// expiry time  = 8 byte big endian milliseconds, earliest possible expiry
//
// Prepare stages the writes of a transaction in a leveldb.Batch that
// is held in memory until Commit writes it or Rollback drops it; a
// prepared batch that is never completed expires.
package storage
