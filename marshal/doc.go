// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package marshal - versioned binary encoding of commands, entries and
// responses
//
// a stream is one version byte followed by one object:
//
//	version | type id | payload
//
// the payload of a primitive is fixed by this package, every other type
// id has an externalizer registered in a Registry.  Composite payloads
// embed further objects, each again prefixed with its own type id.
//
// timestamps that are never negative are written as Varint64, values
// that use -1 as a sentinel are written as 8 byte big endian signed
// integers.  Strings and byte slices carry a Varint64 length.
package marshal
