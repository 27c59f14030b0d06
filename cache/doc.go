// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache is the user facing side of the grid
//
// a Manager owns the transport and the named caches of one member; a
// Cache builds a command for every operation and runs it through its
// interceptor chain, which replicates or distributes the change
// according to the cache mode
package cache
