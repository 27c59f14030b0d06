// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tree presents a cache as a tree of nodes
//
// every node is two cache entries holding atomic maps: its data under
// NodeKey{Fqn, Data} and the names of its children under
// NodeKey{Fqn, Structure}.  A node exists while its structure entry
// does; the root always exists.
package tree
