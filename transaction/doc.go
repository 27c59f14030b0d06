// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transaction - transaction manager collaborator and the
// per cache transaction table
//
// a transaction is associated with a call chain through its
// context.Context; Begin returns the derived context.  Resources
// enlisted in a transaction take part in a two phase commit, each
// Synchronization sees the completion.
//
// the Table maps local transactions and the global transaction ids of
// remote ones to their Workspace: the entries written so far and the
// ordered list of modifications to apply at commit.
package transaction
