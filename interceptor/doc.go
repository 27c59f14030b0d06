// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package interceptor is the pipeline every visitable command passes
// through.
//
// each stage embeds Base, overrides the Visit methods it cares about
// (or installs a default handler for all of them) and calls InvokeNext
// to continue.  The last stage performs the command.  The usual order
// is:
//
//	InvocationContext  running check, rollback only on failure
//	Tx                 transaction workspace and enlistment
//	Replication or Distribution
//	CacheLoader        load missing keys from the cache store
//	CacheStore         write non-transactional changes to the store
//	Call               perform
//
// replication runs outside the store stage so no lock is held while
// waiting for other members
package interceptor
