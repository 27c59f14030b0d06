// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package commands contains the replicable operations of a cache
//
//	***** Families *****
//
//	data:        Put Remove Replace PutMap Clear ApplyDelta Get Evict
//	rpc:         SingleRPC MultipleRPC ClusteredGet   (carry a cache name)
//	transaction: Prepare Commit Rollback              (carry a global transaction)
//
//	***** Wire form *****
//
//	the command ID is the type id of the marshalled object
//
//	generic:     count:uvarint parameter:object...
//	SingleRPC:   cache:string command:object
//	MultipleRPC: cache:string count:uvarint command:object...
//
//	***** Execution *****
//
//	data commands run through the interceptor chain of their cache and
//	end in Perform; transaction commands replayed from another member
//	are performed directly and build their own invocation context
package commands
