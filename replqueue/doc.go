// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package replqueue batches asynchronous replication.
//
// commands are appended in invocation order and leave in batches,
// either when the queue reaches its element threshold (flushed by the
// goroutine that added the last element) or when the interval flusher
// wakes up.  A drained batch is sent before the next batch is drained,
// so batches arrive in the order they were drained.
//
// delivery is at most once: a batch that fails to send is logged and
// counted, it is not put back.
package replqueue
