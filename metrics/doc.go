// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics exports the statistics counters of the caches as
// prometheus collectors
//
// counters are read when scraped so the hot paths only ever touch the
// atomic counters they already keep
package metrics
