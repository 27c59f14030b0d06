// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notifications delivers cache events to subscribers
//
// each subscriber owns a buffered channel; a subscriber that does not
// keep up loses events rather than blocking the cache, the loss is
// counted and logged
package notifications
