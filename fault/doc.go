// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Errors are grouped into classes so that callers can decide on a
// policy without knowing every individual error:
//
//	MarshalError  - stream could not be encoded or decoded, never retried
//	TimeoutError  - a remote call did not answer in time, may be retried
//	StateError    - a programming contract was violated, always fatal
//	ReplayFailure - a batch of replicated commands was only partly applied
package fault
