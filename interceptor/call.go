// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/invocation"
)

// Call - the last stage, performs the command
type Call struct {
	Base
}

// NewCall - create the final stage
func NewCall() *Call {
	i := &Call{}
	i.handleDefault = i.perform
	return i
}

func (i *Call) perform(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	return cmd.Perform(ctx, ic)
}
