// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/invocation"
)

// InvocationContext - first stage: refuses work while the cache is not
// running and marks a failing local transaction rollback only
type InvocationContext struct {
	Base
	log     *logger.L
	running func() bool
}

// NewInvocationContext - running reports the cache state
func NewInvocationContext(log *logger.L, running func() bool) *InvocationContext {
	i := &InvocationContext{
		log:     log,
		running: running,
	}
	i.handleDefault = i.handle
	return i
}

func (i *InvocationContext) handle(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	if nil == ic {
		return nil, fault.ErrNoInvocationContext
	}
	if nil != i.running && !i.running() {
		return nil, fault.ErrNotRunning
	}

	result, err := i.InvokeNext(ctx, ic, cmd)
	if nil == err {
		return result, nil
	}

	if ic.IsOriginLocal() {
		i.log.Debugf("command: %s  error: %s", cmd.CommandID(), err)
	} else {
		i.log.Warnf("command: %s  from: %s  error: %s", cmd.CommandID(), ic.Origin(), err)
	}

	if tx := ic.Transaction(); nil != tx && ic.IsOriginLocal() {
		if e := tx.SetRollbackOnly(); nil != e {
			i.log.Warnf("tx: %s  set rollback only error: %s", tx.ID(), e)
		}
	}
	return nil, err
}
