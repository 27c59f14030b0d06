// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/transaction"
)

// resource - the two phase commit participant of one local
// transaction in one cache
//
// transaction commands travel inside a SingleRPC, or a MultipleRPC
// when queued, which names the cache they belong to
//
// synchronous modes prepare on the other members and commit or roll
// them back afterwards; asynchronous modes send a one phase prepare
// once the local commit is done
type resource struct {
	c       *core
	w       *transaction.Workspace
	targets []string
	remote  bool // prepared on other members
}

func (c *core) newResource(tx *transaction.Transaction, w *transaction.Workspace) transaction.Resource {
	return &resource{
		c: c,
		w: w,
	}
}

// the recorded writes, nil if nothing leaves this member
func (r *resource) modifications() []commands.WriteCommand {
	if !r.c.config.Mode.IsClustered() {
		return nil
	}
	mods := []commands.WriteCommand{}
	for _, m := range r.w.Modifications() {
		if cmd, ok := m.(commands.WriteCommand); ok && cmd.Successful() {
			mods = append(mods, cmd)
		}
	}
	if 0 == len(mods) {
		return nil
	}
	return mods
}

// nil means every member, an empty list means none
func (r *resource) owners(mods []commands.WriteCommand) []string {
	if nil == r.c.distribution {
		return nil
	}
	keys := []interface{}{}
	for _, m := range mods {
		affected := m.AffectedKeys()
		if nil == affected {
			return nil
		}
		keys = append(keys, affected...)
	}
	return r.c.distribution.Owners(keys)
}

func (r *resource) Prepare(ctx context.Context, tx *transaction.Transaction) error {
	if !r.c.config.Mode.IsSynchronous() {
		return nil
	}
	mods := r.modifications()
	if nil == mods {
		return nil
	}
	targets := r.owners(mods)
	if nil != targets && 0 == len(targets) {
		return nil
	}

	r.targets = targets
	r.remote = true
	prepare := r.c.factory.NewPrepare(r.w.GlobalTransaction, mods, false)
	_, err := r.c.manager.rpc.InvokeRemotely(ctx, targets, r.c.factory.NewSingleRPC(prepare), true)
	if nil != err {
		r.c.log.Warnf("tx: %s  remote prepare error: %s", r.w.GlobalTransaction, err)
	}
	return err
}

func (r *resource) Commit(ctx context.Context, tx *transaction.Transaction) error {
	c := r.c
	defer c.components.Table.RemoveLocal(tx)

	err := commands.ApplyWorkspace(ctx, c.components, r.w, true)
	if nil != err {
		c.log.Errorf("tx: %s  local commit error: %s", r.w.GlobalTransaction, err)
	}

	gtx := r.w.GlobalTransaction
	switch {
	case r.remote:
		if _, e := c.manager.rpc.InvokeRemotely(ctx, r.targets, c.factory.NewSingleRPC(c.factory.NewCommit(gtx)), true); nil != e {
			c.log.Errorf("tx: %s  remote commit error: %s", gtx, e)
			if nil == err {
				err = e
			}
		}

	case c.config.Mode.IsClustered() && !c.config.Mode.IsSynchronous():
		if mods := r.modifications(); nil != mods {
			if targets := r.owners(mods); nil == targets || 0 != len(targets) {
				r.sendOnePhase(ctx, targets, c.factory.NewPrepare(gtx, mods, true))
			}
		}
	}

	c.components.Notifier.TransactionCompletedEvent(gtx.Key(), nil == err, true)
	return err
}

func (r *resource) sendOnePhase(ctx context.Context, targets []string, prepare *commands.Prepare) {
	c := r.c
	if nil != c.queue {
		c.queue.Add(prepare)
		return
	}
	if _, err := c.manager.rpc.InvokeRemotely(ctx, targets, c.factory.NewSingleRPC(prepare), false); nil != err {
		c.log.Warnf("tx: %s  one phase prepare error: %s", prepare.GTX, err)
	}
}

func (r *resource) Rollback(ctx context.Context, tx *transaction.Transaction) error {
	c := r.c
	c.components.Table.RemoveLocal(tx)

	gtx := r.w.GlobalTransaction
	if r.remote {
		if _, err := c.manager.rpc.InvokeRemotely(ctx, r.targets, c.factory.NewSingleRPC(c.factory.NewRollback(gtx)), true); nil != err {
			c.log.Warnf("tx: %s  remote rollback error: %s", gtx, err)
		}
	}
	c.components.Notifier.TransactionCompletedEvent(gtx.Key(), false, true)
	return nil
}
