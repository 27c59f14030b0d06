// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package interceptor

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/invocation"
)

// RPC - sends commands to other members
type RPC interface {
	Address() string
	InvokeRemotely(ctx context.Context, targets []string, cmd commands.ReplicableCommand, sync bool) (map[string]interface{}, error)
}

// Enqueuer - batches asynchronous replication
type Enqueuer interface {
	Add(cmd commands.ReplicableCommand)
}

// replicator - the sending half shared by Replication and Distribution
type replicator struct {
	Replicated counter.Counter
	Queued     counter.Counter

	log     *logger.L
	factory *commands.Factory
	rpc     RPC
	queue   Enqueuer // nil: asynchronous commands are sent at once
	sync    bool
}

// a successful local non-transactional write is replicated unless the
// caller asked for a local only operation; transactional writes are
// replicated at prepare
func (r *replicator) shouldReplicate(ic *invocation.Context, cmd commands.VisitableCommand) (commands.WriteCommand, bool) {
	if nil == ic || !ic.IsOriginLocal() || ic.IsInTxScope() || ic.HasFlag(invocation.CacheModeLocal) {
		return nil, false
	}
	w, ok := cmd.(commands.WriteCommand)
	if !ok || !w.Successful() || w.CommandFlags().Has(invocation.CacheModeLocal) {
		return nil, false
	}
	return w, true
}

func (r *replicator) isSync(ic *invocation.Context, flags invocation.Flag) bool {
	flags |= ic.Flags()
	switch {
	case flags.Has(invocation.ForceSynchronous):
		return true
	case flags.Has(invocation.ForceAsynchronous):
		return false
	}
	return r.sync
}

// send to targets, nil means every other member
func (r *replicator) replicate(ctx context.Context, ic *invocation.Context, targets []string, cmd commands.WriteCommand) error {
	sync := r.isSync(ic, cmd.CommandFlags())
	if !sync && nil != r.queue {
		r.Queued.Increment()
		r.queue.Add(cmd)
		return nil
	}

	r.Replicated.Increment()
	_, err := r.rpc.InvokeRemotely(ctx, targets, r.factory.NewSingleRPC(cmd), sync)
	if nil == err {
		return nil
	}
	r.log.Warnf("replicate command: %s  sync: %v  error: %s", cmd.CommandID(), sync, err)

	// the local write stands, only a synchronous caller sees the failure
	if !sync {
		return nil
	}
	return err
}

// Replication - copies every successful write to all other members
type Replication struct {
	Base
	replicator
}

// NewReplication - create the replication stage; queue may be nil
func NewReplication(log *logger.L, factory *commands.Factory, rpc RPC, queue Enqueuer, sync bool) *Replication {
	i := &Replication{
		replicator: replicator{
			log:     log,
			factory: factory,
			rpc:     rpc,
			queue:   queue,
			sync:    sync,
		},
	}
	i.handleDefault = i.handle
	return i
}

func (i *Replication) handle(ctx context.Context, ic *invocation.Context, cmd commands.VisitableCommand) (interface{}, error) {
	result, err := i.InvokeNext(ctx, ic, cmd)
	if nil != err {
		return nil, err
	}
	w, ok := i.shouldReplicate(ic, cmd)
	if !ok {
		return result, nil
	}
	if err := i.replicate(ctx, ic, nil, w); nil != err {
		return nil, err
	}
	return result, nil
}
