// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/fault"
)

// Manager - the operations needed from a transaction manager
type Manager interface {
	Begin(ctx context.Context) (context.Context, *Transaction, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Suspend(ctx context.Context) (context.Context, *Transaction)
	Resume(ctx context.Context, tx *Transaction) (context.Context, error)
	GetTransaction(ctx context.Context) *Transaction
}

type txKey struct{}

// DummyManager - in process transaction manager
type DummyManager struct {
	log *logger.L
}

// NewDummyManager - create a manager
func NewDummyManager(log *logger.L) *DummyManager {
	return &DummyManager{
		log: log,
	}
}

// Begin - start a transaction and associate it with the returned context
func (m *DummyManager) Begin(ctx context.Context) (context.Context, *Transaction, error) {
	if current := m.GetTransaction(ctx); nil != current {
		return ctx, nil, fault.ErrTransactionAlreadyBegun
	}
	tx := newTransaction()
	m.log.Debugf("begin: %s", tx.ID())
	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

// GetTransaction - the transaction associated with ctx, nil if none
// or if the associated one has already completed
func (m *DummyManager) GetTransaction(ctx context.Context) *Transaction {
	tx, ok := ctx.Value(txKey{}).(*Transaction)
	if !ok || nil == tx {
		return nil
	}
	switch tx.Status() {
	case Committed, RolledBack:
		return nil
	}
	return tx
}

// Suspend - return a context without the transaction
func (m *DummyManager) Suspend(ctx context.Context) (context.Context, *Transaction) {
	tx := m.GetTransaction(ctx)
	if nil == tx {
		return ctx, nil
	}
	return context.WithValue(ctx, txKey{}, (*Transaction)(nil)), tx
}

// Resume - associate a suspended transaction again
func (m *DummyManager) Resume(ctx context.Context, tx *Transaction) (context.Context, error) {
	if nil == tx {
		return ctx, nil
	}
	if nil != m.GetTransaction(ctx) {
		return ctx, fault.ErrTransactionAlreadyBegun
	}
	return context.WithValue(ctx, txKey{}, tx), nil
}

// Commit - two phase commit of the associated transaction
//
// a failed prepare rolls every resource back and returns an error
// wrapping fault.ErrTransactionRolledBack
func (m *DummyManager) Commit(ctx context.Context) error {
	tx := m.GetTransaction(ctx)
	if nil == tx {
		return fault.ErrTransactionNotFound
	}

	resources, syncs := tx.participants()

	for _, s := range syncs {
		s.BeforeCompletion(tx)
	}

	if MarkedRollback == tx.Status() {
		m.rollback(ctx, tx, resources, syncs)
		return fault.ErrTransactionRolledBack
	}

	tx.setStatus(Preparing)
	for i, r := range resources {
		if err := r.Prepare(ctx, tx); nil != err {
			m.log.Warnf("tx: %s  prepare[%d] error: %s", tx.ID(), i, err)
			m.rollback(ctx, tx, resources, syncs)
			return fmt.Errorf("%w: %s", fault.ErrTransactionRolledBack, err)
		}
	}
	tx.setStatus(Prepared)

	tx.setStatus(Committing)
	var commitError error
	for i, r := range resources {
		if err := r.Commit(ctx, tx); nil != err {
			m.log.Errorf("tx: %s  commit[%d] error: %s", tx.ID(), i, err)
			if nil == commitError {
				commitError = err
			}
		}
	}
	tx.setStatus(Committed)

	for _, s := range syncs {
		s.AfterCompletion(tx, Committed)
	}
	m.log.Debugf("commit: %s", tx.ID())
	return commitError
}

// Rollback - discard the associated transaction
func (m *DummyManager) Rollback(ctx context.Context) error {
	tx := m.GetTransaction(ctx)
	if nil == tx {
		return fault.ErrTransactionNotFound
	}
	resources, syncs := tx.participants()
	m.rollback(ctx, tx, resources, syncs)
	return nil
}

func (m *DummyManager) rollback(ctx context.Context, tx *Transaction, resources []Resource, syncs []Synchronization) {
	tx.setStatus(RollingBack)
	for i, r := range resources {
		if err := r.Rollback(ctx, tx); nil != err {
			m.log.Warnf("tx: %s  rollback[%d] error: %s", tx.ID(), i, err)
		}
	}
	tx.setStatus(RolledBack)

	for _, s := range syncs {
		s.AfterCompletion(tx, RolledBack)
	}
	m.log.Debugf("rollback: %s", tx.ID())
}
