// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"context"
	"sync"

	"github.com/pborman/uuid"

	"github.com/bitmark-inc/gridd/fault"
)

// Status - state of a transaction
type Status int

// transaction states
const (
	Active Status = iota
	MarkedRollback
	Preparing
	Prepared
	Committing
	Committed
	RollingBack
	RolledBack
)

// Resource - a participant in two phase commit
type Resource interface {
	Prepare(ctx context.Context, tx *Transaction) error
	Commit(ctx context.Context, tx *Transaction) error
	Rollback(ctx context.Context, tx *Transaction) error
}

// Synchronization - completion callbacks
type Synchronization interface {
	BeforeCompletion(tx *Transaction)
	AfterCompletion(tx *Transaction, status Status)
}

// Transaction - one unit of work
type Transaction struct {
	sync.Mutex
	id        string
	status    Status
	resources []Resource
	syncs     []Synchronization
}

func newTransaction() *Transaction {
	return &Transaction{
		id:     uuid.New(),
		status: Active,
	}
}

// ID - unique identifier
func (tx *Transaction) ID() string {
	return tx.id
}

// Status - current state
func (tx *Transaction) Status() Status {
	tx.Lock()
	defer tx.Unlock()
	return tx.status
}

// IsActive - true while work can still be added
func (tx *Transaction) IsActive() bool {
	return Active == tx.Status()
}

func (tx *Transaction) setStatus(status Status) {
	tx.Lock()
	tx.status = status
	tx.Unlock()
}

// SetRollbackOnly - force the eventual outcome to be a rollback
func (tx *Transaction) SetRollbackOnly() error {
	tx.Lock()
	defer tx.Unlock()

	if Active != tx.status && MarkedRollback != tx.status {
		return fault.ErrTransactionNotActive
	}
	tx.status = MarkedRollback
	return nil
}

// Enlist - add a resource, enlisting the same resource twice is a no-op
func (tx *Transaction) Enlist(r Resource) error {
	tx.Lock()
	defer tx.Unlock()

	if Active != tx.status && MarkedRollback != tx.status {
		return fault.ErrTransactionNotActive
	}
	for _, existing := range tx.resources {
		if existing == r {
			return nil
		}
	}
	tx.resources = append(tx.resources, r)
	return nil
}

// RegisterSynchronization - add completion callbacks
func (tx *Transaction) RegisterSynchronization(s Synchronization) error {
	tx.Lock()
	defer tx.Unlock()

	if Active != tx.status && MarkedRollback != tx.status {
		return fault.ErrTransactionNotActive
	}
	tx.syncs = append(tx.syncs, s)
	return nil
}

// copies so that callbacks run without the lock held
func (tx *Transaction) participants() ([]Resource, []Synchronization) {
	tx.Lock()
	defer tx.Unlock()

	resources := make([]Resource, len(tx.resources))
	copy(resources, tx.resources)
	syncs := make([]Synchronization, len(tx.syncs))
	copy(syncs, tx.syncs)
	return resources, syncs
}

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case MarkedRollback:
		return "MarkedRollback"
	case Preparing:
		return "Preparing"
	case Prepared:
		return "Prepared"
	case Committing:
		return "Committing"
	case Committed:
		return "Committed"
	case RollingBack:
		return "RollingBack"
	case RolledBack:
		return "RolledBack"
	default:
		return "*Unknown*"
	}
}
