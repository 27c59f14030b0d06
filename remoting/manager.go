// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/pborman/uuid"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

// DefaultSyncReplTimeout - wait for acknowledgements this long
const DefaultSyncReplTimeout = 15 * time.Second

// Statistics - outbound totals
type Statistics struct {
	SyncCalls  counter.Counter
	AsyncCalls counter.Counter
	Failures   counter.Counter
	Timeouts   counter.Counter
}

// RPCManager - sends commands to other members
type RPCManager struct {
	Stats Statistics

	log        *logger.L
	transport  Transport
	marshaller *marshal.Marshaller
	timeout    time.Duration
}

// NewRPCManager - create a manager, a timeout of zero means
// DefaultSyncReplTimeout
func NewRPCManager(log *logger.L, transport Transport, m *marshal.Marshaller, timeout time.Duration) *RPCManager {
	if timeout <= 0 {
		timeout = DefaultSyncReplTimeout
	}
	return &RPCManager{
		log:        log,
		transport:  transport,
		marshaller: m,
		timeout:    timeout,
	}
}

// Address - of this member
func (m *RPCManager) Address() string {
	return m.transport.Address()
}

// Members - every member including this one
func (m *RPCManager) Members() []string {
	return m.transport.Members()
}

// Timeout - synchronous call limit
func (m *RPCManager) Timeout() time.Duration {
	return m.timeout
}

// InvokeRemotely - send cmd to targets, nil targets means every other
// member
//
// a synchronous call returns the value produced on each member that
// performed the command; members that ignored it or have left are
// absent from the result.  an asynchronous call returns nil results.
func (m *RPCManager) InvokeRemotely(ctx context.Context, targets []string, cmd commands.ReplicableCommand, sync bool) (map[string]interface{}, error) {
	targets = m.others(targets)
	if 0 == len(targets) {
		return nil, nil
	}

	payload, err := m.marshaller.Marshal(&Request{
		ID:      uuid.NewRandom(),
		Command: cmd,
	})
	if nil != err {
		m.log.Errorf("marshal command: %s  error: %s", cmd.CommandID(), err)
		return nil, err
	}

	if !sync {
		m.Stats.AsyncCalls.Increment()
		err := m.transport.SendAsync(targets, payload)
		if nil != err {
			m.Stats.Failures.Increment()
			m.log.Warnf("async send command: %s  error: %s", cmd.CommandID(), err)
		}
		return nil, err
	}

	m.Stats.SyncCalls.Increment()
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	replies, err := m.transport.Send(callCtx, targets, payload)
	if errors.Is(err, context.DeadlineExceeded) {
		m.Stats.Timeouts.Increment()
		m.log.Warnf("command: %s  no reply within: %s", cmd.CommandID(), m.timeout)
		return nil, fault.ErrReplicationTimeout
	} else if nil != err {
		m.Stats.Failures.Increment()
		return nil, err
	}

	results := make(map[string]interface{}, len(replies))
	for _, reply := range replies {
		value, ok, err := m.decode(reply)
		if nil != err {
			m.log.Warnf("command: %s  to: %s  error: %s", cmd.CommandID(), reply.Address, err)
			return nil, err
		}
		if ok {
			results[reply.Address] = value
		}
	}
	return results, nil
}

// value of one reply; ok is false if the member did not perform the
// command
func (m *RPCManager) decode(reply Reply) (interface{}, bool, error) {
	switch {
	case nil == reply.Err:
	case errors.Is(reply.Err, context.DeadlineExceeded):
		m.Stats.Timeouts.Increment()
		return nil, false, fault.ErrReplicationTimeout
	case errors.Is(reply.Err, fault.ErrNotConnected):
		m.log.Debugf("member: %s  not connected", reply.Address)
		return nil, false, nil
	default:
		m.Stats.Failures.Increment()
		return nil, false, fmt.Errorf("%s: %w", reply.Err, fault.ErrReplicationFailed)
	}

	v, err := m.marshaller.Unmarshal(reply.Payload)
	if nil != err {
		m.Stats.Failures.Increment()
		return nil, false, err
	}

	switch response := v.(type) {
	case *SuccessfulResponse:
		return response.Value, true, nil
	case *UnsuccessfulResponse:
		m.log.Debugf("member: %s  ignored request: %s", reply.Address, response.Reason)
		return nil, false, nil
	case *ExceptionResponse:
		m.Stats.Failures.Increment()
		return nil, false, response.Err(reply.Address)
	default:
		m.Stats.Failures.Increment()
		return nil, false, fault.ErrMalformedStream
	}
}

// targets without this member
func (m *RPCManager) others(targets []string) []string {
	if nil == targets {
		targets = m.transport.Members()
	}
	self := m.transport.Address()
	result := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != self {
			result = append(result, t)
		}
	}
	return result
}
