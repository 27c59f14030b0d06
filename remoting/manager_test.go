// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/entry"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/remoting"
	"github.com/bitmark-inc/gridd/remoting/mocks"
)

func TestSyncInvokeReachesEveryOtherMember(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	c := newMember(t, network, "10.0.0.3:2200", m)
	defer a.transport.Stop()
	defer b.transport.Stop()
	defer c.transport.Stop()

	cmd := a.factory.NewSingleRPC(a.factory.NewPut("k", "v", -1, -1, 0))
	results, err := a.rpc.InvokeRemotely(context.Background(), nil, cmd, true)
	assert.Nil(t, err, "invoke error")
	assert.Equal(t, map[string]interface{}{
		"10.0.0.2:2200": nil,
		"10.0.0.3:2200": nil,
	}, results, "previous values")

	assert.Equal(t, 0, a.chain.count(), "sender performed its own command")
	assert.Equal(t, "v", b.components.Container.Get("k", entry.Now()).Payload, "member b")
	assert.Equal(t, "v", c.components.Container.Get("k", entry.Now()).Payload, "member c")
	assert.Equal(t, uint64(1), a.rpc.Stats.SyncCalls.Uint64(), "sync calls")
}

func TestMultipleRPCResultsInOrder(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	defer a.transport.Stop()
	defer b.transport.Stop()

	cmd := a.factory.NewMultipleRPC([]commands.ReplicableCommand{
		a.factory.NewPut("k", "1", -1, -1, 0),
		a.factory.NewPut("k", "2", -1, -1, 0),
		a.factory.NewRemove("k", 0),
	})
	results, err := a.rpc.InvokeRemotely(context.Background(), []string{"10.0.0.2:2200"}, cmd, true)
	assert.Nil(t, err, "invoke error")
	assert.Equal(t, []interface{}{nil, "1", "2"}, results["10.0.0.2:2200"], "results")
	assert.False(t, b.components.Container.ContainsKey("k", entry.Now()), "key after remove")
}

func TestRemoteFailureKeepsClass(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	defer a.transport.Stop()
	defer b.transport.Stop()

	cmd := a.factory.NewMultipleRPC([]commands.ReplicableCommand{
		a.factory.NewPut("a", "1", -1, -1, 0),
		a.factory.NewPut([]interface{}{"not comparable"}, "2", -1, -1, 0),
		a.factory.NewPut("c", "3", -1, -1, 0),
	})
	_, err := a.rpc.InvokeRemotely(context.Background(), nil, cmd, true)

	var remote *fault.RemoteError
	assert.True(t, errors.As(err, &remote), "not a remote error: %v", err)
	assert.Equal(t, "10.0.0.2:2200", remote.Origin, "origin")
	assert.True(t, fault.IsErrReplay(err), "partial replay class lost: %v", err)

	assert.True(t, b.components.Container.ContainsKey("a", entry.Now()), "applied before failure")
	assert.False(t, b.components.Container.ContainsKey("c", entry.Now()), "applied after failure")
	assert.Equal(t, uint64(1), b.handler.Stats.Failures.Uint64(), "handler failures")
}

func TestUnknownCacheIgnored(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	defer a.transport.Stop()
	defer b.transport.Stop()

	cmd := a.factory.NewSingleRPC(a.factory.NewPut("k", "v", -1, -1, 0))
	cmd.Cache = "other-cache"

	results, err := a.rpc.InvokeRemotely(context.Background(), nil, cmd, true)
	assert.Nil(t, err, "invoke error")
	assert.Empty(t, results, "results from member without the cache")
	assert.Equal(t, uint64(1), b.handler.Stats.Ignored.Uint64(), "ignored requests")
}

func TestDepartedMemberSkipped(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	defer a.transport.Stop()
	_ = b.transport.Stop()

	cmd := a.factory.NewSingleRPC(a.factory.NewPut("k", "v", -1, -1, 0))
	results, err := a.rpc.InvokeRemotely(context.Background(), nil, cmd, true)
	assert.Nil(t, err, "invoke error")
	assert.Empty(t, results, "results from stopped member")

	network.Leave("10.0.0.2:2200")
	assert.Equal(t, []string{"10.0.0.1:2200"}, a.rpc.Members(), "members after leave")
	results, err = a.rpc.InvokeRemotely(context.Background(), nil, cmd, true)
	assert.Nil(t, err, "invoke error")
	assert.Nil(t, results, "no other members")
}

func TestAsyncInvokeKeepsOrder(t *testing.T) {
	m := newMarshaller()
	network := remoting.NewLocalNetwork()
	a := newMember(t, network, "10.0.0.1:2200", m)
	b := newMember(t, network, "10.0.0.2:2200", m)
	defer a.transport.Stop()
	defer b.transport.Stop()

	const total = 50
	expected := make([]interface{}, total)
	for i := 0; i < total; i += 1 {
		expected[i] = int64(i)
		cmd := a.factory.NewSingleRPC(a.factory.NewPut("k", int64(i), -1, -1, 0))
		results, err := a.rpc.InvokeRemotely(context.Background(), nil, cmd, false)
		assert.Nil(t, err, "async invoke: %d", i)
		assert.Nil(t, results, "async results: %d", i)
	}

	deadline := time.Now().Add(5 * time.Second)
	for b.chain.count() < total && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, expected, b.chain.values(), "delivery order")
	assert.Equal(t, int64(total-1), b.components.Container.Get("k", entry.Now()).Payload, "final value")
}

func TestSyncTimeout(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	transport := mocks.NewMockTransport(ctl)
	transport.EXPECT().Address().Return("10.0.0.1:2200").AnyTimes()
	transport.EXPECT().Members().Return([]string{"10.0.0.1:2200", "10.0.0.2:2200"}).AnyTimes()
	transport.EXPECT().Send(gomock.Any(), []string{"10.0.0.2:2200"}, gomock.Any()).DoAndReturn(
		func(ctx context.Context, targets []string, payload []byte) ([]remoting.Reply, error) {
			<-ctx.Done()
			return []remoting.Reply{{Address: targets[0], Err: ctx.Err()}}, ctx.Err()
		},
	)

	m := newMarshaller()
	rpc := remoting.NewRPCManager(logger.New("testing"), transport, m, 20*time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, rpc.Timeout(), "timeout")

	f := newMember(t, remoting.NewLocalNetwork(), "10.0.0.9:2200", m)
	defer f.transport.Stop()

	start := time.Now()
	_, err := rpc.InvokeRemotely(context.Background(), nil, f.factory.NewClear(0), true)
	assert.Equal(t, fault.ErrReplicationTimeout, err, "timeout error")
	assert.True(t, fault.IsErrTimeout(err), "timeout class")
	assert.True(t, time.Since(start) < 5*time.Second, "waited too long")
	assert.Equal(t, uint64(1), rpc.Stats.Timeouts.Uint64(), "timeouts")
}

func TestRepliesArrivingAtDeadlineKept(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	m := newMarshaller()
	answer, err := m.Marshal(&remoting.SuccessfulResponse{Value: "done"})
	if nil != err {
		t.Fatalf("marshal error: %s", err)
	}

	// every reply is in although the deadline has passed by the time
	// the transport returns
	transport := mocks.NewMockTransport(ctl)
	transport.EXPECT().Address().Return("10.0.0.1:2200").AnyTimes()
	transport.EXPECT().Send(gomock.Any(), []string{"10.0.0.2:2200"}, gomock.Any()).DoAndReturn(
		func(ctx context.Context, targets []string, payload []byte) ([]remoting.Reply, error) {
			<-ctx.Done()
			return []remoting.Reply{{Address: targets[0], Payload: answer}}, nil
		},
	)

	rpc := remoting.NewRPCManager(logger.New("testing"), transport, m, 20*time.Millisecond)

	f := newMember(t, remoting.NewLocalNetwork(), "10.0.0.9:2200", m)
	defer f.transport.Stop()

	results, err := rpc.InvokeRemotely(context.Background(), []string{"10.0.0.2:2200"}, f.factory.NewClear(0), true)
	assert.Nil(t, err, "invoke error")
	assert.Equal(t, map[string]interface{}{"10.0.0.2:2200": "done"}, results, "results")
	assert.Equal(t, uint64(0), rpc.Stats.Timeouts.Uint64(), "timeouts")
}

func TestSyncTransportFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	transport := mocks.NewMockTransport(ctl)
	transport.EXPECT().Address().Return("10.0.0.1:2200").AnyTimes()
	transport.EXPECT().Send(gomock.Any(), []string{"10.0.0.2:2200"}, gomock.Any()).Return(
		[]remoting.Reply{{Address: "10.0.0.2:2200", Err: errors.New("connection reset")}}, nil,
	)
	transport.EXPECT().SendAsync([]string{"10.0.0.2:2200"}, gomock.Any()).Return(fault.ErrNotConnected)

	m := newMarshaller()
	rpc := remoting.NewRPCManager(logger.New("testing"), transport, m, 0)
	assert.Equal(t, remoting.DefaultSyncReplTimeout, rpc.Timeout(), "default timeout")

	f := newMember(t, remoting.NewLocalNetwork(), "10.0.0.9:2200", m)
	defer f.transport.Stop()

	_, err := rpc.InvokeRemotely(context.Background(), []string{"10.0.0.2:2200"}, f.factory.NewClear(0), true)
	assert.True(t, errors.Is(err, fault.ErrReplicationFailed), "failure: %v", err)

	_, err = rpc.InvokeRemotely(context.Background(), []string{"10.0.0.2:2200"}, f.factory.NewClear(0), false)
	assert.Equal(t, fault.ErrNotConnected, err, "async failure")
	assert.Equal(t, uint64(2), rpc.Stats.Failures.Uint64(), "failures")
}
