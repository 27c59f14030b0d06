// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remoting

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/gridd/commands"
	"github.com/bitmark-inc/gridd/counter"
	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

const (
	requestMemory        = 2 * time.Minute
	requestMemoryCleanup = 1 * time.Minute
	requestBurst         = 100

	reasonCacheNotRunning = "cache not running"
	reasonInProgress      = "duplicate request in progress"
)

// Caches - the caches running on this member
type Caches interface {
	Factory(cacheName string) (*commands.Factory, bool)
}

// HandlerStatistics - inbound totals
type HandlerStatistics struct {
	Requests   counter.Counter
	Failures   counter.Counter
	Duplicates counter.Counter
	Ignored    counter.Counter
	Rejected   counter.Counter
}

// InboundHandler - performs commands received from other members
type InboundHandler struct {
	Stats HandlerStatistics

	log        *logger.L
	marshaller *marshal.Marshaller
	caches     Caches
	seen       *cache.Cache
	limiter    *rate.Limiter
}

// NewInboundHandler - create a handler, a maximumRate of zero means
// unlimited requests per second
func NewInboundHandler(log *logger.L, m *marshal.Marshaller, caches Caches, maximumRate float64) *InboundHandler {
	h := &InboundHandler{
		log:        log,
		marshaller: m,
		caches:     caches,
		seen:       cache.New(requestMemory, requestMemoryCleanup),
	}
	if maximumRate > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(maximumRate), requestBurst)
	}
	return h
}

// Handle - decode, perform and answer one request
func (h *InboundHandler) Handle(ctx context.Context, origin string, payload []byte) []byte {
	h.Stats.Requests.Increment()

	if nil != h.limiter && !h.limiter.Allow() {
		h.Stats.Rejected.Increment()
		return h.exception(fault.ErrRateLimiting)
	}

	v, err := h.marshaller.Unmarshal(payload)
	if nil != err {
		h.Stats.Failures.Increment()
		h.log.Warnf("from: %s  unmarshal error: %s", origin, err)
		return h.exception(err)
	}
	request, ok := v.(*Request)
	if !ok {
		h.Stats.Failures.Increment()
		h.log.Warnf("from: %s  not a request: %T", origin, v)
		return h.exception(fault.ErrMalformedStream)
	}

	key := request.ID.String()
	if err := h.seen.Add(key, nil, cache.DefaultExpiration); nil != err {
		h.Stats.Duplicates.Increment()
		h.log.Debugf("from: %s  duplicate request: %s", origin, key)
		if previous, found := h.seen.Get(key); found {
			if response, ok := previous.([]byte); ok {
				return response
			}
		}
		return h.unsuccessful(reasonInProgress)
	}

	response := h.dispatch(ctx, origin, request.Command)
	h.seen.Set(key, response, cache.DefaultExpiration)
	return response
}

func (h *InboundHandler) dispatch(ctx context.Context, origin string, v interface{}) []byte {
	cmd, ok := v.(commands.CacheRPCCommand)
	if !ok {
		h.Stats.Failures.Increment()
		h.log.Warnf("from: %s  not a cache command: %T", origin, v)
		return h.exception(fault.ErrInvalidCommand)
	}

	factory, ok := h.caches.Factory(cmd.CacheName())
	if !ok {
		h.Stats.Ignored.Increment()
		h.log.Debugf("from: %s  cache: %q not running", origin, cmd.CacheName())
		return h.unsuccessful(reasonCacheNotRunning)
	}
	if err := factory.Initialise(cmd); nil != err {
		h.Stats.Failures.Increment()
		return h.exception(err)
	}

	result, err := h.perform(ctx, factory, origin, cmd)
	if nil != err {
		h.Stats.Failures.Increment()
		h.log.Warnf("from: %s  cache: %q  command: %s  error: %s", origin, cmd.CacheName(), cmd.CommandID(), err)
		return h.exception(err)
	}

	buffer, err := h.marshaller.Marshal(&SuccessfulResponse{Value: result})
	if nil != err {
		h.Stats.Failures.Increment()
		h.log.Errorf("cache: %q  command: %s  marshal result error: %s", cmd.CacheName(), cmd.CommandID(), err)
		return h.exception(err)
	}
	return buffer
}

func (h *InboundHandler) perform(ctx context.Context, factory *commands.Factory, origin string, cmd commands.ReplicableCommand) (result interface{}, err error) {
	defer func() {
		if r := recover(); nil != r {
			result = nil
			err = fault.Recovered("perform "+cmd.CommandID().String(), r)
		}
	}()

	ctx, ic := factory.Components().Contexts.CreateRemoteInvocationContext(ctx, origin)
	return cmd.Perform(ctx, ic)
}

func (h *InboundHandler) exception(err error) []byte {
	buffer, e := h.marshaller.Marshal(&ExceptionResponse{
		Class:   fault.ClassOf(err),
		Message: err.Error(),
	})
	fault.PanicIfError("marshal exception response", e)
	return buffer
}

func (h *InboundHandler) unsuccessful(reason string) []byte {
	buffer, err := h.marshaller.Marshal(&UnsuccessfulResponse{Reason: reason})
	fault.PanicIfError("marshal unsuccessful response", err)
	return buffer
}
