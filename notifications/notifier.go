// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifications

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/counter"
)

// default channel size of a subscription
const queueSize = 1000

// EventType - what happened
type EventType int

// the events
const (
	EntryCreated EventType = iota
	EntryModified
	EntryRemoved
	TransactionCompleted
)

// Event - one notification
type Event struct {
	Type          EventType
	CacheName     string
	Key           interface{} // entry events
	Value         interface{} // new value, nil on removal
	Previous      interface{} // old value, nil on creation
	OriginLocal   bool
	TransactionID string // empty outside a transaction
	Successful    bool   // TransactionCompleted
}

// Subscription - one receiver of events
type Subscription struct {
	Dropped counter.Counter // first for 64 bit alignment
	C       <-chan Event
	queue   chan Event
}

// Notifier - fan out events of one cache
type Notifier struct {
	sync.RWMutex
	log           *logger.L
	cacheName     string
	subscriptions []*Subscription
}

// New - create a notifier for a cache
func New(log *logger.L, cacheName string) *Notifier {
	return &Notifier{
		log:       log,
		cacheName: cacheName,
	}
}

// Subscribe - add a receiver, size <= 0 selects the default
func (n *Notifier) Subscribe(size int) *Subscription {
	if size <= 0 {
		size = queueSize
	}
	q := make(chan Event, size)
	s := &Subscription{
		C:     q,
		queue: q,
	}

	n.Lock()
	n.subscriptions = append(n.subscriptions, s)
	n.Unlock()
	return s
}

// Unsubscribe - remove a receiver and close its channel
func (n *Notifier) Unsubscribe(s *Subscription) {
	n.Lock()
	defer n.Unlock()

	for i, x := range n.subscriptions {
		if x == s {
			n.subscriptions = append(n.subscriptions[:i], n.subscriptions[i+1:]...)
			close(s.queue)
			return
		}
	}
}

// HasSubscribers - true if events would be delivered anywhere
func (n *Notifier) HasSubscribers() bool {
	if nil == n {
		return false
	}
	n.RLock()
	defer n.RUnlock()
	return 0 != len(n.subscriptions)
}

// Notify - deliver to every subscriber without blocking
func (n *Notifier) Notify(e Event) {
	if nil == n {
		return
	}
	e.CacheName = n.cacheName

	n.RLock()
	defer n.RUnlock()

	for _, s := range n.subscriptions {
		select {
		case s.queue <- e:
		default:
			s.Dropped.Increment()
			n.log.Warnf("subscriber queue full, dropped event: %d", e.Type)
		}
	}
}

// EntryWritten - created or modified depending on the previous value
func (n *Notifier) EntryWritten(key interface{}, value interface{}, previous interface{}, existed bool, originLocal bool, txID string) {
	t := EntryCreated
	if existed {
		t = EntryModified
	}
	n.Notify(Event{
		Type:          t,
		Key:           key,
		Value:         value,
		Previous:      previous,
		OriginLocal:   originLocal,
		TransactionID: txID,
	})
}

// EntryRemovedEvent - a key was removed
func (n *Notifier) EntryRemovedEvent(key interface{}, previous interface{}, originLocal bool, txID string) {
	n.Notify(Event{
		Type:          EntryRemoved,
		Key:           key,
		Previous:      previous,
		OriginLocal:   originLocal,
		TransactionID: txID,
	})
}

// TransactionCompletedEvent - a transaction finished on this member
func (n *Notifier) TransactionCompletedEvent(txID string, successful bool, originLocal bool) {
	n.Notify(Event{
		Type:          TransactionCompleted,
		OriginLocal:   originLocal,
		TransactionID: txID,
		Successful:    successful,
	})
}

// String - event type name
func (t EventType) String() string {
	switch t {
	case EntryCreated:
		return "EntryCreated"
	case EntryModified:
		return "EntryModified"
	case EntryRemoved:
		return "EntryRemoved"
	case TransactionCompleted:
		return "TransactionCompleted"
	default:
		return "*unknown*"
	}
}
