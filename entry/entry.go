// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"github.com/bitmark-inc/gridd/fault"
)

// Entry - a live cache entry, key plus value
//
// an entry belongs to exactly one container or store slot
type Entry struct {
	Key interface{}
	Value
}

// Create - new entry stamped with the current time
func Create(key interface{}, payload interface{}, now int64, lifespan int64, maxIdle int64) *Entry {
	return CreateValue(payload, now, lifespan, now, maxIdle).ToEntry(key)
}

// ToValue - the detached value of this entry
func (e *Entry) ToValue() Value {
	return e.Value
}

// Touch - record a read, only idle tracked kinds care
func (e *Entry) Touch(now int64) {
	if e.MaxIdle >= 0 && (Transient == e.Kind || TransientMortal == e.Kind) {
		e.LastUsed = now
	}
}

// Reincarnate - restart the lifespan
func (e *Entry) Reincarnate(now int64) {
	if Mortal == e.Kind || TransientMortal == e.Kind {
		e.Created = now
	}
}

// SetPayload - replace the payload keeping the metadata
func (e *Entry) SetPayload(payload interface{}) {
	e.Payload = payload
}

// SetLifespan - change the lifespan, moving to the matching kind
func (e *Entry) SetLifespan(now int64, lifespan int64) {
	created, lastUsed := e.timestamps(now)
	e.Value = CreateValue(e.Payload, created, lifespan, lastUsed, e.MaxIdle)
}

// SetMaxIdle - change the maximum idle time, moving to the matching kind
func (e *Entry) SetMaxIdle(now int64, maxIdle int64) {
	created, lastUsed := e.timestamps(now)
	e.Value = CreateValue(e.Payload, created, e.Lifespan, lastUsed, maxIdle)
}

func (e *Entry) timestamps(now int64) (int64, int64) {
	created := e.Created
	if created < 0 {
		created = now
	}
	lastUsed := e.LastUsed
	if lastUsed < 0 {
		lastUsed = now
	}
	return created, lastUsed
}

// the memcached convention: an expiry larger than this many seconds is
// an absolute Unix time
const secondsInAMonth = 60 * 60 * 24 * 30

// LifespanFromExpiry - convert a memcached style expiry in seconds to a
// lifespan in milliseconds
func LifespanFromExpiry(expiry int64, now int64) (int64, error) {
	switch {
	case 0 == expiry:
		return NoExpiry, nil
	case expiry < 0:
		return 0, fault.ErrExpiryInPast
	case expiry > secondsInAMonth:
		lifespan := expiry*1000 - now
		if lifespan <= 0 {
			return 0, fault.ErrExpiryInPast
		}
		return lifespan, nil
	default:
		return expiry * 1000, nil
	}
}
