// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entry

import (
	"time"
)

// Kind - discriminant of the value family
type Kind byte

// the value families
const (
	Immortal        Kind = 0 // never expires
	Mortal          Kind = 1 // expires lifespan after created
	Transient       Kind = 2 // expires maxIdle after last use
	TransientMortal Kind = 3 // either of the above
)

// NoExpiry - sentinel for lifespan and maxIdle
const NoExpiry int64 = -1

// Value - a stored payload plus its lifecycle metadata
//
// all times are milliseconds since the Unix epoch, durations are
// milliseconds; timestamps that the kind does not use are -1
type Value struct {
	Kind     Kind
	Payload  interface{}
	Created  int64
	Lifespan int64
	LastUsed int64
	MaxIdle  int64
}

// Now - current time in milliseconds
func Now() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// NewImmortal - value that never expires
func NewImmortal(payload interface{}) Value {
	return Value{
		Kind:     Immortal,
		Payload:  payload,
		Created:  -1,
		Lifespan: NoExpiry,
		LastUsed: -1,
		MaxIdle:  NoExpiry,
	}
}

// NewMortal - value with a lifespan
func NewMortal(payload interface{}, created int64, lifespan int64) Value {
	return Value{
		Kind:     Mortal,
		Payload:  payload,
		Created:  created,
		Lifespan: lifespan,
		LastUsed: -1,
		MaxIdle:  NoExpiry,
	}
}

// NewTransient - value with a maximum idle time
func NewTransient(payload interface{}, lastUsed int64, maxIdle int64) Value {
	return Value{
		Kind:     Transient,
		Payload:  payload,
		Created:  -1,
		Lifespan: NoExpiry,
		LastUsed: lastUsed,
		MaxIdle:  maxIdle,
	}
}

// NewTransientMortal - value with both a lifespan and a maximum idle time
func NewTransientMortal(payload interface{}, created int64, lifespan int64, lastUsed int64, maxIdle int64) Value {
	return Value{
		Kind:     TransientMortal,
		Payload:  payload,
		Created:  created,
		Lifespan: lifespan,
		LastUsed: lastUsed,
		MaxIdle:  maxIdle,
	}
}

// CreateValue - choose the kind from the expiry sentinels
func CreateValue(payload interface{}, created int64, lifespan int64, lastUsed int64, maxIdle int64) Value {
	switch {
	case lifespan < 0 && maxIdle < 0:
		return NewImmortal(payload)
	case maxIdle < 0:
		return NewMortal(payload, created, lifespan)
	case lifespan < 0:
		return NewTransient(payload, lastUsed, maxIdle)
	default:
		return NewTransientMortal(payload, created, lifespan, lastUsed, maxIdle)
	}
}

// IsExpired - computed at the given time, never stored
func (v Value) IsExpired(now int64) bool {
	switch v.Kind {
	case Mortal:
		return v.lifespanExceeded(now)
	case Transient:
		return v.idleExceeded(now)
	case TransientMortal:
		return v.idleExceeded(now) || v.lifespanExceeded(now)
	default:
		return false
	}
}

func (v Value) lifespanExceeded(now int64) bool {
	return v.Lifespan >= 0 && now-v.Created > v.Lifespan
}

func (v Value) idleExceeded(now int64) bool {
	return v.MaxIdle >= 0 && now-v.LastUsed > v.MaxIdle
}

// CanExpire - false only for values that live forever
func (v Value) CanExpire() bool {
	switch v.Kind {
	case Mortal:
		return v.Lifespan >= 0
	case Transient:
		return v.MaxIdle >= 0
	case TransientMortal:
		return v.Lifespan >= 0 || v.MaxIdle >= 0
	default:
		return false
	}
}

// ExpiryTime - earliest time the value can expire, -1 if never
//
// a transient value can be pushed back by a later touch
func (v Value) ExpiryTime() int64 {
	expiry := int64(-1)
	if (Mortal == v.Kind || TransientMortal == v.Kind) && v.Lifespan >= 0 {
		expiry = v.Created + v.Lifespan
	}
	if (Transient == v.Kind || TransientMortal == v.Kind) && v.MaxIdle >= 0 {
		idle := v.LastUsed + v.MaxIdle
		if expiry < 0 || idle < expiry {
			expiry = idle
		}
	}
	return expiry
}

// ToEntry - the live form of this value
func (v Value) ToEntry(key interface{}) *Entry {
	return &Entry{
		Key:   key,
		Value: v,
	}
}

func (k Kind) String() string {
	switch k {
	case Immortal:
		return "Immortal"
	case Mortal:
		return "Mortal"
	case Transient:
		return "Transient"
	case TransientMortal:
		return "TransientMortal"
	default:
		return "*Unknown*"
	}
}
