// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package marshal

// TypeID - wire discriminant of a marshallable object
type TypeID byte

// Version - the current stream version
const Version byte = 1

// primitive type ids, handled directly by the encoder
const (
	TypeNil     TypeID = 0
	TypeBool    TypeID = 1
	TypeInt64   TypeID = 2
	TypeUint64  TypeID = 3
	TypeFloat64 TypeID = 4
	TypeString  TypeID = 5
	TypeBytes   TypeID = 6
	TypeList    TypeID = 7

	lastPrimitive = TypeList
)

// registered type ids - all the allocated ranges are kept here so that
// a collision is visible in one place
const (
	// cache values and live entries, offset by entry.Kind
	TypeImmortalValue        TypeID = 16
	TypeMortalValue          TypeID = 17
	TypeTransientValue       TypeID = 18
	TypeTransientMortalValue TypeID = 19
	TypeImmortalEntry        TypeID = 20
	TypeMortalEntry          TypeID = 21
	TypeTransientEntry       TypeID = 22
	TypeTransientMortalEntry TypeID = 23

	TypeGlobalTransaction TypeID = 24
	TypeAtomicMap         TypeID = 25

	TypeFqn     TypeID = 26
	TypeNodeKey TypeID = 27

	TypePutOperation    TypeID = 28
	TypeRemoveOperation TypeID = 29
	TypeClearOperation  TypeID = 30
	TypeAtomicMapDelta  TypeID = 31

	// replicable commands occupy FirstCommand..LastCommand
	FirstCommand TypeID = 32
	LastCommand  TypeID = 63

	TypeSuccessfulResponse   TypeID = 64
	TypeExceptionResponse    TypeID = 65
	TypeUnsuccessfulResponse TypeID = 66
	TypeRequest              TypeID = 67
)

// Marshallable - implemented by every non-primitive value that can be
// written by an Encoder
type Marshallable interface {
	MarshalTypeID() TypeID
}
