// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tree

import (
	"strings"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
)

const separator = "/"

// Fqn - fully qualified name of a node, the path of names from the
// root; comparable so it can be part of a cache key
type Fqn struct {
	path string // elements joined by separator, empty for the root
}

// Root - the name of the root node
var Root = Fqn{}

// NewFqn - name from its elements
func NewFqn(elements ...string) (Fqn, error) {
	for _, e := range elements {
		if "" == e || strings.Contains(e, separator) {
			return Root, fault.ErrInvalidFqn
		}
	}
	return Fqn{path: strings.Join(elements, separator)}, nil
}

// ParseFqn - name from "/a/b/c", empty elements are ignored
func ParseFqn(s string) Fqn {
	elements := []string{}
	for _, e := range strings.Split(s, separator) {
		if "" != e {
			elements = append(elements, e)
		}
	}
	return Fqn{path: strings.Join(elements, separator)}
}

// MarshalTypeID - wire type
func (f Fqn) MarshalTypeID() marshal.TypeID {
	return marshal.TypeFqn
}

// Elements - the names from the root down
func (f Fqn) Elements() []string {
	if f.IsRoot() {
		return []string{}
	}
	return strings.Split(f.path, separator)
}

// Size - number of elements
func (f Fqn) Size() int {
	if f.IsRoot() {
		return 0
	}
	return strings.Count(f.path, separator) + 1
}

// IsRoot - true for the root
func (f Fqn) IsRoot() bool {
	return "" == f.path
}

// Name - last element, empty for the root
func (f Fqn) Name() string {
	i := strings.LastIndex(f.path, separator)
	return f.path[i+1:]
}

// Parent - the name one level up, the root is its own parent
func (f Fqn) Parent() Fqn {
	i := strings.LastIndex(f.path, separator)
	if i < 0 {
		return Root
	}
	return Fqn{path: f.path[:i]}
}

// Child - the name of a direct child
func (f Fqn) Child(name string) (Fqn, error) {
	if "" == name || strings.Contains(name, separator) {
		return Root, fault.ErrInvalidFqn
	}
	if f.IsRoot() {
		return Fqn{path: name}, nil
	}
	return Fqn{path: f.path + separator + name}, nil
}

// IsDescendantOf - true if f is below ancestor
func (f Fqn) IsDescendantOf(ancestor Fqn) bool {
	if f.IsRoot() {
		return false
	}
	if ancestor.IsRoot() {
		return true
	}
	return strings.HasPrefix(f.path, ancestor.path+separator)
}

// String - "/a/b/c"
func (f Fqn) String() string {
	return separator + f.path
}
