// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/gridd/fault"
	"github.com/bitmark-inc/gridd/marshal"
	"github.com/bitmark-inc/gridd/tree"
)

func newMarshaller() *marshal.Marshaller {
	r := marshal.NewRegistry()
	tree.RegisterExternalizers(r)
	return marshal.New(r)
}

func TestFqn(t *testing.T) {
	f := tree.ParseFqn("/test//data/")
	assert.Equal(t, "/test/data", f.String(), "string")
	assert.Equal(t, []string{"test", "data"}, f.Elements(), "elements")
	assert.Equal(t, 2, f.Size(), "size")
	assert.Equal(t, "data", f.Name(), "name")
	assert.Equal(t, tree.ParseFqn("/test"), f.Parent(), "parent")
	assert.Equal(t, tree.Root, f.Parent().Parent(), "grandparent")
	assert.Equal(t, tree.Root, tree.Root.Parent(), "parent of root")

	assert.True(t, tree.ParseFqn("/").IsRoot(), "slash is root")
	assert.Equal(t, "/", tree.Root.String(), "root string")
	assert.Equal(t, 0, tree.Root.Size(), "root size")
	assert.Equal(t, []string{}, tree.Root.Elements(), "root elements")

	child, err := f.Child("leaf")
	assert.Nil(t, err, "child error")
	assert.Equal(t, "/test/data/leaf", child.String(), "child")
	assert.True(t, child.IsDescendantOf(f), "descendant")
	assert.True(t, child.IsDescendantOf(tree.Root), "descendant of root")
	assert.False(t, f.IsDescendantOf(child), "ancestor")
	assert.False(t, tree.ParseFqn("/test/database").IsDescendantOf(f), "common prefix")

	_, err = f.Child("a/b")
	assert.Equal(t, fault.ErrInvalidFqn, err, "separator in child")

	built, err := tree.NewFqn("test", "data")
	assert.Nil(t, err, "new error")
	assert.Equal(t, f, built, "same name")
	_, err = tree.NewFqn("test", "")
	assert.Equal(t, fault.ErrInvalidFqn, err, "empty element")
}

func TestNodeKeyWireForm(t *testing.T) {
	m := newMarshaller()
	f := tree.ParseFqn("/a/b")

	for _, contents := range []tree.Contents{tree.Data, tree.Structure} {
		key := tree.NodeKey{Fqn: f, Contents: contents}
		buffer, err := m.Marshal(key)
		assert.Nil(t, err, "%s: marshal error", contents)

		expected := []byte{
			marshal.Version,
			byte(marshal.TypeNodeKey),
			byte(marshal.TypeFqn), 2, 1, 'a', 1, 'b',
			byte(contents),
		}
		assert.Equal(t, expected, buffer, "%s: wire form", contents)

		v, err := m.Unmarshal(buffer)
		assert.Nil(t, err, "%s: unmarshal error", contents)
		assert.Equal(t, key, v, "%s: round trip", contents)
	}
	assert.Equal(t, byte(1), byte(tree.Data), "data byte")
	assert.Equal(t, byte(2), byte(tree.Structure), "structure byte")
}

func TestMalformedNodeKey(t *testing.T) {
	m := newMarshaller()

	buffer, _ := m.Marshal(tree.NodeKey{Fqn: tree.Root, Contents: tree.Data})
	buffer[len(buffer)-1] = 3
	_, err := m.Unmarshal(buffer)
	assert.Equal(t, fault.ErrMalformedStream, err, "unknown contents byte")

	_, err = m.Unmarshal(buffer[:len(buffer)-1])
	assert.True(t, fault.IsErrMarshal(err), "missing contents byte: %v", err)

	bad := []byte{marshal.Version, byte(marshal.TypeNodeKey), byte(marshal.TypeString), 1, 'x', 1}
	_, err = m.Unmarshal(bad)
	assert.Equal(t, fault.ErrMalformedStream, err, "name is not an fqn")

	bad = []byte{marshal.Version, byte(marshal.TypeFqn), 1, 3, 'a', '/', 'b'}
	_, err = m.Unmarshal(bad)
	assert.Equal(t, fault.ErrMalformedStream, err, "separator in element")
}

func TestPointerKeysNotMarshallable(t *testing.T) {
	m := newMarshaller()

	f := tree.Root
	_, err := m.Marshal(&f)
	assert.Equal(t, fault.ErrNotMarshallable, err, "pointer to fqn")

	k := tree.NodeKey{Fqn: tree.Root, Contents: tree.Data}
	_, err = m.Marshal(&k)
	assert.Equal(t, fault.ErrNotMarshallable, err, "pointer to node key")
}
