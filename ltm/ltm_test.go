// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ltm

import "testing"

// xrefNode is a minimal managed type used across this file's scenario
// tests, mirroring examples/3-association.cc's XrefNode: an owning left
// and right child plus a non-owning cross-reference.
type xrefNode struct {
	Base
	C           byte
	Left, Right Owning[*xrefNode]
	Xref        NonOwning[*xrefNode]
}

func newXrefNode(c byte) *xrefNode {
	n := &xrefNode{C: c}
	ensureInit(&n.h)
	return n
}

func (n *xrefNode) CloneInto() (Managed, error) {
	clone := &xrefNode{C: n.C}
	var err error
	if clone.Left, err = n.Left.CloneField(); err != nil {
		clone.Dispose()
		return nil, err
	}
	if clone.Right, err = n.Right.CloneField(); err != nil {
		clone.Dispose()
		return nil, err
	}
	CloneNonOwningField(&clone.Xref, n.Xref)
	return clone, nil
}

func (n *xrefNode) Dispose() {
	n.Left.Release()
	n.Right.Release()
	n.Xref.Release()
}

func TestLinearChain(t *testing.T) {
	// Build A -> B -> C via owning edges, copy A, expect three new
	// objects with independent identity (spec.md §8 scenario 1).
	c := newXrefNode('C')
	b := newXrefNode('B')
	b.Right = NewOwning[*xrefNode](c)
	a := newXrefNode('A')
	a.Right = NewOwning[*xrefNode](b)
	root := NewOwning[*xrefNode](a)

	clone, err := DeepCopy[*xrefNode](root.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	if clone.Get() == root.Get() {
		t.Fatalf("clone root aliases original root")
	}
	if RefCount(clone.Get()) != CounterStep>>4 {
		t.Fatalf("clone root refcount = %d, want 1", RefCount(clone.Get()))
	}
	bClone := clone.Get().Right.Get()
	cClone := bClone.Right.Get()
	if bClone == b || cClone == c {
		t.Fatalf("clone shares identity with original sub-tree")
	}
	if bClone.C != 'B' || cClone.C != 'C' {
		t.Fatalf("clone did not preserve value fields")
	}
	if a.Right.Get() != b || b.Right.Get() != c {
		t.Fatalf("original tree mutated by copy")
	}

	root.Release()
	clone.Release()
}

func TestInternalBackReference(t *testing.T) {
	// root(A) -> {B, C}; B.xref = C, C.xref = B. Copying root must
	// rewire both cross-references to point at the clones (scenario 2).
	b := newXrefNode('B')
	c := newXrefNode('C')
	root := newXrefNode('A')
	root.Left = NewOwning[*xrefNode](b)
	root.Right = NewOwning[*xrefNode](c)
	root.Left.Get().Xref = NewNonOwning[*xrefNode](root.Right.Get())
	root.Right.Get().Xref = NewNonOwning[*xrefNode](root.Left.Get())

	rootOwn := NewOwning[*xrefNode](root)
	clone, err := DeepCopy[*xrefNode](rootOwn.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	bClone := clone.Get().Left.Get()
	cClone := clone.Get().Right.Get()
	xb, ok := bClone.Xref.Get()
	if !ok || xb != cClone {
		t.Fatalf("clone's B.xref did not rewire to clone's C")
	}
	xc, ok := cClone.Xref.Get()
	if !ok || xc != bClone {
		t.Fatalf("clone's C.xref did not rewire to clone's B")
	}

	// Originals unaffected.
	ob, _ := root.Left.Get().Xref.Get()
	if ob != c {
		t.Fatalf("original B.xref was mutated by the copy")
	}

	rootOwn.Release()
	clone.Release()
}

func TestEscapingBackReference(t *testing.T) {
	// X is not under root; root(A) -> B, B.ref = X. Copying root must
	// leave B'.ref pointing at the same external X (scenario 3).
	x := NewOwning[*xrefNode](newXrefNode('X'))
	b := newXrefNode('B')
	b.Xref = NewNonOwning[*xrefNode](x.Get())
	root := newXrefNode('A')
	root.Left = NewOwning[*xrefNode](b)
	rootOwn := NewOwning[*xrefNode](root)

	clone, err := DeepCopy[*xrefNode](rootOwn.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	bClone := clone.Get().Left.Get()
	target, ok := bClone.Xref.Get()
	if !ok || target != x.Get() {
		t.Fatalf("escaping reference was rewired, want it unchanged")
	}

	rootOwn.Release()
	clone.Release()
	x.Release()
}

func TestSelfBackReferenceToRoot(t *testing.T) {
	// root(A) -> B, B.xref = A (the root itself). Copying root must
	// rewire B'.xref to the new root (scenario 4).
	root := newXrefNode('A')
	b := newXrefNode('B')
	root.Left = NewOwning[*xrefNode](b)
	root.Left.Get().Xref = NewNonOwning[*xrefNode](root)
	rootOwn := NewOwning[*xrefNode](root)

	clone, err := DeepCopy[*xrefNode](rootOwn.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	bClone := clone.Get().Left.Get()
	target, ok := bClone.Xref.Get()
	if !ok || target != clone.Get() {
		t.Fatalf("self back-reference to root did not rewire to the new root")
	}

	rootOwn.Release()
	clone.Release()
}

// sharedLeaf is a SHARED value-like object -- e.g. an interned style --
// always marked SHARED at construction, so it is never visited by the
// clone hook (spec.md §8 scenario 5).
type sharedLeaf struct {
	Base
	Name string
}

func newSharedLeaf(name string) *sharedLeaf {
	n := &sharedLeaf{Name: name}
	ensureInit(&n.h)
	MarkShared(n)
	return n
}

type textNode struct {
	Base
	Style NonOwning[*sharedLeaf]
}

func (n *textNode) CloneInto() (Managed, error) {
	clone := &textNode{}
	CloneNonOwningField(&clone.Style, n.Style)
	return clone, nil
}

func (n *textNode) Dispose() { n.Style.Release() }

type doc struct {
	Base
	Text1, Text2 Owning[*textNode]
}

func (d *doc) CloneInto() (Managed, error) {
	clone := &doc{}
	var err error
	if clone.Text1, err = d.Text1.CloneField(); err != nil {
		clone.Dispose()
		return nil, err
	}
	if clone.Text2, err = d.Text2.CloneField(); err != nil {
		clone.Dispose()
		return nil, err
	}
	return clone, nil
}

func (d *doc) Dispose() {
	d.Text1.Release()
	d.Text2.Release()
}

func TestSharedLeafNotCloned(t *testing.T) {
	style := newSharedLeaf("bold")
	t1 := &textNode{}
	t1.Style = NewNonOwning[*sharedLeaf](style)
	t2 := &textNode{}
	t2.Style = NewNonOwning[*sharedLeaf](style)
	d := &doc{}
	d.Text1 = NewOwning[*textNode](t1)
	d.Text2 = NewOwning[*textNode](t2)
	root := NewOwning[*doc](d)

	clone, err := DeepCopy[*doc](root.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	s1, ok1 := clone.Get().Text1.Get().Style.Get()
	s2, ok2 := clone.Get().Text2.Get().Style.Get()
	if !ok1 || !ok2 {
		t.Fatalf("style reference dereferenced to nil")
	}
	if s1 != style || s2 != style {
		t.Fatalf("SHARED leaf was cloned, want it retained unchanged")
	}
	if !IsShared(style) {
		t.Fatalf("SHARED flag lost")
	}

	root.Release()
	clone.Release()
}

func TestDestructionAfterOrphaning(t *testing.T) {
	// Build A, take a non-owning w = A. Drop all owning/pinning to A.
	// Expect A destroyed, w dereferences to null, the weak-block lives
	// until w itself is dropped (scenario 6).
	disposed := false
	a := &probeNode{onDispose: func() { disposed = true }}
	ensureInit(&a.h)
	owner := NewOwning[*probeNode](a)
	w := NewNonOwning[*probeNode](a)

	owner.Release()
	if !disposed {
		t.Fatalf("object was not destroyed after last owning reference dropped")
	}
	if _, ok := w.Get(); ok {
		t.Fatalf("weak reference still resolves after target destruction")
	}

	w.Release()
}

type probeNode struct {
	Base
	onDispose func()
}

func (n *probeNode) CloneInto() (Managed, error) { return &probeNode{}, nil }
func (n *probeNode) Dispose() {
	if n.onDispose != nil {
		n.onDispose()
	}
}

func TestRetainReleaseIdempotence(t *testing.T) {
	n := newXrefNode('N')
	owner := NewOwning[*xrefNode](n)
	before := RefCount(n)
	p := owner.Pinned()
	p.Release()
	if RefCount(n) != before {
		t.Fatalf("retain/release pairing left refcount = %d, want %d", RefCount(n), before)
	}
	owner.Release()
}

func TestSharedStability(t *testing.T) {
	s := newSharedLeaf("shared")
	first := NewOwning[*sharedLeaf](s)
	second, err := Adopt[*sharedLeaf](s)
	if err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}
	if first.Get() != second.Get() {
		t.Fatalf("owning a SHARED object produced a clone, want a retain")
	}
	if RefCount(s) != 2 {
		t.Fatalf("refcount after two owning references to a SHARED object = %d, want 2", RefCount(s))
	}
	first.Release()
	second.Release()
}
