// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dom

import "github.com/karol11/ltm-go/ltm"

// AtomKind identifies the scalar value an Atom carries.
type AtomKind int

const (
	AtomString AtomKind = iota
	AtomInt
	AtomFloat
	AtomBool
)

var atomSchema = &Schema{Name: "Atom"}

// Atom is an immutable scalar leaf. Every Atom is marked SHARED at
// construction (spec.md §8 scenario 5): an owning field holding an Atom
// never deep-copies it, it retains, which is what gives a "value" field
// its copy-by-value semantics for free once it is represented as an
// owning reference to a SHARED node.
type Atom struct {
	ltm.Base
	kind AtomKind
	str  string
	i    int64
	f    float64
	b    bool
}

func (a *Atom) Schema() *Schema { return atomSchema }

// CloneInto is unreachable in practice: a SHARED object is never visited
// by the copy transaction's clone hook (see cloneObject in package ltm).
// It is still provided, matching the value it returns to the receiver's
// own fields, so that an Atom constructed outside of a Pool and never
// marked SHARED still behaves correctly if cloned directly.
func (a *Atom) CloneInto() (ltm.Managed, error) {
	return &Atom{kind: a.kind, str: a.str, i: a.i, f: a.f, b: a.b}, nil
}

func (a *Atom) Kind() AtomKind { return a.kind }
func (a *Atom) String() string { return a.str }
func (a *Atom) Int() int64     { return a.i }
func (a *Atom) Float() float64 { return a.f }
func (a *Atom) Bool() bool     { return a.b }

// NewIntAtom, NewFloatAtom and NewBoolAtom build standalone SHARED atoms.
// Strings should normally go through a Pool instead, so that equal string
// values share one interned object (see pool.go).
func NewIntAtom(v int64) *Atom {
	a := &Atom{kind: AtomInt, i: v}
	ltm.MarkShared(a)
	return a
}

func NewFloatAtom(v float64) *Atom {
	a := &Atom{kind: AtomFloat, f: v}
	ltm.MarkShared(a)
	return a
}

func NewBoolAtom(v bool) *Atom {
	a := &Atom{kind: AtomBool, b: v}
	ltm.MarkShared(a)
	return a
}
