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

// ArrayKind fixes whether every element of an Array is held owning or
// non-owning, the Go counterpart of the reference design's VAR_ARRAY
// element TypeInfo being itself an OWN or WEAK kind.
type ArrayKind int

const (
	ArrayOwning ArrayKind = iota
	ArrayNonOwning
)

var arraySchema = &Schema{Name: "Array"}

// Array is a sequence of owning or non-owning elements.
type Array struct {
	ltm.Base
	kind   ArrayKind
	owning []ltm.Owning[Node]
	refs   []ltm.NonOwning[Node]
}

// NewOwningArray builds an Array that owns every element in items; items
// is taken over by the Array (the caller must not use it afterward).
func NewOwningArray(items []ltm.Owning[Node]) *Array {
	return &Array{kind: ArrayOwning, owning: items}
}

// NewRefArray builds an Array whose elements are non-owning references;
// refs is taken over by the Array.
func NewRefArray(refs []ltm.NonOwning[Node]) *Array {
	return &Array{kind: ArrayNonOwning, refs: refs}
}

func (a *Array) Schema() *Schema { return arraySchema }
func (a *Array) Kind() ArrayKind { return a.kind }

func (a *Array) Len() int {
	if a.kind == ArrayOwning {
		return len(a.owning)
	}
	return len(a.refs)
}

// At returns element i and whether it currently resolves to a live node
// (always true for an owning array unless the slot itself is empty; for a
// non-owning array it is false once the referenced node has been
// destroyed).
func (a *Array) At(i int) (Node, bool) {
	if a.kind == ArrayOwning {
		v := a.owning[i].Get()
		return v, !a.owning[i].IsNil()
	}
	return a.refs[i].Get()
}

// CloneInto deep-copies an owning array's elements in a single copy
// transaction via ltm.CopyRange, batching the commit the same way the
// reference design's Object::copy(begin, end, dst) batches an element-wise
// container copy; a non-owning array's elements are shallow-copied and
// registered for possible redirection, exactly like any other non-owning
// field.
func (a *Array) CloneInto() (ltm.Managed, error) {
	switch a.kind {
	case ArrayOwning:
		dst := make([]ltm.Owning[Node], len(a.owning))
		if err := ltm.CopyRange[Node](dst, a.owning); err != nil {
			for i := range dst {
				dst[i].Release()
			}
			return nil, err
		}
		return &Array{kind: ArrayOwning, owning: dst}, nil
	default:
		refs := make([]ltm.NonOwning[Node], len(a.refs))
		for i := range a.refs {
			ltm.CloneNonOwningField(&refs[i], a.refs[i])
		}
		return &Array{kind: ArrayNonOwning, refs: refs}, nil
	}
}

// Dispose releases every element.
func (a *Array) Dispose() {
	for i := range a.owning {
		a.owning[i].Release()
	}
	for i := range a.refs {
		a.refs[i].Release()
	}
}
