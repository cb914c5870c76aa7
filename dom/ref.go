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

// Ref is the DOM-level non-owning association: a thin wrapper over
// ltm.NonOwning[Node] used for cross-links such as a tree node's "parent"
// or "next sibling" back-reference -- exactly the case spec.md §8 scenarios
// 2 through 4 exercise at the ltm layer.
type Ref struct {
	w ltm.NonOwning[Node]
}

// NewRef builds a Ref to target, materializing its weak-block if needed.
func NewRef(target Node) Ref {
	return Ref{w: ltm.NewNonOwning[Node](target)}
}

// IsNil reports whether r holds no weak-block, i.e. was never constructed
// from a live target.
func (r Ref) IsNil() bool { return r.w.IsNil() }

// Get dereferences r, returning false if the target has been destroyed.
func (r Ref) Get() (Node, bool) { return r.w.Get() }

// Dup returns an independent Ref sharing the same weak-block.
func (r Ref) Dup() Ref { return Ref{w: r.w.Dup()} }

// Release drops this Ref's retain on its weak-block.
func (r *Ref) Release() { r.w.Release() }

// CloneRefField populates dst (a field inside a clone being built by
// CloneInto) from src, registering it for possible commit-time redirection
// -- the dom-level equivalent of ltm.CloneNonOwningField.
func CloneRefField(dst *Ref, src Ref) {
	ltm.CloneNonOwningField(&dst.w, src.w)
}
