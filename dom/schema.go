// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dom is a small reflective object model built on top of ltm: Atom
// (interned scalar values), Record (named fields described by a Schema) and
// Array (homogeneous sequences), connected by owning edges and Ref
// (non-owning) cross-links. It plays the role of the reference design's
// dom::TypeInfo/Dom type registry, simplified to a static, per-Go-type
// Schema rather than a runtime-constructed type graph.
package dom

import "github.com/karol11/ltm-go/ltm"

// Node is implemented by every value placed in a dom graph.
type Node interface {
	ltm.Managed
	// Schema describes the node's runtime type: its name and, for Record
	// nodes, its field layout.
	Schema() *Schema
}

// FieldKind distinguishes how a Record field is held relative to its
// owner, mirroring spec.md §6's three disciplines at the DOM layer. There
// is no separate "value" kind: an atom field is represented as an owning
// reference to a SHARED Atom, so copying it is always a retain, which is
// exactly what a value field's copy-by-value semantics require.
type FieldKind int

const (
	Owning FieldKind = iota
	NonOwning
)

// FieldSchema describes one named field of a Record type.
type FieldSchema struct {
	Name string
	Kind FieldKind
}

// Schema describes a dom type: its name, and for record types, its fields
// in declaration order. Array and Atom nodes use a Schema with no fields.
type Schema struct {
	Name   string
	Fields []FieldSchema
}

// indexOf returns the slot within its discipline's slice (owning or
// non-owning) for the named field, and ok=false if no such field exists.
func (s *Schema) indexOf(name string, kind FieldKind) (slot int, ok bool) {
	slot = 0
	for _, f := range s.Fields {
		if f.Kind != kind {
			continue
		}
		if f.Name == name {
			return slot, true
		}
		slot++
	}
	return 0, false
}

func (s *Schema) count(kind FieldKind) int {
	n := 0
	for _, f := range s.Fields {
		if f.Kind == kind {
			n++
		}
	}
	return n
}
