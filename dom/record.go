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

import (
	"fmt"

	"github.com/karol11/ltm-go/ltm"
)

// Record is a dom node with named fields described by a Schema, the Go
// counterpart of the reference design's struct-kind TypeInfo plus its
// FieldInfo descriptors. Unlike the original, fields are not located by a
// byte offset into the struct: each discipline (owning, non-owning) is
// held in its own slice, and Schema.indexOf maps a field name to a slot.
type Record struct {
	ltm.Base
	schema    *Schema
	owning    []ltm.Owning[Node]
	nonOwning []ltm.NonOwning[Node]
}

// NewRecord allocates an empty Record of the given schema: every owning
// and non-owning field starts out nil.
func NewRecord(schema *Schema) *Record {
	return &Record{
		schema:    schema,
		owning:    make([]ltm.Owning[Node], schema.count(Owning)),
		nonOwning: make([]ltm.NonOwning[Node], schema.count(NonOwning)),
	}
}

func (r *Record) Schema() *Schema { return r.schema }

// Owning returns the current value of the named owning field.
func (r *Record) Owning(name string) (ltm.Owning[Node], error) {
	slot, ok := r.schema.indexOf(name, Owning)
	if !ok {
		return ltm.Owning[Node]{}, fmt.Errorf("dom: %s has no owning field %q", r.schema.Name, name)
	}
	return r.owning[slot], nil
}

// SetOwning releases whatever the named owning field previously held and
// installs v in its place.
func (r *Record) SetOwning(name string, v ltm.Owning[Node]) error {
	slot, ok := r.schema.indexOf(name, Owning)
	if !ok {
		return fmt.Errorf("dom: %s has no owning field %q", r.schema.Name, name)
	}
	r.owning[slot].Release()
	r.owning[slot] = v
	return nil
}

// NonOwning returns the current value of the named non-owning field.
func (r *Record) NonOwning(name string) (ltm.NonOwning[Node], error) {
	slot, ok := r.schema.indexOf(name, NonOwning)
	if !ok {
		return ltm.NonOwning[Node]{}, fmt.Errorf("dom: %s has no non-owning field %q", r.schema.Name, name)
	}
	return r.nonOwning[slot], nil
}

// SetNonOwning releases whatever the named non-owning field previously
// referenced and installs v in its place.
func (r *Record) SetNonOwning(name string, v ltm.NonOwning[Node]) error {
	slot, ok := r.schema.indexOf(name, NonOwning)
	if !ok {
		return fmt.Errorf("dom: %s has no non-owning field %q", r.schema.Name, name)
	}
	r.nonOwning[slot].Release()
	r.nonOwning[slot] = v
	return nil
}

// CloneInto deep-copies every owning field (joining the enclosing copy
// transaction, so internal cross-references between fields get rewired)
// and shallow-copies every non-owning field, registering each for
// possible commit-time redirection.
func (r *Record) CloneInto() (ltm.Managed, error) {
	clone := NewRecord(r.schema)
	for i := range r.owning {
		c, err := r.owning[i].CloneField()
		if err != nil {
			clone.Dispose()
			return nil, err
		}
		clone.owning[i] = c
	}
	for i := range r.nonOwning {
		ltm.CloneNonOwningField(&clone.nonOwning[i], r.nonOwning[i])
	}
	return clone, nil
}

// Dispose releases every owning and non-owning field.
func (r *Record) Dispose() {
	for i := range r.owning {
		r.owning[i].Release()
	}
	for i := range r.nonOwning {
		r.nonOwning[i].Release()
	}
}
