// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/karol11/ltm-go/dom"
	"github.com/karol11/ltm-go/ltm"
)

// nodeSchema backs every scenario below (shared-leaf roots two of its
// records in a plain Array): value is an owning "payload" field (an interned
// Atom), next chains the owning list, and link is a free-standing
// non-owning slot each scenario repurposes differently.
var nodeSchema = &dom.Schema{
	Name: "Node",
	Fields: []dom.FieldSchema{
		{Name: "value", Kind: dom.Owning},
		{Name: "next", Kind: dom.Owning},
		{Name: "link", Kind: dom.NonOwning},
	},
}

// schemaRegistry is shared by every codec Reader constructed by this tool.
func schemaRegistry() map[string]*dom.Schema {
	return map[string]*dom.Schema{nodeSchema.Name: nodeSchema}
}

func newNode(pool *dom.Pool, value string, next *dom.Record) *dom.Record {
	r := dom.NewRecord(nodeSchema)
	_ = r.SetOwning("value", ltm.NewOwning[dom.Node](pool.InternString(value)))
	if next != nil {
		_ = r.SetOwning("next", ltm.NewOwning[dom.Node](next))
	}
	return r
}

// buildScenario constructs one of spec.md §8's concrete graphs by name,
// rooted at the dom.Node a codec writer should be pointed at.
func buildScenario(name string, pool *dom.Pool) (dom.Node, error) {
	switch name {
	case "chain":
		c := newNode(pool, "c", nil)
		b := newNode(pool, "b", c)
		a := newNode(pool, "a", b)
		return a, nil

	case "backref":
		c := newNode(pool, "c", nil)
		b := newNode(pool, "b", c)
		_ = b.SetNonOwning("link", ltm.NewNonOwning[dom.Node](c))
		a := newNode(pool, "a", b)
		return a, nil

	case "escape":
		outside := newNode(pool, "outside", nil)
		inside := newNode(pool, "inside", nil)
		_ = inside.SetNonOwning("link", ltm.NewNonOwning[dom.Node](outside))
		root := newNode(pool, "root", inside)
		return root, nil

	case "self-backref":
		root := newNode(pool, "root", nil)
		_ = root.SetNonOwning("link", ltm.NewNonOwning[dom.Node](root))
		return root, nil

	case "shared-leaf":
		leaf := pool.InternString("leaf")
		a := newNode(pool, "a", nil)
		_ = a.SetOwning("value", ltm.NewOwning[dom.Node](leaf))
		b := newNode(pool, "b", nil)
		_ = b.SetOwning("value", ltm.NewOwning[dom.Node](leaf))
		items := []ltm.Owning[dom.Node]{
			ltm.NewOwning[dom.Node](a),
			ltm.NewOwning[dom.Node](b),
		}
		return dom.NewOwningArray(items), nil

	default:
		return nil, fmt.Errorf("ltmtool: unknown scenario %q (want chain, backref, escape, self-backref, shared-leaf, or orphan)", name)
	}
}

// runOrphanDemo builds a two-node chain, cuts the parent's owning edge to
// the child (orphaning it), and reports whether the child was finalized as
// a result -- spec.md §8's destruction-after-orphaning scenario does not
// serialize to a useful graph, so it is reported as text instead of run
// through a codec.
func runOrphanDemo(pool *dom.Pool) string {
	child := newNode(pool, "child", nil)
	parent := ltm.NewOwning[dom.Node](newNode(pool, "parent", child))

	before := ltm.RefCount(child)

	parentRec := parent.Get().(*dom.Record)
	_ = parentRec.SetOwning("next", ltm.Owning[dom.Node]{}) // drop the only owning edge to child
	after := ltm.RefCount(child)
	finalized := after == 0

	parent.Release()
	return fmt.Sprintf("child refcount before orphaning: %d, after: %d, finalized: %v", before, after, finalized)
}
