// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cml

import (
	"strings"
	"testing"

	"github.com/karol11/ltm-go/dom"
	"github.com/karol11/ltm-go/ltm"
)

var pairSchema = &dom.Schema{
	Name: "Pair",
	Fields: []dom.FieldSchema{
		{Name: "left", Kind: dom.Owning},
		{Name: "right", Kind: dom.Owning},
		{Name: "link", Kind: dom.NonOwning},
	},
}

func schemaRegistry() map[string]*dom.Schema {
	return map[string]*dom.Schema{"Pair": pairSchema}
}

func TestWriteReadRoundTripsBackReference(t *testing.T) {
	pool := dom.NewPool(16)
	left := dom.NewRecord(pairSchema)
	right := dom.NewRecord(pairSchema)
	_ = left.SetOwning("left", ltm.NewOwning[dom.Node](pool.InternString("L")))
	_ = right.SetOwning("left", ltm.NewOwning[dom.Node](pool.InternString("R")))
	_ = left.SetNonOwning("link", ltm.NewNonOwning[dom.Node](right))

	root := dom.NewRecord(pairSchema)
	_ = root.SetOwning("left", ltm.NewOwning[dom.Node](left))
	_ = root.SetOwning("right", ltm.NewOwning[dom.Node](right))

	var buf strings.Builder
	if err := NewWriter(&buf).Write(root); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	text := buf.String()
	if strings.Contains(text, "?external?") {
		t.Fatalf("internal reference incorrectly marked external: %s", text)
	}

	got, err := NewReader(schemaRegistry(), dom.NewPool(16)).Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	gotRoot, ok := got.(*dom.Record)
	if !ok {
		t.Fatalf("parsed root is not a *dom.Record: %T", got)
	}
	gotLeftField, _ := gotRoot.Owning("left")
	gotLeft := gotLeftField.Get().(*dom.Record)
	gotRightField, _ := gotRoot.Owning("right")
	gotRight := gotRightField.Get()

	link, _ := gotLeft.NonOwning("link")
	linked, ok := link.Get()
	if !ok {
		t.Fatalf("roundtripped link ref does not resolve")
	}
	if linked != gotRight {
		t.Fatalf("roundtripped link ref does not point at the parsed right sibling")
	}
}

func TestWriteEscapingReferenceMarksExternal(t *testing.T) {
	pool := dom.NewPool(16)
	outside := dom.NewRecord(pairSchema)
	_ = outside.SetOwning("left", ltm.NewOwning[dom.Node](pool.InternString("outside")))

	root := dom.NewRecord(pairSchema)
	_ = root.SetOwning("left", ltm.NewOwning[dom.Node](pool.InternString("root")))
	_ = root.SetNonOwning("link", ltm.NewNonOwning[dom.Node](outside))

	var buf strings.Builder
	if err := NewWriter(&buf).Write(root); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "&?external?") {
		t.Fatalf("expected escaping reference to be written as external, got: %s", buf.String())
	}
}
