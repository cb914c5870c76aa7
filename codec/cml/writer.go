// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package cml implements a human-readable text serialization of dom
// graphs, grounded on original_source/src/dom/cml_writer.cpp and
// cml_reader.cpp. It writes records as `Type#label{field: value, ...}`,
// arrays as `#label[v1, v2]`, and non-owning references as `&label`. It is
// a demonstration codec (spec.md's core treats serialization as
// out-of-scope, specified only at interfaces): the grammar has no
// comments or macros, and a Ref whose target is never reached through an
// owning edge from the written root cannot be resolved.
package cml

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/karol11/ltm-go/dom"
)

// Writer serializes one dom graph per call to Write.
type Writer struct {
	out     io.Writer
	content strings.Builder
	labels  map[dom.Node]string
	pending map[dom.Node][]string
	nextID  int
	nextTok int
}

// NewWriter builds a Writer that streams its output to out once Write
// returns.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:     out,
		labels:  make(map[dom.Node]string),
		pending: make(map[dom.Node][]string),
	}
}

// Write serializes the owning sub-tree rooted at root. Non-owning
// references whose target lies outside that sub-tree are written as
// `&?external?` and must be resolved by the caller out of band.
func (w *Writer) Write(root dom.Node) error {
	w.content.Reset()
	w.labels = make(map[dom.Node]string)
	w.pending = make(map[dom.Node][]string)
	w.nextID, w.nextTok = 0, 0
	w.writeNode(root)
	for _, tokens := range w.pending {
		for _, tok := range tokens {
			w.patch(tok, "?external?")
		}
	}
	_, err := io.WriteString(w.out, w.content.String())
	return err
}

func (w *Writer) writeNode(n dom.Node) {
	if n == nil {
		w.content.WriteString("&nil")
		return
	}
	// Atoms are never labeled, so a Ref whose target is an Atom is
	// written as `&?external?`. A SHARED atom reused as several owning
	// "value" fields is simply written out again each time, rather than
	// risking a &label token no struct/array ever actually prints.
	if a, ok := n.(*dom.Atom); ok {
		w.writeAtomValue(a)
		return
	}
	if label, ok := w.labels[n]; ok {
		w.content.WriteString("&" + label)
		return
	}
	label := fmt.Sprintf("n%d", w.nextID)
	w.nextID++
	w.labels[n] = label
	// Resolve any forward references recorded before this node had a label.
	for _, tok := range w.pending[n] {
		w.patch(tok, label)
	}
	delete(w.pending, n)

	switch v := n.(type) {
	case *dom.Record:
		w.writeRecord(label, v)
	case *dom.Array:
		w.writeArray(label, v)
	default:
		panic(fmt.Sprintf("cml: unsupported node type %T", n))
	}
}

// patch rewrites every occurrence of a forward-reference token already
// emitted into the buffer to the label it has since been resolved to,
// mirroring the original writer's own deferred-patch approach to
// out-of-order non-owning references in a single linear pass.
func (w *Writer) patch(token, label string) {
	old := "&@" + token + "@"
	s := w.content.String()
	if !strings.Contains(s, old) {
		return
	}
	w.content.Reset()
	w.content.WriteString(strings.ReplaceAll(s, old, "&"+label))
}

func (w *Writer) writeRecord(label string, r *dom.Record) {
	w.content.WriteString(r.Schema().Name + "#" + label + "{")
	first := true
	for _, f := range r.Schema().Fields {
		if !first {
			w.content.WriteString(", ")
		}
		first = false
		switch f.Kind {
		case dom.Owning:
			field, _ := r.Owning(f.Name)
			w.content.WriteString(f.Name + ": ")
			w.writeNode(field.Get())
		case dom.NonOwning:
			ref, _ := r.NonOwning(f.Name)
			w.content.WriteString(f.Name + "*: ")
			target, ok := ref.Get()
			w.writeRef(target, ok)
		}
	}
	w.content.WriteString("}")
}

func (w *Writer) writeArray(label string, a *dom.Array) {
	if a.Kind() == dom.ArrayNonOwning {
		w.content.WriteString("#" + label + "*[")
	} else {
		w.content.WriteString("#" + label + "[")
	}
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			w.content.WriteString(", ")
		}
		if a.Kind() == dom.ArrayOwning {
			v, _ := a.At(i)
			w.writeNode(v)
		} else {
			v, ok := a.At(i)
			w.writeRef(v, ok)
		}
	}
	w.content.WriteString("]")
}

func (w *Writer) writeRef(v dom.Node, ok bool) {
	if !ok || v == nil {
		w.content.WriteString("&nil")
		return
	}
	if label, has := w.labels[v]; has {
		w.content.WriteString("&" + label)
		return
	}
	tok := fmt.Sprintf("t%d", w.nextTok)
	w.nextTok++
	w.pending[v] = append(w.pending[v], tok)
	w.content.WriteString("&@" + tok + "@")
}

func (w *Writer) writeAtomValue(a *dom.Atom) {
	switch a.Kind() {
	case dom.AtomString:
		w.content.WriteString(strconv.Quote(a.String()))
	case dom.AtomInt:
		w.content.WriteString(strconv.FormatInt(a.Int(), 10))
	case dom.AtomFloat:
		w.content.WriteString(strconv.FormatFloat(a.Float(), 'g', -1, 64))
	case dom.AtomBool:
		w.content.WriteString(strconv.FormatBool(a.Bool()))
	}
}
