// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package bcml implements a compact binary serialization of dom graphs,
// grounded on original_source/src/dom/bcml_writer.cpp and bcml_reader.cpp.
// Unlike that reference writer, which packs a handful of tag bits into the
// high bits of each varint to save a byte or two, this codec keeps the tag
// and the payload in separate varints for readability; the object-table and
// type-table dedup strategy (every node and every Schema is written once,
// at first encounter, and referenced thereafter by a small integer index)
// is carried over unchanged.
//
// A node is written inline the first time any edge reaches it, whether
// that edge is owning or non-owning: like the reference writer, ownership
// of a given edge is recovered purely from the Schema the reader already
// holds (an Owning field is always deep-owned by its one writer; a
// NonOwning field is always a back-reference), so the stream itself does
// not need to tag edges as owning or weak.
package bcml

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/karol11/ltm-go/dom"
)

var magic = [4]byte{'B', 'C', 'M', '1'}

// edge tags, written ahead of every owning/non-owning field value.
const (
	edgeNil     = 0
	edgeNew     = 1
	edgeBackref = 2 // + node index
)

// node-kind tags, written immediately after an edgeNew tag so the reader
// knows which of the three node bodies follows.
const (
	kindAtom = iota
	kindRecord
	kindArray
)

// Writer serializes one dom graph per call to Write.
type Writer struct {
	out         io.Writer
	compress    bool
	content     bytes.Buffer
	index       map[dom.Node]int
	nextIndex   int
	schemaIndex map[*dom.Schema]int
	nextSchema  int
}

// NewWriter builds a Writer that streams its (uncompressed) output to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:         out,
		index:       make(map[dom.Node]int),
		schemaIndex: make(map[*dom.Schema]int),
	}
}

// NewCompressedWriter builds a Writer whose output is zstd-compressed
// before being written to out, for graphs large enough that the saved
// bytes matter more than being able to eyeball the stream.
func NewCompressedWriter(out io.Writer) *Writer {
	w := NewWriter(out)
	w.compress = true
	return w
}

// Write serializes the graph reachable from root.
func (w *Writer) Write(root dom.Node) error {
	w.content.Reset()
	w.index = make(map[dom.Node]int)
	w.schemaIndex = make(map[*dom.Schema]int)
	w.nextIndex, w.nextSchema = 0, 0
	w.content.Write(magic[:])
	if err := w.writeEdge(root); err != nil {
		return err
	}
	if !w.compress {
		_, err := w.out.Write(w.content.Bytes())
		return err
	}
	enc, err := zstd.NewWriter(w.out)
	if err != nil {
		return fmt.Errorf("bcml: opening zstd encoder: %w", err)
	}
	if _, err := enc.Write(w.content.Bytes()); err != nil {
		enc.Close()
		return fmt.Errorf("bcml: writing compressed stream: %w", err)
	}
	return enc.Close()
}

func (w *Writer) writeEdge(n dom.Node) error {
	if n == nil {
		w.writeUvarint(edgeNil)
		return nil
	}
	if a, ok := n.(*dom.Atom); ok {
		// Atoms are SHARED leaves that are cheap to re-encode, so (as in
		// the cml codec) they are never entered into the object table: a
		// value reused by several owning fields is simply repeated.
		w.writeUvarint(edgeNew)
		w.writeByte(kindAtom)
		return w.writeAtom(a)
	}
	if idx, seen := w.index[n]; seen {
		w.writeUvarint(uint64(edgeBackref) + uint64(idx))
		return nil
	}
	idx := w.nextIndex
	w.nextIndex++
	w.index[n] = idx
	w.writeUvarint(edgeNew)
	switch v := n.(type) {
	case *dom.Record:
		w.writeByte(kindRecord)
		return w.writeRecord(v)
	case *dom.Array:
		w.writeByte(kindArray)
		return w.writeArray(v)
	default:
		return fmt.Errorf("bcml: unsupported node type %T", n)
	}
}

func (w *Writer) writeRecord(r *dom.Record) error {
	w.writeSchema(r.Schema())
	for _, f := range r.Schema().Fields {
		switch f.Kind {
		case dom.Owning:
			field, err := r.Owning(f.Name)
			if err != nil {
				return err
			}
			if err := w.writeEdge(field.Get()); err != nil {
				return err
			}
		case dom.NonOwning:
			ref, err := r.NonOwning(f.Name)
			if err != nil {
				return err
			}
			target, ok := ref.Get()
			if !ok {
				target = nil
			}
			if err := w.writeEdge(target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeArray(a *dom.Array) error {
	if a.Kind() == dom.ArrayNonOwning {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
	w.writeUvarint(uint64(a.Len()))
	for i := 0; i < a.Len(); i++ {
		v, ok := a.At(i)
		if !ok {
			v = nil
		}
		if err := w.writeEdge(v); err != nil {
			return err
		}
	}
	return nil
}

// writeSchema writes a type reference: 0 followed by a full definition the
// first time a Schema is seen, or its (index+1) on every later use -- the
// same existing-vs-new distinction the reference writer's write_type makes
// for struct and array TypeInfo.
func (w *Writer) writeSchema(s *dom.Schema) {
	if idx, ok := w.schemaIndex[s]; ok {
		w.writeUvarint(uint64(idx) + 1)
		return
	}
	w.writeUvarint(0)
	w.writeString(s.Name)
	w.writeUvarint(uint64(len(s.Fields)))
	for _, f := range s.Fields {
		w.writeString(f.Name)
		w.writeByte(byte(f.Kind))
	}
	w.schemaIndex[s] = w.nextSchema
	w.nextSchema++
}

func (w *Writer) writeAtom(a *dom.Atom) error {
	w.writeByte(byte(a.Kind()))
	switch a.Kind() {
	case dom.AtomString:
		w.writeString(a.String())
	case dom.AtomInt:
		w.writeVarint(a.Int())
	case dom.AtomFloat:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(a.Float()))
		w.content.Write(buf[:])
	case dom.AtomBool:
		if a.Bool() {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
	default:
		return fmt.Errorf("bcml: unknown atom kind %d", a.Kind())
	}
	return nil
}

func (w *Writer) writeByte(b byte) {
	w.content.WriteByte(b)
}

func (w *Writer) writeUvarint(v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	w.content.Write(buf[:n])
}

func (w *Writer) writeVarint(v int64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	w.content.Write(buf[:n])
}

func (w *Writer) writeString(s string) {
	w.writeUvarint(uint64(len(s)))
	w.content.WriteString(s)
}
