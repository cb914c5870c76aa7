// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package bcml

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/karol11/ltm-go/dom"
	"github.com/karol11/ltm-go/ltm"
)

// Reader parses a bcml stream produced by Writer. Schemas must be
// registered by name ahead of time, as in the cml codec.
type Reader struct {
	schemas map[string]*dom.Schema
	strings *dom.Pool
	src     []byte
	pos     int

	nodes   []dom.Node
	typeDef []*dom.Schema
}

// NewReader builds a Reader over an uncompressed bcml stream.
func NewReader(schemas map[string]*dom.Schema, pool *dom.Pool, r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bcml: reading stream: %w", err)
	}
	return newReader(schemas, pool, data)
}

// NewCompressedReader builds a Reader over a zstd-compressed bcml stream
// produced by a Writer built with NewCompressedWriter.
func NewCompressedReader(schemas map[string]*dom.Schema, pool *dom.Pool, r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("bcml: opening zstd decoder: %w", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("bcml: decompressing stream: %w", err)
	}
	return newReader(schemas, pool, data)
}

func newReader(schemas map[string]*dom.Schema, pool *dom.Pool, data []byte) (*Reader, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("bcml: bad magic header")
	}
	return &Reader{
		schemas: schemas,
		strings: pool,
		src:     data,
		pos:     len(magic),
	}, nil
}

// Parse reads one complete graph from the stream and returns its root.
func (r *Reader) Parse() (dom.Node, error) {
	return r.readEdge()
}

func (r *Reader) readEdge() (dom.Node, error) {
	tag, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	switch {
	case tag == edgeNil:
		return nil, nil
	case tag == edgeNew:
		return r.readNew()
	default:
		idx := int(tag - edgeBackref)
		if idx < 0 || idx >= len(r.nodes) {
			return nil, fmt.Errorf("bcml: back-reference to unknown node %d", idx)
		}
		return r.nodes[idx], nil
	}
}

func (r *Reader) readNew() (dom.Node, error) {
	kind, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch int(kind) {
	case kindAtom:
		return r.readAtom()
	case kindRecord:
		return r.readRecord()
	case kindArray:
		return r.readArray()
	default:
		return nil, fmt.Errorf("bcml: unknown node kind %d", kind)
	}
}

func (r *Reader) readAtom() (dom.Node, error) {
	kind, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch dom.AtomKind(kind) {
	case dom.AtomString:
		s, err := r.readString()
		if err != nil {
			return nil, err
		}
		return r.strings.InternString(s), nil
	case dom.AtomInt:
		v, err := r.readVarint()
		if err != nil {
			return nil, err
		}
		return dom.NewIntAtom(v), nil
	case dom.AtomFloat:
		if r.pos+8 > len(r.src) {
			return nil, fmt.Errorf("bcml: truncated float atom")
		}
		bits := binary.BigEndian.Uint64(r.src[r.pos : r.pos+8])
		r.pos += 8
		return dom.NewFloatAtom(math.Float64frombits(bits)), nil
	case dom.AtomBool:
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		return dom.NewBoolAtom(b != 0), nil
	default:
		return nil, fmt.Errorf("bcml: unknown atom kind %d", kind)
	}
}

// readRecord reserves its object-table slot before reading any field, so a
// non-owning field elsewhere in the same record that points back at it
// (spec.md §8 scenario 4, the self back-reference to the root) resolves
// correctly.
func (r *Reader) readRecord() (dom.Node, error) {
	schema, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	rec := dom.NewRecord(schema)
	r.nodes = append(r.nodes, rec)
	for _, f := range schema.Fields {
		child, err := r.readEdge()
		if err != nil {
			return nil, err
		}
		switch f.Kind {
		case dom.Owning:
			if err := rec.SetOwning(f.Name, ltm.NewOwning[dom.Node](child)); err != nil {
				return nil, err
			}
		case dom.NonOwning:
			var ref ltm.NonOwning[dom.Node]
			if child != nil {
				ref = ltm.NewNonOwning[dom.Node](child)
			}
			if err := rec.SetNonOwning(f.Name, ref); err != nil {
				return nil, err
			}
		}
	}
	return rec, nil
}

// readArray reserves its object-table slot up front to keep index
// numbering aligned with the writer, but (like the cml codec) cannot
// populate that slot until every element has been read: an Array's
// elements are fixed at construction. A non-owning reference from deeper
// in the same stream back to this array, read before the array itself has
// finished, resolves to nil rather than the array -- an accepted gap in
// this demonstration codec, not a supported self-reference.
func (r *Reader) readArray() (dom.Node, error) {
	kindByte, err := r.readByte()
	if err != nil {
		return nil, err
	}
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	idx := len(r.nodes)
	r.nodes = append(r.nodes, nil)

	var arr *dom.Array
	if kindByte == 1 {
		refs := make([]ltm.NonOwning[dom.Node], n)
		for i := range refs {
			child, err := r.readEdge()
			if err != nil {
				return nil, err
			}
			if child != nil {
				refs[i] = ltm.NewNonOwning[dom.Node](child)
			}
		}
		arr = dom.NewRefArray(refs)
	} else {
		items := make([]ltm.Owning[dom.Node], n)
		for i := range items {
			child, err := r.readEdge()
			if err != nil {
				return nil, err
			}
			items[i] = ltm.NewOwning[dom.Node](child)
		}
		arr = dom.NewOwningArray(items)
	}
	r.nodes[idx] = arr
	return arr, nil
}

// readSchema mirrors writeSchema: an index reference to an already-seen
// type, or a full definition (consumed in full even though the field
// names/kinds are only checked against, not merged into, the statically
// registered Schema of the same name).
func (r *Reader) readSchema() (*dom.Schema, error) {
	tag, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if tag != 0 {
		idx := int(tag - 1)
		if idx < 0 || idx >= len(r.typeDef) {
			return nil, fmt.Errorf("bcml: bad type reference %d", idx)
		}
		return r.typeDef[idx], nil
	}
	name, err := r.readString()
	if err != nil {
		return nil, err
	}
	nFields, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	schema, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("bcml: unknown type %q", name)
	}
	if nFields != uint64(len(schema.Fields)) {
		return nil, fmt.Errorf("bcml: type %q has %d fields in stream, %d registered", name, nFields, len(schema.Fields))
	}
	for i := uint64(0); i < nFields; i++ {
		fieldName, err := r.readString()
		if err != nil {
			return nil, err
		}
		fieldKind, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if f := schema.Fields[i]; f.Name != fieldName || byte(f.Kind) != fieldKind {
			return nil, fmt.Errorf("bcml: type %q field %d does not match the registered schema", name, i)
		}
	}
	r.typeDef = append(r.typeDef, schema)
	return schema, nil
}

func (r *Reader) readString() (string, error) {
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.src) {
		return "", fmt.Errorf("bcml: truncated string")
	}
	s := string(r.src[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.src) {
		return 0, fmt.Errorf("bcml: unexpected end of stream")
	}
	b := r.src[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.src[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("bcml: bad varint at offset %d", r.pos)
	}
	r.pos += n
	return v, nil
}

func (r *Reader) readVarint() (int64, error) {
	v, n := binary.Varint(r.src[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("bcml: bad varint at offset %d", r.pos)
	}
	r.pos += n
	return v, nil
}
