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
	"fmt"
	"strconv"
	"strings"

	"github.com/karol11/ltm-go/dom"
	"github.com/karol11/ltm-go/ltm"
)

// Reader parses cml text produced by Writer back into a dom graph. Schemas
// must be registered by type name ahead of time, since the text format
// does not itself carry a full type descriptor the way a reflective
// runtime type registry would.
type Reader struct {
	schemas map[string]*dom.Schema
	strings *dom.Pool
	src     []rune
	pos     int
	labeled map[string]dom.Node
	refs    []pendingRef
}

type pendingRef struct {
	label string
	set   func(dom.Node)
}

// NewReader builds a Reader that resolves struct type names against
// schemas and interns string atoms through pool (so a value reread from
// text rejoins the same SHARED pool a live Pool.InternString caller would
// use).
func NewReader(schemas map[string]*dom.Schema, pool *dom.Pool) *Reader {
	return &Reader{schemas: schemas, strings: pool, labeled: make(map[string]dom.Node)}
}

// Parse reads one complete value from text and returns its root node.
func (r *Reader) Parse(text string) (dom.Node, error) {
	r.src = []rune(text)
	r.pos = 0
	root, err := r.parseValue()
	if err != nil {
		return nil, err
	}
	for _, p := range r.refs {
		n, ok := r.labeled[p.label]
		if !ok {
			return nil, fmt.Errorf("cml: unresolved reference &%s", p.label)
		}
		p.set(n)
	}
	return root, nil
}

func (r *Reader) parseValue() (dom.Node, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return nil, fmt.Errorf("cml: unexpected end of input")
	}
	switch {
	case r.peek() == '&':
		return r.parseRefAsNode()
	case r.peek() == '"':
		s, err := r.parseString()
		if err != nil {
			return nil, err
		}
		return r.strings.InternString(s), nil
	case r.peek() == '#':
		return r.parseArray()
	case isIdentStart(r.peek()):
		return r.parseIdentLed()
	default:
		return r.parseNumber()
	}
}

// parseIdentLed parses either a bare keyword (true/false) or a
// `Type#label{...}` struct literal.
func (r *Reader) parseIdentLed() (dom.Node, error) {
	ident := r.parseIdent()
	switch ident {
	case "true":
		return dom.NewBoolAtom(true), nil
	case "false":
		return dom.NewBoolAtom(false), nil
	}
	r.skipSpace()
	if r.peek() != '#' {
		return nil, fmt.Errorf("cml: expected '#' after type name %q", ident)
	}
	r.pos++
	label := r.parseIdent()
	schema, ok := r.schemas[ident]
	if !ok {
		return nil, fmt.Errorf("cml: unknown type %q", ident)
	}
	rec := dom.NewRecord(schema)
	r.labeled[label] = rec
	r.skipSpace()
	if err := r.expect('{'); err != nil {
		return nil, err
	}
	r.skipSpace()
	for r.peek() != '}' {
		name := r.parseIdent()
		nonOwning := false
		if r.peek() == '*' {
			nonOwning = true
			r.pos++
		}
		if err := r.expect(':'); err != nil {
			return nil, err
		}
		r.skipSpace()
		if nonOwning {
			fieldName := name
			if err := r.parseRefInto(func(n dom.Node) {
				var ref ltm.NonOwning[dom.Node]
				if n != nil {
					ref = ltm.NewNonOwning[dom.Node](n)
				}
				_ = rec.SetNonOwning(fieldName, ref)
			}); err != nil {
				return nil, err
			}
		} else {
			v, err := r.parseValue()
			if err != nil {
				return nil, err
			}
			if err := rec.SetOwning(name, ltm.NewOwning[dom.Node](v)); err != nil {
				return nil, err
			}
		}
		r.skipSpace()
		if r.peek() == ',' {
			r.pos++
			r.skipSpace()
		}
	}
	r.pos++ // consume '}'
	return rec, nil
}

func (r *Reader) parseArray() (dom.Node, error) {
	r.pos++ // consume '#'
	label := r.parseIdent()
	nonOwning := false
	if r.peek() == '*' {
		nonOwning = true
		r.pos++
	}
	if err := r.expect('['); err != nil {
		return nil, err
	}
	r.skipSpace()
	if nonOwning {
		var refs []ltm.NonOwning[dom.Node]
		for r.peek() != ']' {
			idx := len(refs)
			refs = append(refs, ltm.NonOwning[dom.Node]{})
			if err := r.parseRefInto(func(n dom.Node) {
				if n != nil {
					refs[idx] = ltm.NewNonOwning[dom.Node](n)
				}
			}); err != nil {
				return nil, err
			}
			r.skipSpace()
			if r.peek() == ',' {
				r.pos++
				r.skipSpace()
			}
		}
		r.pos++
		arr := dom.NewRefArray(refs)
		r.labeled[label] = arr
		return arr, nil
	}

	var items []ltm.Owning[dom.Node]
	for r.peek() != ']' {
		v, err := r.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, ltm.NewOwning[dom.Node](v))
		r.skipSpace()
		if r.peek() == ',' {
			r.pos++
			r.skipSpace()
		}
	}
	r.pos++
	arr := dom.NewOwningArray(items)
	r.labeled[label] = arr
	return arr, nil
}

// parseRefAsNode parses `&label` where the target is known to already be
// labeled (used when a reference appears where a value node is expected,
// i.e. as an array element of an owning array that happens to alias an
// earlier node).
func (r *Reader) parseRefAsNode() (dom.Node, error) {
	var result dom.Node
	err := r.parseRefInto(func(n dom.Node) { result = n })
	return result, err
}

func (r *Reader) parseRefInto(set func(dom.Node)) error {
	if err := r.expect('&'); err != nil {
		return err
	}
	const external = "?external?"
	if strings.HasPrefix(string(r.src[r.pos:]), external) {
		r.pos += len(external)
		set(nil)
		return nil
	}
	label := r.parseIdent()
	if label == "nil" {
		set(nil)
		return nil
	}
	if n, ok := r.labeled[label]; ok {
		set(n)
		return nil
	}
	r.refs = append(r.refs, pendingRef{label: label, set: set})
	return nil
}

func (r *Reader) parseString() (string, error) {
	if err := r.expect('"'); err != nil {
		return "", err
	}
	start := r.pos
	var b strings.Builder
	for r.pos < len(r.src) && r.src[r.pos] != '"' {
		if r.src[r.pos] == '\\' && r.pos+1 < len(r.src) {
			r.pos++
		}
		b.WriteRune(r.src[r.pos])
		r.pos++
	}
	if r.pos >= len(r.src) {
		return "", fmt.Errorf("cml: unterminated string starting at %d", start)
	}
	r.pos++ // consume closing quote
	return b.String(), nil
}

func (r *Reader) parseNumber() (dom.Node, error) {
	start := r.pos
	if r.peek() == '-' {
		r.pos++
	}
	isFloat := false
	for r.pos < len(r.src) && (isDigit(r.src[r.pos]) || r.src[r.pos] == '.') {
		if r.src[r.pos] == '.' {
			isFloat = true
		}
		r.pos++
	}
	text := string(r.src[start:r.pos])
	if text == "" {
		return nil, fmt.Errorf("cml: expected value at position %d", start)
	}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("cml: bad float %q: %w", text, err)
		}
		return dom.NewFloatAtom(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cml: bad int %q: %w", text, err)
	}
	return dom.NewIntAtom(i), nil
}

func (r *Reader) parseIdent() string {
	start := r.pos
	for r.pos < len(r.src) && isIdentPart(r.src[r.pos]) {
		r.pos++
	}
	return string(r.src[start:r.pos])
}

func (r *Reader) expect(c rune) error {
	r.skipSpace()
	if r.pos >= len(r.src) || r.src[r.pos] != c {
		return fmt.Errorf("cml: expected %q at position %d", c, r.pos)
	}
	r.pos++
	return nil
}

func (r *Reader) skipSpace() {
	for r.pos < len(r.src) && (r.src[r.pos] == ' ' || r.src[r.pos] == '\n' || r.src[r.pos] == '\t') {
		r.pos++
	}
}

func (r *Reader) peek() rune {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

func isDigit(c rune) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c rune) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c rune) bool  { return isIdentStart(c) || isDigit(c) }
