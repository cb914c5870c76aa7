// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ltm implements a lifetime- and ownership-management substrate for
// in-memory object graphs that mix composition (a strict ownership tree),
// shared values (reference-counted leaves marked SHARED) and association
// (non-owning back-references). Its central contribution is a
// semantics-preserving deep-copy: duplicating an owned sub-tree clones every
// object in it exactly once and rewrites any non-owning reference whose
// target lies inside the copied region to point at the corresponding clone,
// while references escaping the region are left untouched.
//
// The runtime is specified for single-threaded, cooperative use: there are
// no atomic operations or memory barriers in the core contract, and the
// copy transaction below is scoped by plain (non-atomic) package state.
package ltm

import (
	"fmt"
	"reflect"
)

// Flag bits packed into the low bits of a Header's flags-and-count word.
// The COUNTER occupies the remaining high bits and is incremented in units
// of CounterStep per retain.
const (
	flagWeakless = uintptr(1) // word holds an inline counter, no weak-block exists
	flagOwned    = uintptr(2) // object is reachable through an owning reference
	flagShared   = uintptr(4) // copies of an owning reference act as retains
	flagAtomic   = uintptr(8) // reserved: weak-block carries atomic counters

	// CounterStep is the unit by which the reference counter is
	// incremented/decremented on every retain/release.
	CounterStep = uintptr(16)
)

// Header is the one-slot-per-object state word described by the lifetime
// contract: either an inline counter plus flag bits, or (once a non-owning
// reference has been taken) a pointer to a weakBlock holding the real
// counter. Go's garbage collector requires a real pointer field to keep a
// weakBlock reachable, so unlike the union-typed word of the reference
// design, Header keeps the weak-block pointer in its own field rather than
// overlaying it on the counter; the bit layout and transition rules are
// otherwise unchanged. Embed Header in every managed type via Base.
type Header struct {
	word uintptr    // flags + counter, valid only while weak == nil
	weak *weakBlock // non-nil once a non-owning reference has been taken
}

// Managed is implemented by every type placed under lifetime-manager
// control. Types obtain ltmHeader by embedding Base and must provide
// CloneInto (the "clone hook": allocate a fresh instance of the exact
// runtime type, deep-copying value fields) and Dispose (the "disposer":
// release every owning/non-owning field so the teardown of an owning
// sub-tree cascades).
type Managed interface {
	ltmHeader() *Header
	// CloneInto allocates and returns a new instance of the receiver's
	// exact runtime type. Value fields are copied directly; owning and
	// non-owning fields must be populated via CloneField/CloneNonOwningField
	// so they join the enclosing copy transaction. If cloning an owning
	// field fails partway through, CloneInto must call Dispose on the
	// partially-built destination itself (releasing whatever fields it
	// already set) and return a nil Managed alongside the error, so the
	// transaction can abort cleanly with no dangling counts.
	CloneInto() (Managed, error)
	// Dispose releases every owning and non-owning field held directly by
	// the receiver. It is invoked exactly once, when the receiver's
	// reference count reaches zero.
	Dispose()
}

// Base is embedded by every managed type to obtain storage for the
// lifetime header and stub implementations of the virtual clone hook and
// disposer, mirroring how the original design's Proxy base stubs out
// copy_to for capability-only types.
type Base struct {
	h Header
}

func (b *Base) ltmHeader() *Header { return &b.h }

// CloneInto panics unless overridden. Concrete managed types must provide
// their own CloneInto; only types that are always SHARED (and therefore
// never reach the clone hook, see cloneObject) may rely on this stub.
func (b *Base) CloneInto() (Managed, error) {
	panic("ltm: CloneInto not implemented; embed Base but define your own CloneInto")
}

// Dispose is a no-op default for types with no owning or non-owning fields.
func (b *Base) Dispose() {}

func header(o Managed) *Header {
	return o.ltmHeader()
}

// isNilManaged reports whether a Managed value holds no concrete object,
// handling both a literal nil interface and a typed-nil pointer stored in
// an interface (the latter arises routinely since Owning[T]/Pinning[T] are
// generic over concrete pointer types implementing Managed).
func isNilManaged(o Managed) bool {
	if o == nil {
		return true
	}
	switch v := reflect.ValueOf(o); v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func flagsAndCount(h *Header) uintptr {
	if h.weak == nil {
		return h.word
	}
	return h.weak.orgCounter
}

func setFlagsAndCount(h *Header, v uintptr) {
	if h.weak == nil {
		h.word = v
	} else {
		h.weak.orgCounter = v
	}
}

func hasFlag(h *Header, bit uintptr) bool {
	return flagsAndCount(h)&bit != 0
}

func setFlag(h *Header, bit uintptr) {
	setFlagsAndCount(h, flagsAndCount(h)|bit)
}

// ensureInit lazily applies the "Create" lifecycle step (spec: allocate +
// construct with state word COUNTER_STEP + WEAKLESS) to a Header that has
// never been attached to any pointer discipline. A Header is considered
// uninitialized exactly when it is still the Go zero value.
func ensureInit(h *Header) {
	if h.word == 0 && h.weak == nil {
		h.word = CounterStep | flagWeakless
	}
}

// count returns the live reference count encoded in the header's
// flags-and-count word.
func count(h *Header) uintptr {
	return flagsAndCount(h) >> 4
}

// Retain increments o's reference count by one CounterStep and returns o,
// mirroring Object::retain. Retain is a no-op on a nil Managed.
func Retain[T Managed](o T) T {
	if isNilManaged(o) {
		return o
	}
	h := header(o)
	ensureInit(h)
	fc := flagsAndCount(h)
	if fc+CounterStep < fc {
		panic(fmt.Sprintf("ltm: counter overflow retaining %T", o))
	}
	setFlagsAndCount(h, fc+CounterStep)
	return o
}

// Release decrements o's reference count by one CounterStep; if the count
// reaches zero the object is finalized: any weak-block is detached (its
// target nulled and its self-reference released) and then o.Dispose() is
// invoked. Release is a no-op on a nil Managed.
func Release(o Managed) {
	if isNilManaged(o) {
		return
	}
	h := header(o)
	ensureInit(h)
	fc := flagsAndCount(h)
	if fc>>4 == 0 {
		panic(fmt.Sprintf("ltm: release of already-dead object %T", o))
	}
	fc -= CounterStep
	if fc>>4 == 0 {
		finalize(o, h, fc)
		return
	}
	setFlagsAndCount(h, fc)
}

func finalize(o Managed, h *Header, remainingFlags uintptr) {
	if h.weak != nil {
		wb := h.weak
		wb.target = nil
		setFlagsAndCount(h, remainingFlags) // preserve flags in the (now orphaned) weak-block
		releaseWeakBlockSelf(wb)
	} else {
		h.word = remainingFlags
	}
	o.Dispose()
}

// setOwned marks o as reachable through an owning reference. Once set, it
// is only cleared by destruction (it is never cleared explicitly).
func setOwned(o Managed) {
	if isNilManaged(o) {
		return
	}
	h := header(o)
	ensureInit(h)
	setFlag(h, flagOwned)
}

// MarkShared marks o SHARED: owning references to o retain rather than
// deep-copy, and o is never visited by the clone hook during a copy
// transaction (spec.md "SHARED stability").
func MarkShared(o Managed) {
	if isNilManaged(o) {
		return
	}
	h := header(o)
	ensureInit(h)
	setFlag(h, flagShared)
}

// IsOwned reports whether o is currently reachable through an owning
// reference.
func IsOwned(o Managed) bool {
	if isNilManaged(o) {
		return false
	}
	return hasFlag(header(o), flagOwned)
}

// IsShared reports whether o is marked SHARED.
func IsShared(o Managed) bool {
	if isNilManaged(o) {
		return false
	}
	return hasFlag(header(o), flagShared)
}

// RefCount returns o's current reference count in retain units (not raw
// flag-packed units), or 0 for a nil Managed.
func RefCount(o Managed) uintptr {
	if isNilManaged(o) {
		return 0
	}
	return count(header(o))
}

// HasWeakBlock reports whether o's weak-block has already been
// materialized (i.e. some non-owning reference has been taken to o at
// some point in its life). Exposed for instrumentation; not part of the
// core lifetime contract itself.
func HasWeakBlock(o Managed) bool {
	if isNilManaged(o) {
		return false
	}
	return header(o).weak != nil
}
