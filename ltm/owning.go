// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ltm

// Owning is a value type expressing sole ownership of a sub-tree, the Go
// counterpart of the reference design's own<T>. The zero Owning[T] holds no
// object.
//
// Go has no copy constructors or destructors, so unlike the original the
// deep-copy-on-assignment behavior is not triggered by `=`: use Adopt to
// attach a freshly built (or pre-owned) object, CloneField when building a
// CloneInto hook, and Release when tearing one down from a Dispose method.
// A bare `dst = src` of two Owning[T] values aliases the same object and
// will double-release it; never do that.
type Owning[T Managed] struct {
	obj T
}

// NewOwning constructs an Owning from a freshly allocated object, the
// common case of attaching a brand-new node to a tree. It is equivalent to
// Adopt but panics instead of returning an error, since a fresh object can
// never trigger the already-owned deep-copy path.
func NewOwning[T Managed](obj T) Owning[T] {
	o, err := Adopt[T](obj)
	if err != nil {
		panic(err) // unreachable for a freshly allocated, unowned object
	}
	return o
}

// Adopt attaches obj to a new Owning reference (Object construction from a
// bare pointer). If obj is already OWNED:
//   - and SHARED, this is a second independent owner of the same value --
//     obj is retained and the same object attached, exactly as adopting any
//     other already-live SHARED reference does.
//   - and not SHARED, obj is already part of some other composition tree,
//     so this performs a deep copy and attaches the clone instead, exactly
//     as an owning reassignment to an already-owned object does (spec.md
//     §7).
//
// Otherwise obj is unowned and is adopted directly (taking over its
// creation-time reference rather than adding a new one) and marked OWNED.
func Adopt[T Managed](obj T) (Owning[T], error) {
	if isNilManaged(obj) {
		return Owning[T]{}, nil
	}
	h := header(obj)
	ensureInit(h)
	if hasFlag(h, flagOwned) {
		if hasFlag(h, flagShared) {
			Retain[T](obj)
			return Owning[T]{obj: obj}, nil
		}
		clone, err := cloneStandalone(obj)
		if err != nil {
			return Owning[T]{}, err
		}
		return Owning[T]{obj: clone.(T)}, nil
	}
	setOwned(obj)
	return Owning[T]{obj: obj}, nil
}

// IsNil reports whether o holds no object.
func (o Owning[T]) IsNil() bool { return isNilManaged(o.obj) }

// Get returns the owned object (the zero value of T if o is empty).
func (o Owning[T]) Get() T { return o.obj }

// Pinned returns a Pinning borrow of the owned object, retaining it.
func (o Owning[T]) Pinned() Pinning[T] { return NewPinning(o.obj) }

// Weak returns a NonOwning association to the owned object.
func (o Owning[T]) Weak() NonOwning[T] { return NewNonOwning[T](o.obj) }

// Set replaces o's content with a deep copy of src (or a retain, if src's
// target is SHARED), releasing whatever o previously held. This is the Go
// equivalent of an owning-reference assignment from a pinning reference.
func (o *Owning[T]) Set(src Pinning[T]) error {
	clone, err := cloneStandalone(src.obj)
	if err != nil {
		return err
	}
	old := o.obj
	var next T
	if clone != nil {
		next = clone.(T)
	}
	o.obj = next
	Release(old)
	return nil
}

// SetFrom replaces o's content with a deep copy of src's content (or a
// retain if SHARED), equivalent to own<T>::operator=(const own&).
func (o *Owning[T]) SetFrom(src Owning[T]) error {
	return o.Set(Pinning[T]{obj: src.obj})
}

// Move transfers ownership from src to o without retain/release, leaving
// src empty, equivalent to own<T>'s move constructor/assignment.
func (o *Owning[T]) Move(src *Owning[T]) {
	Release(o.obj)
	o.obj = src.obj
	var zero T
	src.obj = zero
}

// Release drops o's ownership, tearing down the owned sub-tree if this was
// the last reference. Call this from a Dispose method for every owning
// field.
func (o *Owning[T]) Release() {
	Release(o.obj)
	var zero T
	o.obj = zero
}

// CloneField produces the value that should be stored in the
// corresponding owning field of a clone being built inside CloneInto. It
// performs the recursive deep-copy (or SHARED retain) and joins the
// enclosing copy transaction, materializing weak-blocks for both the
// original and the clone so any non-owning reference to either can be
// redirected at commit.
func (o Owning[T]) CloneField() (Owning[T], error) {
	if isNilManaged(o.obj) {
		return Owning[T]{}, nil
	}
	txn := beginTransaction()
	clone, err := cloneObject(o.obj, txn)
	if err != nil {
		endTransaction(txn, true)
		return Owning[T]{}, err
	}
	endTransaction(txn, false)
	return Owning[T]{obj: clone.(T)}, nil
}

// DistinctCopy performs a deep copy of a pinning reference's target,
// equivalent to own<T>::distinct_copy. It starts and commits its own
// transaction when none is active; called while one is active (e.g. from
// inside a CloneInto hook), it joins that transaction like any nested copy.
func DistinctCopy[T Managed](src Pinning[T]) (Owning[T], error) {
	clone, err := cloneStandalone(src.obj)
	if err != nil {
		return Owning[T]{}, err
	}
	var t T
	if clone != nil {
		t = clone.(T)
	}
	return Owning[T]{obj: t}, nil
}

// cloneStandalone runs cloneObject under its own top-level transaction,
// for entry points that are not themselves already inside one.
func cloneStandalone(o Managed) (Managed, error) {
	if isNilManaged(o) {
		return nil, nil
	}
	txn := beginTransaction()
	clone, err := cloneObject(o, txn)
	if err != nil {
		endTransaction(txn, true)
		return nil, err
	}
	endTransaction(txn, false)
	return clone, nil
}
