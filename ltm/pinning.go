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

// Pinning is a short-lived borrow that keeps its target alive (adds a
// retain) without asserting ownership: the Go counterpart of pin<T>. Used
// for traversal, passing a managed object as an argument, and as the
// right-hand side of an owning assignment (see Owning.Set).
//
// As with Owning, Go has no copy constructor, so copying a Pinning value
// with `:=`/`=` does NOT retain -- it aliases the same borrow. Use Dup to
// obtain an independently-released second borrow.
type Pinning[T Managed] struct {
	obj T
}

// NewPinning retains obj and returns a Pinning borrow of it.
func NewPinning[T Managed](obj T) Pinning[T] {
	Retain[T](obj)
	return Pinning[T]{obj: obj}
}

// IsNil reports whether p holds no object.
func (p Pinning[T]) IsNil() bool { return isNilManaged(p.obj) }

// Get returns the pinned object.
func (p Pinning[T]) Get() T { return p.obj }

// Dup retains the same target again, returning an independent Pinning that
// must be Released on its own.
func (p Pinning[T]) Dup() Pinning[T] { return NewPinning[T](p.obj) }

// Release drops this borrow's retain.
func (p *Pinning[T]) Release() {
	Release(p.obj)
	var zero T
	p.obj = zero
}

// Owned converts this borrow into a new Owning reference via DistinctCopy
// (deep copy unless the target is SHARED), equivalent to pin<T>::owned / the
// own<BASE>(pin<T>) conversion.
func (p Pinning[T]) Owned() (Owning[T], error) {
	return DistinctCopy[T](p)
}

// Weak returns a NonOwning association to the pinned object.
func (p Pinning[T]) Weak() NonOwning[T] { return NewNonOwning[T](p.obj) }
