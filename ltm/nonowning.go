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

// NonOwning records an association without keeping its target alive: the
// Go counterpart of weak<T>. It is implemented purely in terms of the
// weak-block: construction and copying retain the block, never the target
// object, which is what makes a NonOwning reference non-keepalive.
//
// As with Owning and Pinning, copying a NonOwning value with `:=`/`=`
// aliases the same weak-block reference; use Dup for an independently
// released copy.
type NonOwning[T Managed] struct {
	wb *weakBlock
}

// NewNonOwning materializes obj's weak-block if needed and returns a
// NonOwning association retaining it.
func NewNonOwning[T Managed](obj T) NonOwning[T] {
	if isNilManaged(obj) {
		return NonOwning[T]{}
	}
	return NonOwning[T]{wb: getWeakAndRetain(obj)}
}

// IsNil reports whether r holds no weak-block, i.e. was never constructed
// from a live target (it does not report whether that target has since
// been destroyed -- use Get for that).
func (r NonOwning[T]) IsNil() bool { return r.wb == nil }

// Get dereferences r. If the target has been destroyed (or r was never
// constructed from one), it returns the zero value of T and false.
func (r NonOwning[T]) Get() (T, bool) {
	var zero T
	if r.wb == nil {
		return zero, false
	}
	target := r.wb.getTarget()
	if target == nil {
		return zero, false
	}
	return target.(T), true
}

// Pin produces a Pinning reference to the live target, retaining it, or
// reports false if the target has already been destroyed.
func (r NonOwning[T]) Pin() (Pinning[T], bool) {
	obj, ok := r.Get()
	if !ok {
		return Pinning[T]{}, false
	}
	return NewPinning[T](obj), true
}

// Dup returns an independent NonOwning sharing the same weak-block,
// equivalent to weak<T>'s copy constructor.
func (r NonOwning[T]) Dup() NonOwning[T] {
	if r.wb == nil {
		return NonOwning[T]{}
	}
	r.wb.retain()
	return NonOwning[T]{wb: r.wb}
}

// Release drops this association's retain on the weak-block.
func (r *NonOwning[T]) Release() {
	if r.wb == nil {
		return
	}
	r.wb.release()
	r.wb = nil
}

// Equal reports whether r and other currently resolve to the same live
// object (spec.md §6: observable identity).
func (r NonOwning[T]) Equal(other NonOwning[T]) bool {
	a, aok := r.Get()
	b, bok := other.Get()
	if !aok || !bok {
		return false
	}
	return header(a) == header(b)
}

// CloneNonOwningField populates dst (a field inside a clone being built by
// CloneInto) with a shallow copy of src -- i.e. sharing src's weak-block,
// exactly as a plain copy of a weak<T> would -- and, if a copy transaction
// is active, registers dst for commit-time redirection: if src's
// weak-block has a clone-side counterpart by the time the outermost
// transaction commits (meaning src's target lies inside the region being
// copied), dst is rewired to point at it instead.
func CloneNonOwningField[T Managed](dst *NonOwning[T], src NonOwning[T]) {
	if src.wb == nil {
		dst.wb = nil
		return
	}
	src.wb.retain()
	dst.wb = src.wb
	if currentTxn != nil {
		currentTxn.redirections = append(currentTxn.redirections, (*nonOwningRedirect[T])(dst))
	}
}

// redirectable is the copy transaction's uniform view of a non-owning
// field inside a clone awaiting possible redirection at commit.
type redirectable interface {
	currentWeak() *weakBlock
	rewire(to *weakBlock)
}

type nonOwningRedirect[T Managed] NonOwning[T]

func (r *nonOwningRedirect[T]) currentWeak() *weakBlock { return r.wb }

func (r *nonOwningRedirect[T]) rewire(to *weakBlock) {
	to.retain()
	r.wb.release()
	r.wb = to
}
