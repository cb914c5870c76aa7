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

// weakBlock is materialized the first time a non-owning reference is taken
// to an object. It holds the canonical counter for its target object
// (orgCounter, same flags-and-count encoding the object's own Header word
// would otherwise hold) plus a nullable pointer to the target and an
// independent count of its own: the target's self-reference plus every
// live NonOwning reference sharing this block.
//
// A weakBlock outlives its target whenever non-owning references remain;
// Go's garbage collector reclaims it once nothing (no NonOwning value, no
// pending redirection, no Header) holds a pointer to it any longer, so
// weakCount only needs to track liveness for the purpose of the contract
// ("the weak-block lives until its own count is zero"), not to drive any
// explicit free.
type weakBlock struct {
	target     Managed
	orgCounter uintptr
	weakCount  uintptr
}

// ensureWeakBlock materializes o's weak-block if one does not already
// exist, without taking out a new reference on it (used internally by the
// copy transaction to obtain a stable identity for the correspondence map).
func ensureWeakBlock(o Managed) *weakBlock {
	h := header(o)
	ensureInit(h)
	if h.weak == nil {
		wb := &weakBlock{
			target:     o,
			orgCounter: h.word &^ flagWeakless,
			weakCount:  1, // the object's own back-reference to its block
		}
		h.weak = wb
		h.word = 0
	}
	return h.weak
}

// getWeakAndRetain ensures o has a weak-block and returns a retained reference to
// it (Object::get_weak): this is what backs construction of a NonOwning
// value, and unlike ensureWeakBlock it does take out a new reference.
func getWeakAndRetain(o Managed) *weakBlock {
	wb := ensureWeakBlock(o)
	wb.weakCount += 1
	return wb
}

func (wb *weakBlock) retain() {
	wb.weakCount += 1
}

// release drops one reference on the weak-block. Once weakCount reaches
// zero nothing in the runtime holds a pointer to wb any longer (assuming
// the caller drops its own pointer immediately after, as every pointer
// discipline here does), so it becomes ordinary Go garbage.
func (wb *weakBlock) release() {
	if wb.weakCount == 0 {
		panic("ltm: release of a weak-block with no live references")
	}
	wb.weakCount--
}

// releaseWeakBlockSelf drops the target object's own self-reference to its
// weak-block, taken out implicitly when the block was materialized. This
// is called exactly once, from finalize, when the object dies.
func releaseWeakBlockSelf(wb *weakBlock) {
	wb.release()
}

// getTarget returns the block's current target, or nil if the object it
// once pointed to has already been destroyed.
func (wb *weakBlock) getTarget() Managed {
	if wb == nil {
		return nil
	}
	return wb.target
}
