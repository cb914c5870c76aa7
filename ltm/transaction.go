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

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// This file implements the copy transaction and graph duplicator: the
// algorithmic heart of the package. Every deep copy -- whether reached via
// Owning.CloneField, Pinning.Owned, Adopt's implicit-reassignment path, or
// a batch CopyRange -- runs inside a transaction. Transactions nest: all
// copies that begin before an outermost one ends form one transaction,
// sharing one correspondence map and one redirection list, committed (or
// aborted) exactly once, when the outermost copy finishes.
//
// The runtime is specified for single-threaded use (spec.md §5), so this
// state is held in a single package-level variable rather than behind a
// mutex -- concurrent use of two transactions from different goroutines is
// out of contract, not merely unimplemented.

// transaction accumulates state across a (possibly nested) deep copy: a
// correspondence from each original object's weak-block to its clone's
// weak-block, and the list of non-owning fields inside the new region
// awaiting possible redirection.
type transaction struct {
	depth          int
	correspondence map[*weakBlock]*weakBlock
	redirections   []redirectable
}

var currentTxn *transaction

// OnRedirection, if non-nil, is invoked once for every non-owning field
// rewired to a clone at copy-transaction commit time. It exists purely so
// an optional instrumentation package (e.g. ltmstat) can observe commit
// activity without this package taking a dependency on it.
var OnRedirection func()

func beginTransaction() *transaction {
	if currentTxn == nil {
		currentTxn = &transaction{correspondence: make(map[*weakBlock]*weakBlock)}
	}
	currentTxn.depth++
	return currentTxn
}

// endTransaction leaves one nesting level of txn. aborted is true when the
// clone hook that this level was covering failed; on the outermost level,
// an aborted transaction's redirection list is dropped without being
// applied (spec.md §4.4 "Exceptions/failures during clone").
func endTransaction(txn *transaction, aborted bool) {
	txn.depth--
	if txn.depth > 0 {
		return
	}
	if !aborted {
		txn.commit()
	}
	currentTxn = nil
}

func (t *transaction) commit() {
	// Compact away redirections whose source has no corresponding clone --
	// a non-owning field that pointed outside the copied region -- before
	// walking what remains, rather than testing membership twice per entry.
	live := slices.DeleteFunc(t.redirections, func(r redirectable) bool {
		_, ok := t.correspondence[r.currentWeak()]
		return !ok
	})
	for _, r := range live {
		r.rewire(t.correspondence[r.currentWeak()])
		if OnRedirection != nil {
			OnRedirection()
		}
	}
	t.redirections = nil
	maps.Clear(t.correspondence)
}

// cloneObject implements the per-edge algorithm from spec.md §4.4:
//
//  1. If o is SHARED, retain it and return it unchanged -- copying a
//     SHARED object is always a retain, never a clone.
//  2. Otherwise invoke o's clone hook. The hook copies value fields and,
//     for each of o's own owning fields, recurses into this same
//     algorithm (via Owning.CloneField), joining txn.
//  3. Materialize weak-blocks for both o and the clone (if they do not
//     already have one) and record the correspondence, so any non-owning
//     reference visited later in this transaction -- including one
//     already queued on the redirection list -- can find it at commit.
//
// Non-owning fields are populated by the clone hook calling
// CloneNonOwningField, which appends each one to txn's redirection list;
// this function does not touch them directly.
func cloneObject(o Managed, txn *transaction) (Managed, error) {
	if isNilManaged(o) {
		return nil, nil
	}
	h := header(o)
	ensureInit(h)
	if hasFlag(h, flagShared) {
		Retain[Managed](o)
		return o, nil
	}
	clone, err := o.CloneInto()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCloneAborted, err)
	}
	setOwned(clone)
	origWB := ensureWeakBlock(o)
	cloneWB := ensureWeakBlock(clone)
	txn.correspondence[origWB] = cloneWB
	return clone, nil
}

// CopyRange deep-copies each element of src into dst (which must already
// have a length of at least len(src), allocated by the caller) under a single
// shared copy transaction, equivalent to the reference design's
// Object::copy(begin, end, dst) used to batch element-wise copies of a
// container without paying the commit cost once per element. Internal
// cross-references between elements of src are redirected exactly as they
// would be for any other region copied in one transaction.
func CopyRange[T Managed](dst []Owning[T], src []Owning[T]) error {
	txn := beginTransaction()
	for i, s := range src {
		clone, err := cloneObject(s.obj, txn)
		if err != nil {
			endTransaction(txn, true)
			return err
		}
		var t T
		if clone != nil {
			t = clone.(T)
		}
		dst[i] = Owning[T]{obj: t}
	}
	endTransaction(txn, false)
	return nil
}

// DeepCopy deep-copies the sub-tree rooted at src (an owning reference,
// e.g. the Get() of some Owning[T]) and returns a new Owning[T] to the
// clone. This is the module's primary entry point for duplicating a
// region from outside of any CloneInto hook.
func DeepCopy[T Managed](src T) (Owning[T], error) {
	clone, err := cloneStandalone(src)
	if err != nil {
		return Owning[T]{}, err
	}
	var t T
	if clone != nil {
		t = clone.(T)
	}
	return Owning[T]{obj: t}, nil
}
