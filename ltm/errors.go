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

// constError is an error type usable to define immutable error constants,
// the same pattern common.ConstError follows.
type constError string

func (e constError) Error() string { return string(e) }

// ErrCloneAborted wraps a failure returned by a user clone hook,
// propagated out of the outermost deep-copy call once the transaction has
// been rolled back (spec.md §7).
const ErrCloneAborted = constError("ltm: copy transaction aborted by a failing clone hook")
