// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ltmstat

import "github.com/karol11/ltm-go/ltm"

func init() {
	ltm.OnRedirection = RedirectionsApplied.Inc
}

// Retain wraps ltm.Retain, incrementing Retains.
func Retain[T ltm.Managed](o T) T {
	Retains.Inc()
	return ltm.Retain[T](o)
}

// Release wraps ltm.Release, incrementing Releases and, when the object's
// count reaches zero as a result, Finalizations.
func Release(o ltm.Managed) {
	Releases.Inc()
	before := ltm.RefCount(o)
	ltm.Release(o)
	if before == 1 {
		Finalizations.Inc()
	}
}

// NewNonOwning wraps ltm.NewNonOwning, incrementing WeakBlockMaterializations
// whenever obj did not already have a weak-block.
func NewNonOwning[T ltm.Managed](obj T) ltm.NonOwning[T] {
	wasWeakless := !ltm.HasWeakBlock(obj)
	r := ltm.NewNonOwning[T](obj)
	if wasWeakless {
		WeakBlockMaterializations.Inc()
	}
	return r
}

// DeepCopy wraps ltm.DeepCopy, tracking transaction depth and clone
// failures.
func DeepCopy[T ltm.Managed](src T) (ltm.Owning[T], error) {
	TransactionDepth.Inc()
	defer TransactionDepth.Dec()
	out, err := ltm.DeepCopy[T](src)
	if err != nil {
		ClonesAborted.Inc()
	}
	return out, err
}
