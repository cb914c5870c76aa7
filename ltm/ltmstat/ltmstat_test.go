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

import (
	"testing"

	"github.com/karol11/ltm-go/ltm"
	dto "github.com/prometheus/client_model/go"
)

type counterNode struct{ ltm.Base }

func (n *counterNode) CloneInto() (ltm.Managed, error) { return &counterNode{}, nil }

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestRetainReleaseCounters(t *testing.T) {
	before := counterValue(t, Retains)
	n := &counterNode{}
	owner := ltm.NewOwning[*counterNode](n)
	Retain[*counterNode](n)
	if got := counterValue(t, Retains); got != before+1 {
		t.Fatalf("Retains = %v, want %v", got, before+1)
	}
	Release(n)
	owner.Release()
}

func TestNewNonOwningTracksMaterialization(t *testing.T) {
	before := counterValue(t, WeakBlockMaterializations)
	n := &counterNode{}
	owner := ltm.NewOwning[*counterNode](n)
	w := NewNonOwning[*counterNode](n)
	if got := counterValue(t, WeakBlockMaterializations); got != before+1 {
		t.Fatalf("WeakBlockMaterializations = %v, want %v", got, before+1)
	}
	w.Release()
	owner.Release()
}
