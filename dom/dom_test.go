// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dom

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/karol11/ltm-go/ltm"
)

var listSchema = &Schema{
	Name: "List",
	Fields: []FieldSchema{
		{Name: "value", Kind: Owning},
		{Name: "next", Kind: Owning},
		{Name: "tail", Kind: NonOwning},
	},
}

func newListNode(pool *Pool, value string) *Record {
	r := NewRecord(listSchema)
	atom := pool.InternString(value)
	_ = r.SetOwning("value", ltm.NewOwning[Node](atom))
	return r
}

func TestPoolInternsEqualStrings(t *testing.T) {
	pool := NewPool(16)
	a := pool.InternString("hello")
	b := pool.InternString("hello")
	if a != b {
		t.Fatalf("InternString returned distinct objects for equal content")
	}
	if !ltm.IsShared(a) {
		t.Fatalf("interned atom is not marked SHARED")
	}
}

func TestRecordCloneRewritesTailRef(t *testing.T) {
	pool := NewPool(16)
	head := newListNode(pool, "head")
	mid := newListNode(pool, "mid")
	tail := newListNode(pool, "tail")

	if err := mid.SetOwning("next", ltm.NewOwning[Node](tail)); err != nil {
		t.Fatalf("SetOwning failed: %v", err)
	}
	if err := head.SetOwning("next", ltm.NewOwning[Node](mid)); err != nil {
		t.Fatalf("SetOwning failed: %v", err)
	}
	if err := head.SetNonOwning("tail", ltm.NewNonOwning[Node](tail)); err != nil {
		t.Fatalf("SetNonOwning failed: %v", err)
	}

	root := ltm.NewOwning[Node](head)
	clone, err := ltm.DeepCopy[Node](root.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	cloneHead := clone.Get().(*Record)
	cloneTailRef, err := cloneHead.NonOwning("tail")
	if err != nil {
		t.Fatalf("NonOwning failed: %v", err)
	}
	resolvedTail, ok := cloneTailRef.Get()
	if !ok {
		t.Fatalf("cloned tail ref does not resolve")
	}

	cloneNext, _ := cloneHead.Owning("next")
	cloneMid := cloneNext.Get().(*Record)
	cloneMidNext, _ := cloneMid.Owning("next")
	cloneTail := cloneMidNext.Get()
	if resolvedTail != cloneTail {
		t.Fatalf("tail ref was not rewired to the clone's own tail node")
	}
	if resolvedTail == tail {
		t.Fatalf("tail ref still points at the original tail node")
	}

	root.Release()
	clone.Release()
}

func TestArrayCloneBatchesOwningElements(t *testing.T) {
	pool := NewPool(16)
	items := []ltm.Owning[Node]{
		ltm.NewOwning[Node](pool.InternString("a")),
		ltm.NewOwning[Node](pool.InternString("b")),
		ltm.NewOwning[Node](pool.InternString("c")),
	}
	arr := ltm.NewOwning[Node](NewOwningArray(items))

	clone, err := ltm.DeepCopy[Node](arr.Get())
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}
	cloneArr := clone.Get().(*Array)
	if cloneArr.Len() != 3 {
		t.Fatalf("clone array length = %d, want 3", cloneArr.Len())
	}
	for i := 0; i < 3; i++ {
		v, ok := cloneArr.At(i)
		if !ok {
			t.Fatalf("clone array element %d missing", i)
		}
		if v != items[i].Get() {
			t.Fatalf("clone array element %d is a copy of the SHARED atom, want the original retained", i)
		}
	}

	arr.Release()
	clone.Release()
}

// fakeBacking is a minimal in-memory stand-in for a persistentBacking
// (e.g. *store.Store), used to test Pool's spill-on-eviction path without
// an on-disk leveldb instance.
type fakeBacking struct {
	data map[string][]byte
}

func newFakeBacking() *fakeBacking { return &fakeBacking{data: make(map[string][]byte)} }

func (f *fakeBacking) Put(key, value []byte) error {
	f.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (f *fakeBacking) Get(key []byte) ([]byte, bool, error) {
	v, ok := f.data[string(key)]
	return v, ok, nil
}

func TestPersistentPoolRehydratesEvictedString(t *testing.T) {
	backing := newFakeBacking()
	pool := NewPersistentPool(1, backing)

	first := pool.InternString("first")
	second := pool.InternString("second") // evicts "first" from the size-1 LRU
	if len(backing.data) != 1 {
		t.Fatalf("expected one spilled entry after eviction, got %d", len(backing.data))
	}

	rehydrated := pool.InternString("first")
	if rehydrated == first {
		t.Fatalf("rehydrated atom should be a fresh object, not the evicted original")
	}
	if rehydrated.String() != "first" {
		t.Fatalf("rehydrated atom content = %q, want %q", rehydrated.String(), "first")
	}
	_ = second
}

func TestResolveExternalUsesMockSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	known := &Atom{kind: AtomString, str: "known"}
	ltm.MarkShared(known)

	src := NewMockExternalAtomSource(ctrl)
	src.EXPECT().Resolve("known").Return(known, true)
	src.EXPECT().Resolve("unknown").Return(nil, false)

	pool := NewPool(16)
	got := pool.ResolveExternal("known", src)
	if got != known {
		t.Fatalf("ResolveExternal did not return the atom supplied by the external source")
	}
	fresh := pool.ResolveExternal("unknown", src)
	if fresh == nil || fresh.String() != "unknown" {
		t.Fatalf("ResolveExternal did not fall back to local interning for an unresolved name")
	}
}
