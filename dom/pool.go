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
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"

	"github.com/karol11/ltm-go/ltm"
)

// persistentBacking is the subset of store.Store's API a Pool needs to
// spill evicted atoms to disk, kept as a local interface so this package
// does not have to import store for its concrete *leveldb.DB type.
type persistentBacking interface {
	Put(key, value []byte) error
	Get(key []byte) (value []byte, ok bool, err error)
}

// Pool interns string Atoms keyed by the sha3-256 hash of their content,
// the concrete instance of "SHARED copies act as retains" for string
// values (spec.md §4.3): two calls to InternString with equal content
// return the very same *Atom rather than two distinct objects (InternString
// itself takes no retain on it).
//
// The pool is bounded by an LRU of the given capacity (common.LruCache's
// role in Carmen's node cache, here played by hashicorp/golang-lru so the
// pack's own dependency gets exercised rather than reimplemented); an
// eviction drops the pool's own reference, but any Atom still retained
// elsewhere in the graph survives the eviction untouched -- eviction only
// means future interning calls for the same content allocate a fresh Atom,
// or, for a persistent pool, rehydrate one from backing instead.
type Pool struct {
	cache   *lru.Cache
	backing persistentBacking
}

// NewPool creates a string-atom pool holding up to capacity distinct
// interned values.
func NewPool(capacity int) *Pool {
	cache, err := lru.New(capacity)
	if err != nil {
		// Only returned by golang-lru for a non-positive capacity.
		panic(err)
	}
	return &Pool{cache: cache}
}

// NewPersistentPool builds a Pool that spills evicted string values to
// backing (typically a *store.Store) instead of discarding them outright,
// so a string interned once is never recomputed, only reloaded.
func NewPersistentPool(capacity int, backing persistentBacking) *Pool {
	p := &Pool{backing: backing}
	cache, err := lru.NewWithEvict(capacity, p.onEvicted)
	if err != nil {
		panic(err)
	}
	p.cache = cache
	return p
}

func (p *Pool) onEvicted(key, value interface{}) {
	if p.backing == nil {
		return
	}
	a := value.(*Atom)
	_ = p.backing.Put([]byte(key.(string)), []byte(a.str))
}

// InternString returns the pool's SHARED Atom for s, creating and caching
// one if this is the first time s has been seen (or reloading it from the
// backing store, for a persistent pool, if it was evicted earlier).
func (p *Pool) InternString(s string) *Atom {
	key := hashString(s)
	if v, ok := p.cache.Get(key); ok {
		return v.(*Atom)
	}
	if p.backing != nil {
		if data, ok, _ := p.backing.Get([]byte(key)); ok {
			a := &Atom{kind: AtomString, str: string(data)}
			ltm.MarkShared(a)
			p.cache.Add(key, a)
			return a
		}
	}
	a := &Atom{kind: AtomString, str: s}
	ltm.MarkShared(a)
	p.cache.Add(key, a)
	return a
}

// Len reports the number of distinct strings currently interned.
func (p *Pool) Len() int { return p.cache.Len() }

// ResolveExternal interns name through src before falling back to a fresh
// local Atom, so a value already known under that name (e.g. elsewhere in
// a document being parsed) is reused rather than duplicated.
func (p *Pool) ResolveExternal(name string, src ExternalAtomSource) *Atom {
	if a, ok := src.Resolve(name); ok {
		key := hashString(name)
		p.cache.Add(key, a)
		return a
	}
	return p.InternString(name)
}

func hashString(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
