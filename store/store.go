// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store is a thin content-addressed key/value layer over
// goleveldb, grounded on backend/store/ldb/leveldb.go's use of the same
// driver -- stripped of that store's page/hash-tree/snapshot machinery,
// which belongs to a Merkle state trie this module does not have. It
// exists purely to give cmd/ltmtool's dump --persist and dom's optional
// atom spill-to-disk path somewhere real to write codec output.
package store

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// Store persists byte blobs under content-hash keys.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a leveldb database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Put stores value under key, overwriting any previous value.
func (s *Store) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	return nil
}

// Get returns the value stored under key, or ok=false if absent.
func (s *Store) Get(key []byte) (value []byte, ok bool, err error) {
	value, err = s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	return value, true, nil
}

// Has reports whether key is present without reading its value.
func (s *Store) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("store: has: %w", err)
	}
	return ok, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
