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

//go:generate mockgen -source atom_source.go -destination atom_source_mocks.go -package dom

// ExternalAtomSource resolves a name to a previously-interned atom held
// outside of the current process -- e.g. codec/cml's forward-reference
// table while a text document is still being parsed, or a string spilled
// to package store. Pool.ResolveExternal consults one of these before
// falling back to creating a fresh, locally-interned Atom.
type ExternalAtomSource interface {
	Resolve(name string) (*Atom, bool)
}
