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

// CapabilityRef is a non-owning reference to a capability (a set of
// operations) embedded inside some holder object, rather than to a
// concrete managed type -- the Go counterpart of the reference design's
// weak<INTERFACE, false>/Proxy pair. The original expresses this with a
// byte offset applied via reinterpret_cast; Go has no pointer arithmetic
// over struct fields, so CapabilityRef instead holds a NonOwning reference
// to the holder plus an accessor closure captured at construction that
// recovers the capability value from a pinned holder. This preserves the
// "non-owning" contract -- dereferencing never keeps the holder alive --
// without tying the capability's identity to the concrete holder type.
type CapabilityRef[H Managed, C any] struct {
	holder   NonOwning[H]
	accessor func(H) C
}

// NewCapabilityRef builds a CapabilityRef to the capability accessor
// applied to holder.
func NewCapabilityRef[H Managed, C any](holder H, accessor func(H) C) CapabilityRef[H, C] {
	return CapabilityRef[H, C]{holder: NewNonOwning[H](holder), accessor: accessor}
}

// Pin re-applies the accessor to a pinned holder, returning the capability
// value and a PinnedCapability that keeps the holder alive until Released,
// or false if the holder has already been destroyed.
func (r CapabilityRef[H, C]) Pin() (PinnedCapability[H, C], bool) {
	holder, ok := r.holder.Pin()
	if !ok {
		return PinnedCapability[H, C]{}, false
	}
	return PinnedCapability[H, C]{holder: holder, value: r.accessor(holder.Get())}, true
}

// PinnedCapability is the result of pinning a CapabilityRef: the
// capability value, plus the pin keeping its holder alive until Release.
type PinnedCapability[H Managed, C any] struct {
	holder Pinning[H]
	value  C
}

// Get returns the capability value.
func (p PinnedCapability[H, C]) Get() C { return p.value }

// Release drops the retain taken on the holder.
func (p *PinnedCapability[H, C]) Release() { p.holder.Release() }
