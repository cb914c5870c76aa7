// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ltmstat exposes prometheus counters and gauges tracking package
// ltm's runtime activity: retains, releases, weak-block materializations,
// copy-transaction depth and redirections applied at commit. The core
// runtime itself takes no dependency on this package (spec.md's contract
// is ambient-stack-free); callers that want instrumentation call the
// wrappers in hooks.go (Retain, Release, NewNonOwning, DeepCopy) in place of
// the ltm functions they wrap. Only RedirectionsApplied is fed by package
// ltm itself, through ltm.OnRedirection.
package ltmstat

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Retains counts calls made through this package's Retain wrapper;
	// retains that package ltm performs internally are not counted.
	Retains = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "retains_total",
		Help:      "Number of times a managed object's reference count was incremented.",
	})

	// Releases counts calls made through this package's Release wrapper.
	Releases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "releases_total",
		Help:      "Number of times a managed object's reference count was decremented.",
	})

	// Finalizations counts objects whose reference count reached zero, and
	// were disposed, as the result of a call to this package's Release
	// wrapper.
	Finalizations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "finalizations_total",
		Help:      "Number of managed objects destroyed after their last reference was released.",
	})

	// WeakBlockMaterializations counts calls to this package's NewNonOwning
	// wrapper that lazily allocate an object's weak-block (its first
	// non-owning reference).
	WeakBlockMaterializations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "weak_block_materializations_total",
		Help:      "Number of weak-blocks lazily allocated for a previously weakless object.",
	})

	// TransactionDepth is the number of calls to this package's DeepCopy
	// wrapper currently in progress (0 when none is); the nested levels of
	// a copy transaction inside one DeepCopy are not counted.
	TransactionDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ltm",
		Name:      "transaction_depth",
		Help:      "Current nesting depth of the active copy transaction.",
	})

	// RedirectionsApplied counts non-owning fields rewritten to a clone at
	// copy-transaction commit time.
	RedirectionsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "redirections_applied_total",
		Help:      "Number of non-owning fields redirected to their clone at copy-transaction commit.",
	})

	// ClonesAborted counts calls to this package's DeepCopy wrapper whose
	// copy transaction rolled back because a clone hook returned an error.
	ClonesAborted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ltm",
		Name:      "clones_aborted_total",
		Help:      "Number of copy transactions aborted by a failing clone hook.",
	})
)

// Collectors lists every metric this package defines, for callers that
// register them with a non-default prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		Retains,
		Releases,
		Finalizations,
		WeakBlockMaterializations,
		TransactionDepth,
		RedirectionsApplied,
		ClonesAborted,
	}
}

// MustRegister registers every metric in Collectors() with reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(Collectors()...)
}
