// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package frameworks

// Oracle answers the ecosystem-specific framework questions asset selection depends on.
// Implementations must be safe for concurrent use.
type Oracle interface {
	// IsCompatible reports whether assets built for candidate can be consumed by a project targeting requested
	IsCompatible(requested, candidate Framework) bool

	// IsDesktop reports whether f is a legacy full desktop framework
	IsDesktop(f Framework) bool

	IsPortable(f Framework) bool

	// IsModern reports whether f belongs to the modern, package-based framework family
	IsModern(f Framework) bool
}
