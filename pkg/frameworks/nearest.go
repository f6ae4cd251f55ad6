// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package frameworks

import "slices"

// Compatible is IsCompatible with the wildcard: a candidate of "any" suits every request
func Compatible(o Oracle, requested, candidate Framework) bool {
	return candidate.IsAny() || o.IsCompatible(requested, candidate)
}

// Compare orders two candidates that are both compatible with requested; negative means a is nearer.
// An exact match wins, then a concrete framework over "any", then the requested identifier,
// then a non-portable framework, then the higher version of one identifier, then the framework
// that can itself consume the other.
func Compare(o Oracle, requested, a, b Framework) int {
	if a.Equal(b) {
		return 0
	}

	prefer := func(pa, pb bool) int {
		switch {
		case pa && !pb:
			return -1
		case pb && !pa:
			return 1
		}
		return 0
	}

	if c := prefer(a.Equal(requested), b.Equal(requested)); c != 0 {
		return c
	}
	if c := prefer(!a.IsAny(), !b.IsAny()); c != 0 {
		return c
	}
	if c := prefer(a.Identifier == requested.Identifier, b.Identifier == requested.Identifier); c != 0 {
		return c
	}
	if c := prefer(!a.IsPortable(), !b.IsPortable()); c != 0 {
		return c
	}
	if a.Identifier == b.Identifier && !a.IsPortable() {
		return b.version().Compare(a.version())
	}
	return prefer(o.IsCompatible(a, b), o.IsCompatible(b, a))
}

// FirstCompatible returns the index of the first candidate compatible with requested,
// in declaration order
func FirstCompatible(o Oracle, requested Framework, candidates []Framework) (int, bool) {
	i := slices.IndexFunc(candidates, func(c Framework) bool {
		return Compatible(o, requested, c)
	})
	return i, i >= 0
}
