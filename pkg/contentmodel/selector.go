// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

// FindBestItemGroup walks the criteria entries in order and returns a group satisfying the
// first entry any group satisfies, or nil.
//
// Among the groups satisfying one entry, the nearer one wins: entry properties are compared in
// entry order, a group defining a property beats one that leaves it open, and otherwise the
// property's CompareTest decides. Remaining ties go to the group discovered first.
func (r *Registry) FindBestItemGroup(criteria *SelectionCriteria, groups []*ContentItemGroup) *ContentItemGroup {
	for _, entry := range criteria.Entries {
		var best *ContentItemGroup
		for _, g := range groups {
			if !r.satisfies(entry, g) {
				continue
			}
			if best == nil || r.nearer(entry, g, best) {
				best = g
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// satisfies requires every property of the group to be constrained by the entry
func (r *Registry) satisfies(entry SelectionCriteriaEntry, g *ContentItemGroup) bool {
	for name, available := range g.Properties {
		criterion, ok := entry.Get(name)
		if !ok {
			return false
		}
		def, ok := r.Lookup(name)
		if !ok || !def.IsCriteriaSatisfied(criterion, available) {
			return false
		}
	}
	return true
}

func (r *Registry) nearer(entry SelectionCriteriaEntry, a, b *ContentItemGroup) bool {
	for _, p := range entry.properties {
		va, okA := a.Properties[p.Name]
		vb, okB := b.Properties[p.Name]
		switch {
		case okA && !okB:
			return true
		case okB && !okA:
			return false
		case !okA:
			continue
		}

		def, _ := r.Lookup(p.Name)
		if c := def.compare(p.Value, va, vb); c != 0 {
			return c < 0
		}
	}
	return false
}
