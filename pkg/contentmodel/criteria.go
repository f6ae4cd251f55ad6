// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var ErrUnknownProperty = errors.New("unknown property")

// Property is one required value of a criteria entry
type Property struct {
	Name  string
	Value any
}

// SelectionCriteriaEntry is an ordered set of required property values
type SelectionCriteriaEntry struct {
	properties []Property
}

func (e SelectionCriteriaEntry) Properties() []Property {
	return slices.Clone(e.properties)
}

func (e SelectionCriteriaEntry) Get(name string) (any, bool) {
	p, ok := lo.Find(e.properties, func(p Property) bool { return p.Name == name })
	return p.Value, ok
}

func (e SelectionCriteriaEntry) String() string {
	return "{" + strings.Join(lo.Map(e.properties, func(p Property, _ int) string {
		return p.Name + "=" + canonical(p.Value)
	}), ", ") + "}"
}

// SelectionCriteria lists entries in fallback order, most specific first
type SelectionCriteria struct {
	Entries []SelectionCriteriaEntry
}

// CriteriaBuilder appends entries in order. The first error sticks and is returned by Build.
type CriteriaBuilder struct {
	registry *Registry
	entries  []SelectionCriteriaEntry
	err      error
}

func NewCriteriaBuilder(registry *Registry) *CriteriaBuilder {
	return &CriteriaBuilder{registry: registry}
}

func (b *CriteriaBuilder) Add(props ...Property) *CriteriaBuilder {
	if b.err != nil {
		return b
	}

	seen := map[string]struct{}{}
	for _, p := range props {
		if _, ok := b.registry.Lookup(p.Name); !ok {
			b.err = fmt.Errorf("%w: %q", ErrUnknownProperty, p.Name)
			return b
		}
		if _, ok := seen[p.Name]; ok {
			b.err = fmt.Errorf("property %q given twice in one criteria entry", p.Name)
			return b
		}
		seen[p.Name] = struct{}{}
	}

	b.entries = append(b.entries, SelectionCriteriaEntry{properties: slices.Clone(props)})
	return b
}

func (b *CriteriaBuilder) Build() (*SelectionCriteria, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &SelectionCriteria{Entries: slices.Clone(b.entries)}, nil
}
