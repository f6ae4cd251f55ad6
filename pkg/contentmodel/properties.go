// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/runtimeid"
	"golang.org/x/text/language"
)

const (
	PropertyTFM          = "tfm"
	PropertyRID          = "rid"
	PropertyLocale       = "locale"
	PropertyCodeLanguage = "codeLanguage"

	// leaf properties, gated on file extension
	PropertyAssembly      = "assembly"
	PropertyNativeLibrary = "nativeLibrary"
	PropertyResources     = "resources"

	// PropertyAny accepts any non-empty segment
	PropertyAny = "any"
)

// Properties maps property names to parsed values
type Properties map[string]any

// PropertyDefinition describes how one path segment is parsed into a typed value and how
// a requested value is matched against an available one.
type PropertyDefinition struct {
	Name string

	// Table maps lowercased raw tokens to values, consulted before Parser
	Table map[string]any

	Parser func(segment string) (any, bool)

	// CompatibilityTest reports whether the available value satisfies the requested criterion.
	// Nil means canonical equality.
	CompatibilityTest func(criterion, available any) bool

	// CompareTest orders two values that both satisfy criterion; negative means a is nearer.
	// Nil means they are equally good.
	CompareTest func(criterion, a, b any) int

	// FileExtensions gates the segment on its lowercased extension, when non-empty
	FileExtensions []string
}

func (d *PropertyDefinition) TryParse(segment string) (any, bool) {
	if segment == "" {
		return nil, false
	}
	if len(d.FileExtensions) > 0 && !slices.Contains(d.FileExtensions, strings.ToLower(path.Ext(segment))) {
		return nil, false
	}

	if v, ok := d.Table[strings.ToLower(segment)]; ok {
		return v, true
	}
	if d.Parser != nil {
		return d.Parser(segment)
	}
	if d.Table != nil {
		return nil, false
	}
	return segment, true
}

func (d *PropertyDefinition) IsCriteriaSatisfied(criterion, available any) bool {
	if d.CompatibilityTest != nil {
		return d.CompatibilityTest(criterion, available)
	}
	return canonical(criterion) == canonical(available)
}

func (d *PropertyDefinition) compare(criterion, a, b any) int {
	if d.CompareTest == nil {
		return 0
	}
	return d.CompareTest(criterion, a, b)
}

// canonical renders a parsed value in the form group keys are compared by
func canonical(v any) string {
	return fmt.Sprint(v)
}

// Registry is the fixed set of property definitions. It is immutable and safe for concurrent use.
type Registry struct {
	definitions map[string]*PropertyDefinition
}

func NewRegistry(oracle frameworks.Oracle) *Registry {
	defs := []*PropertyDefinition{
		{
			Name: PropertyTFM,
			Table: map[string]any{
				frameworks.AnyIdentifier: frameworks.Any,
			},
			Parser: func(s string) (any, bool) {
				f, err := frameworks.Parse(s)
				return f, err == nil
			},
			CompatibilityTest: func(criterion, available any) bool {
				requested, ok1 := criterion.(frameworks.Framework)
				candidate, ok2 := available.(frameworks.Framework)
				if !ok1 || !ok2 {
					return false
				}
				return frameworks.Compatible(oracle, requested, candidate)
			},
			CompareTest: func(criterion, a, b any) int {
				requested, ok := criterion.(frameworks.Framework)
				fa, okA := a.(frameworks.Framework)
				fb, okB := b.(frameworks.Framework)
				if !ok || !okA || !okB {
					return 0
				}
				return frameworks.Compare(oracle, requested, fa, fb)
			},
		},
		{
			Name: PropertyRID,
			Parser: func(s string) (any, bool) {
				r, err := runtimeid.Parse(s)
				return r, err == nil
			},
		},
		{
			Name: PropertyLocale,
			Parser: func(s string) (any, bool) {
				tag, err := language.Parse(s)
				if err != nil || tag == language.Und {
					return nil, false
				}
				return tag, true
			},
		},
		{
			Name: PropertyCodeLanguage,
			Parser: func(s string) (any, bool) {
				return strings.ToLower(s), true
			},
			CompatibilityTest: func(criterion, available any) bool {
				return available == AnyCodeLanguage || strings.EqualFold(canonical(criterion), canonical(available))
			},
			CompareTest: func(_, a, b any) int {
				// a concrete language beats the language-neutral folder
				switch {
				case a == b:
					return 0
				case b == AnyCodeLanguage:
					return -1
				case a == AnyCodeLanguage:
					return 1
				}
				return 0
			},
		},
		{
			Name:           PropertyAssembly,
			FileExtensions: []string{".dll", ".exe", ".winmd"},
		},
		{
			Name:           PropertyNativeLibrary,
			FileExtensions: []string{".dll", ".so", ".dylib", ".a"},
		},
		{
			Name:           PropertyResources,
			FileExtensions: []string{".dll"},
		},
		{
			Name: PropertyAny,
		},
	}

	r := &Registry{definitions: make(map[string]*PropertyDefinition, len(defs))}
	for _, d := range defs {
		r.definitions[d.Name] = d
	}
	return r
}

// AnyCodeLanguage is the language-neutral content folder
const AnyCodeLanguage = "any"

func (r *Registry) Lookup(name string) (*PropertyDefinition, bool) {
	d, ok := r.definitions[name]
	return d, ok
}
