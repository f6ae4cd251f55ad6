// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/runtimeid"
)

// Conventions are the package layout rules, one PatternSet per asset kind
type Conventions struct {
	Registry *Registry

	CompileRef   *PatternSet
	CompileLib   *PatternSet
	Runtime      *PatternSet
	Resources    *PatternSet
	Native       *PatternSet
	ContentFiles *PatternSet
}

func NewConventions(oracle frameworks.Oracle) *Conventions {
	r := NewRegistry(oracle)
	p := func(template string) *PatternTemplate {
		return MustParsePattern(r, template, nil)
	}
	// unversioned lib/ assets target the desktop framework
	desktop := func(template string) *PatternTemplate {
		return MustParsePattern(r, template, Properties{PropertyTFM: frameworks.Desktop})
	}

	assemblyLeaves := []string{PropertyAny, PropertyAssembly}

	return &Conventions{
		Registry: r,
		CompileRef: &PatternSet{
			Name:          "compile (ref)",
			GroupPatterns: []*PatternTemplate{p("ref/{tfm}/{any?}")},
			PathPatterns:  []*PatternTemplate{p("ref/{tfm}/{assembly}")},
			Leaves:        assemblyLeaves,
		},
		CompileLib: &PatternSet{
			Name:          "compile",
			GroupPatterns: []*PatternTemplate{p("lib/{tfm}/{any?}"), desktop("lib/{assembly?}")},
			PathPatterns:  []*PatternTemplate{p("lib/{tfm}/{assembly}"), desktop("lib/{assembly}")},
			Leaves:        assemblyLeaves,
		},
		Runtime: &PatternSet{
			Name: "runtime",
			GroupPatterns: []*PatternTemplate{
				p("runtimes/{rid}/lib/{tfm}/{any?}"),
				p("lib/{tfm}/{any?}"),
				desktop("lib/{assembly?}"),
			},
			PathPatterns: []*PatternTemplate{
				p("runtimes/{rid}/lib/{tfm}/{assembly}"),
				p("lib/{tfm}/{assembly}"),
				desktop("lib/{assembly}"),
			},
			Leaves: assemblyLeaves,
		},
		Resources: &PatternSet{
			Name: "resources",
			GroupPatterns: []*PatternTemplate{
				p("runtimes/{rid}/lib/{tfm}/{locale}/{resources?}"),
				p("lib/{tfm}/{locale}/{resources?}"),
			},
			PathPatterns: []*PatternTemplate{
				p("runtimes/{rid}/lib/{tfm}/{locale}/{resources}"),
				p("lib/{tfm}/{locale}/{resources}"),
			},
			Leaves: []string{PropertyLocale, PropertyResources},
		},
		Native: &PatternSet{
			Name:          "native",
			GroupPatterns: []*PatternTemplate{p("runtimes/{rid}/native/{any?}")},
			PathPatterns:  []*PatternTemplate{p("runtimes/{rid}/native/{nativeLibrary}")},
			Leaves:        []string{PropertyAny, PropertyNativeLibrary},
		},
		ContentFiles: &PatternSet{
			Name:          "content files",
			GroupPatterns: []*PatternTemplate{p("contentFiles/{codeLanguage}/{tfm}/{any?}")},
			PathPatterns:  []*PatternTemplate{p("contentFiles/{codeLanguage}/{tfm}/{any}")},
			Leaves:        []string{PropertyAny},
		},
	}
}

// FrameworkCriteria orders {tfm, rid} lookups for framework-sensitive assets: the target framework
// with each runtime, the generic framework with each runtime, then both without a runtime.
func (c *Conventions) FrameworkCriteria(tfm frameworks.Framework, runtimes []runtimeid.RID) (*SelectionCriteria, error) {
	b := NewCriteriaBuilder(c.Registry)
	for _, f := range []frameworks.Framework{tfm, frameworks.Generic} {
		for _, rid := range runtimes {
			b.Add(Property{Name: PropertyTFM, Value: f}, Property{Name: PropertyRID, Value: rid})
		}
	}
	b.Add(Property{Name: PropertyTFM, Value: tfm})
	b.Add(Property{Name: PropertyTFM, Value: frameworks.Generic})
	return b.Build()
}

// NativeCriteria looks native libraries up by runtime alone
func (c *Conventions) NativeCriteria(runtimes []runtimeid.RID) (*SelectionCriteria, error) {
	b := NewCriteriaBuilder(c.Registry)
	for _, rid := range runtimes {
		b.Add(Property{Name: PropertyRID, Value: rid})
	}
	return b.Build()
}

func (c *Conventions) ContentFilesCriteria(tfm frameworks.Framework, codeLanguage string) (*SelectionCriteria, error) {
	return NewCriteriaBuilder(c.Registry).
		Add(Property{Name: PropertyTFM, Value: tfm}, Property{Name: PropertyCodeLanguage, Value: codeLanguage}).
		Add(Property{Name: PropertyTFM, Value: frameworks.Generic}, Property{Name: PropertyCodeLanguage, Value: codeLanguage}).
		Build()
}
