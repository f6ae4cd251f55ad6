// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"fmt"
	"testing"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(frameworks.DefaultOracle())
}

func render(props Properties) map[string]string {
	out := map[string]string{}
	for k, v := range props {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestPatternMatch(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name     string
		template string
		defaults Properties
		path     string
		want     map[string]string
	}{
		{
			name:     "framework and assembly",
			template: "lib/{tfm}/{assembly}",
			path:     "lib/net45/Foo.dll",
			want:     map[string]string{"tfm": "net4.5", "assembly": "Foo.dll"},
		},
		{
			name:     "assembly extension is case-insensitive",
			template: "lib/{tfm}/{assembly}",
			path:     "lib/net45/Foo.DLL",
			want:     map[string]string{"tfm": "net4.5", "assembly": "Foo.DLL"},
		},
		{
			name:     "optional present",
			template: "lib/{tfm}/{any?}",
			path:     "lib/netstandard1.3/readme.txt",
			want:     map[string]string{"tfm": "netstandard1.3", "any": "readme.txt"},
		},
		{
			name:     "optional absent",
			template: "lib/{tfm}/{any?}",
			path:     "lib/netstandard1.3",
			want:     map[string]string{"tfm": "netstandard1.3"},
		},
		{
			name:     "defaults merged",
			template: "lib/{assembly?}",
			defaults: Properties{PropertyTFM: frameworks.Desktop},
			path:     "lib/Foo.dll",
			want:     map[string]string{"tfm": "net", "assembly": "Foo.dll"},
		},
		{
			name:     "runtime and locale",
			template: "runtimes/{rid}/lib/{tfm}/{locale}/{resources}",
			path:     "runtimes/win7-x64/lib/net45/fr-FR/Foo.resources.dll",
			want:     map[string]string{"rid": "win7-x64", "tfm": "net4.5", "locale": "fr-FR", "resources": "Foo.resources.dll"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(r, tt.template, tt.defaults)
			require.NoError(t, err)

			props, ok := p.Match(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, render(props))
		})
	}
}

func TestPatternRejects(t *testing.T) {
	r := testRegistry()

	tests := []struct {
		name     string
		template string
		path     string
	}{
		{name: "wrong extension", template: "lib/{tfm}/{assembly}", path: "lib/net45/Foo.xml"},
		{name: "unparseable framework", template: "lib/{tfm}/{assembly}", path: "lib/contract/Foo.dll"},
		{name: "literal mismatch", template: "lib/{tfm}/{assembly}", path: "ref/net45/Foo.dll"},
		{name: "literal is case-sensitive", template: "lib/{tfm}/{assembly}", path: "Lib/net45/Foo.dll"},
		{name: "too many segments", template: "lib/{tfm}/{any?}", path: "lib/net45/sub/Foo.dll"},
		{name: "too few segments", template: "lib/{tfm}/{assembly}", path: "lib/net45"},
		{name: "directory entry", template: "lib/{tfm}/{any?}", path: "lib/net45/"},
		{name: "not a locale", template: "lib/{tfm}/{locale}/{resources?}", path: "lib/net45/Foo.dll"},
		{name: "bad runtime", template: "runtimes/{rid}/native/{any?}", path: "runtimes/Win7 x64/native/a.dll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustParsePattern(r, tt.template, nil)
			props, ok := p.Match(tt.path)
			assert.False(t, ok)
			assert.Nil(t, props)
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	r := testRegistry()

	for _, template := range []string{"", "lib/{nope}", "lib/{tfm?}/{assembly}", "lib/{tfm", "lib//{any}", "lib/x{tfm}"} {
		t.Run(template, func(t *testing.T) {
			_, err := ParsePattern(r, template, nil)
			assert.ErrorIs(t, err, ErrInvalidPattern)
		})
	}

	_, err := ParsePattern(r, "lib/{nope}", nil)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	_, err = ParsePattern(r, "lib/{assembly?}", Properties{"nope": "x"})
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

func TestPropertyDefinitionTable(t *testing.T) {
	d := &PropertyDefinition{
		Name:  "arch",
		Table: map[string]any{"x64": "amd64", "x86": "386"},
	}

	v, ok := d.TryParse("X64")
	assert.True(t, ok)
	assert.Equal(t, "amd64", v)

	_, ok = d.TryParse("arm")
	assert.False(t, ok)

	assert.True(t, d.IsCriteriaSatisfied("amd64", "amd64"))
	assert.False(t, d.IsCriteriaSatisfied("amd64", "386"))
}

func TestCodeLanguageProperty(t *testing.T) {
	d, ok := testRegistry().Lookup(PropertyCodeLanguage)
	require.True(t, ok)

	v, ok := d.TryParse("CS")
	require.True(t, ok)
	assert.Equal(t, "cs", v)

	assert.True(t, d.IsCriteriaSatisfied("cs", "cs"))
	assert.True(t, d.IsCriteriaSatisfied("cs", AnyCodeLanguage))
	assert.False(t, d.IsCriteriaSatisfied("cs", "vb"))
	assert.Negative(t, d.compare("cs", "cs", AnyCodeLanguage))
}
