// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package frameworks

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	o := DefaultOracle()

	tests := []struct {
		name      string
		requested string
		nearer    string
		farther   string
	}{
		{name: "exact", requested: "net45", nearer: "net45", farther: "net40"},
		{name: "highest lower version", requested: "net46", nearer: "net451", farther: "net40"},
		{name: "own identifier first", requested: "net46", nearer: "net20", farther: "netstandard1.3"},
		{name: "any last", requested: "net46", nearer: "netstandard1.0", farther: "any"},
		{name: "portable after concrete", requested: "net45", nearer: "dotnet5.1", farther: "portable-net45+win8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requested, a, b := MustParse(tt.requested), MustParse(tt.nearer), MustParse(tt.farther)
			assert.Negative(t, Compare(o, requested, a, b))
			assert.Positive(t, Compare(o, requested, b, a))
		})
	}

	t.Run("equal monikers tie", func(t *testing.T) {
		assert.Zero(t, Compare(o, MustParse("net45"), MustParse("net4.5"), MustParse("net45")))
	})
}

func TestFirstCompatible(t *testing.T) {
	o := DefaultOracle()

	tests := []struct {
		name       string
		requested  string
		candidates []string
		want       int
	}{
		{name: "declaration order over nearness", requested: "net45", candidates: []string{"net40", "net45"}, want: 0},
		{name: "incompatible skipped", requested: "net40", candidates: []string{"net45", "net20", "net40"}, want: 1},
		{name: "any matches everything", requested: "netcoreapp1.0", candidates: []string{"net45", "any"}, want: 1},
		{name: "none compatible", requested: "net40", candidates: []string{"net45", "netstandard1.0"}, want: -1},
		{name: "no candidates", requested: "net45", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstCompatible(o, MustParse(tt.requested), lo.Map(tt.candidates, func(s string, _ int) Framework { return MustParse(s) }))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want >= 0, ok)
		})
	}
}
