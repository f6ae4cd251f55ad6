// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package frameworks

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"assetlock.dev/x/assetlock/pkg/schema"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
)

//go:embed compat.yaml
var defaultTable []byte

var ErrInvalidCompatibilityTable = fmt.Errorf("invalid compatibility table")

const (
	CompatibilityTableKind       = "CompatibilityTable"
	CompatibilityTableVersion    = "v1"
	CompatibilityTableAPIVersion = schema.APIGroup + "/" + CompatibilityTableVersion
)

type Kind string

const (
	KindDesktop  Kind = "desktop"
	KindModern   Kind = "modern"
	KindPortable Kind = "portable"
	KindOther    Kind = "other"
)

type CompatibilityTable struct {
	schema.ManifestMeta `yaml:",inline"`
	Spec                *TableSpec `yaml:"spec"`
}

type TableSpec struct {
	// Identifiers classifies framework identifiers; unlisted identifiers are KindOther
	Identifiers map[string]Kind `yaml:"identifiers"`

	// Compatibility lists the extra frameworks a framework (at or above the given version) can consume,
	// on top of lower versions of its own identifier
	Compatibility []Edge `yaml:"compatibility"`
}

type Edge struct {
	Framework Framework   `yaml:"framework"`
	Supports  []Framework `yaml:"supports"`
}

// TableOracle is a data-driven Oracle. It is immutable once constructed.
type TableOracle struct {
	kinds map[string]Kind
	edges []Edge
}

var _ Oracle = (*TableOracle)(nil)

// DefaultOracle returns the oracle backed by the embedded compatibility table
var DefaultOracle = sync.OnceValue(func() *TableOracle {
	o, err := ReadTableContents(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded compatibility table is broken: %s", err.Error()))
	}
	return o
})

func ReadTable(filePath string) (*TableOracle, error) {
	bytes, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}
	return ReadTableContents(bytes)
}

func ReadTableContents(contents []byte) (*TableOracle, error) {
	var t CompatibilityTable
	if err := yaml.UnmarshalWithOptions(contents, &t, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCompatibilityTable, err)
	}

	s := schema.ManifestMeta{
		APIVersion: CompatibilityTableAPIVersion,
		Kind:       CompatibilityTableKind,
	}
	if err := s.ValidateSchema(t.ManifestMeta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompatibilityTable, err.Error())
	}
	if t.Spec == nil {
		return nil, fmt.Errorf("%w: missing 'spec'", ErrInvalidCompatibilityTable)
	}

	for id, k := range t.Spec.Identifiers {
		if !lo.Contains([]Kind{KindDesktop, KindModern, KindPortable, KindOther}, k) {
			return nil, fmt.Errorf("%w: identifier %q has unknown kind %q", ErrInvalidCompatibilityTable, id, k)
		}
	}

	return &TableOracle{
		kinds: t.Spec.Identifiers,
		edges: t.Spec.Compatibility,
	}, nil
}

func (o *TableOracle) kind(f Framework) Kind {
	if f.IsPortable() {
		return KindPortable
	}
	if k, ok := o.kinds[f.Identifier]; ok {
		return k
	}
	return KindOther
}

func (o *TableOracle) IsDesktop(f Framework) bool {
	return o.kind(f) == KindDesktop
}

func (o *TableOracle) IsModern(f Framework) bool {
	return o.kind(f) == KindModern
}

func (o *TableOracle) IsPortable(f Framework) bool {
	return f.IsPortable()
}

func (o *TableOracle) IsCompatible(requested, candidate Framework) bool {
	switch {
	case candidate.IsAny():
		return true
	case requested.IsAny():
		return false
	case requested.IsPortable():
		// a portable project can only consume what all of its members can
		members := requested.PortableMembers()
		return len(members) > 0 && lo.EveryBy(members, func(m Framework) bool {
			return o.IsCompatible(m, candidate)
		})
	case candidate.IsPortable():
		// a portable library runs wherever one of its members does
		return lo.SomeBy(candidate.PortableMembers(), func(m Framework) bool {
			return o.IsCompatible(requested, m)
		})
	}
	return o.reaches(requested, candidate)
}

// reaches walks the compatibility edges breadth-first from requested
func (o *TableOracle) reaches(requested, candidate Framework) bool {
	visited := map[string]struct{}{}
	queue := []Framework{requested}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		if _, ok := visited[f.String()]; ok {
			continue
		}
		visited[f.String()] = struct{}{}

		if f.Identifier == candidate.Identifier && !candidate.version().GreaterThan(f.version()) {
			return true
		}

		for _, e := range o.edges {
			if e.Framework.Identifier == f.Identifier && !e.Framework.version().GreaterThan(f.version()) {
				queue = append(queue, e.Supports...)
			}
		}
	}
	return false
}
