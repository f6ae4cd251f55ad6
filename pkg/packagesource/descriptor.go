// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package packagesource

import (
	"fmt"
	"os"
	"path/filepath"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/schema"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
)

var ErrInvalidDescriptor = fmt.Errorf("invalid package descriptor")
var ErrMissingDescriptorField = fmt.Errorf("%w: a required field is missing", ErrInvalidDescriptor)

const (
	DescriptorKind     = "PackageDescriptor"
	DescriptorFilename = "package.yaml"
)

// Descriptor is the package metadata asset selection needs besides the file listing
type Descriptor struct {
	schema.ManifestMeta `yaml:",inline"`

	ID      string         `yaml:"id"`
	Version *schema.SemVer `yaml:"version"`

	DependencyGroups    []*DependencyGroup   `yaml:"dependencyGroups,omitempty"`
	ReferenceGroups     []*ReferenceGroup    `yaml:"referenceGroups,omitempty"`
	FrameworkAssemblies []*FrameworkAssembly `yaml:"frameworkAssemblies,omitempty"`
}

type DependencyGroup struct {
	// TargetFramework defaults to any
	TargetFramework frameworks.Framework `yaml:"targetFramework"`
	Dependencies    []Dependency         `yaml:"dependencies"`
}

type Dependency struct {
	ID string `yaml:"id"`

	// Range is kept verbatim
	Range string `yaml:"range,omitempty"`
}

// ReferenceGroup is an allow-list of assembly file names for a framework
type ReferenceGroup struct {
	TargetFramework frameworks.Framework `yaml:"targetFramework"`
	References      []string             `yaml:"references"`
}

// FrameworkAssembly is a reference to an assembly shipped with the framework itself.
// An empty TargetFrameworks list means the desktop framework only.
type FrameworkAssembly struct {
	Name             string                 `yaml:"name"`
	TargetFrameworks []frameworks.Framework `yaml:"targetFrameworks,omitempty"`
}

func ReadDescriptor(filePath string) (*Descriptor, error) {
	bytes, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}
	d, err := ReadDescriptorContents(bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return d, nil
}

func ReadDescriptorContents(contents []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.UnmarshalWithOptions(contents, &d, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	if err := schema.Meta(DescriptorKind).ValidateSchema(d.ManifestMeta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, err.Error())
	}

	if d.ID == "" {
		return nil, fmt.Errorf("%w: 'id'", ErrMissingDescriptorField)
	}
	if d.Version == nil {
		return nil, fmt.Errorf("%w: 'version'", ErrMissingDescriptorField)
	}

	for _, g := range d.DependencyGroups {
		g.TargetFramework = orAny(g.TargetFramework)
		if _, ok := lo.Find(g.Dependencies, func(dep Dependency) bool { return dep.ID == "" }); ok {
			return nil, fmt.Errorf("%w: dependency 'id' in group %s", ErrMissingDescriptorField, g.TargetFramework)
		}
	}
	for _, g := range d.ReferenceGroups {
		g.TargetFramework = orAny(g.TargetFramework)
	}
	for _, a := range d.FrameworkAssemblies {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: framework assembly 'name'", ErrMissingDescriptorField)
		}
	}
	return &d, nil
}

func orAny(f frameworks.Framework) frameworks.Framework {
	if f.Identifier == "" {
		return frameworks.Any
	}
	return f
}
