// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"assetlock.dev/x/assetlock/pkg/runtimeid"
	"assetlock.dev/x/assetlock/pkg/schema"
	"github.com/goccy/go-yaml"
	"github.com/opencontainers/go-digest"
	"github.com/samber/lo"
)

const (
	LockFileKind = "LockFile"
)

var ErrInvalidLockFile = fmt.Errorf("invalid lock file")

type LockFile struct {
	schema.ManifestMeta `yaml:",inline"`
	Libraries           []*LockFileLibrary `yaml:"libraries"`
	Targets             []*LockFileTarget  `yaml:"targets"`
}

// LockFileLibrary is the target-independent record of one package
type LockFileLibrary struct {
	Name    string         `yaml:"name"`
	Version *schema.SemVer `yaml:"version"`
	Hash    digest.Digest  `yaml:"hash"`

	IsServiceable bool `yaml:"serviceable,omitempty"`

	// Files is the full archive listing, including files no asset kind selects
	Files []string `yaml:"files"`
}

type LockFileTarget struct {
	Framework frameworks.Framework     `yaml:"framework"`
	Runtimes  []runtimeid.RID          `yaml:"runtimes,omitempty"`
	Libraries []*LockFileTargetLibrary `yaml:"libraries"`
}

// LockFileTargetLibrary is the record of one package resolved for one target
type LockFileTargetLibrary struct {
	Name    string         `yaml:"name"`
	Version *schema.SemVer `yaml:"version"`

	Dependencies        []packagesource.Dependency `yaml:"dependencies,omitempty"`
	FrameworkAssemblies []string                   `yaml:"frameworkAssemblies,omitempty"`

	Compile      []LockFileItem `yaml:"compile,omitempty"`
	Runtime      []LockFileItem `yaml:"runtime,omitempty"`
	Resources    []LockFileItem `yaml:"resources,omitempty"`
	Native       []LockFileItem `yaml:"native,omitempty"`
	ContentFiles []LockFileItem `yaml:"contentFiles,omitempty"`
}

// LockFileItem is one selected file, with extra properties such as a resource's locale
type LockFileItem struct {
	Path       string            `yaml:"path"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

func New() *LockFile {
	return &LockFile{ManifestMeta: schema.Meta(LockFileKind)}
}

func (l *LockFile) Library(name string) (*LockFileLibrary, bool) {
	return lo.Find(l.Libraries, func(lib *LockFileLibrary) bool { return strings.EqualFold(lib.Name, name) })
}

func (l *LockFile) Target(f frameworks.Framework, runtimes []runtimeid.RID) (*LockFileTarget, bool) {
	return lo.Find(l.Targets, func(t *LockFileTarget) bool {
		return t.Framework.Equal(f) && slices.Equal(t.Runtimes, runtimes)
	})
}

func (t *LockFileTarget) Library(name string) (*LockFileTargetLibrary, bool) {
	return lo.Find(t.Libraries, func(lib *LockFileTargetLibrary) bool { return strings.EqualFold(lib.Name, name) })
}

// Sort orders libraries by name and targets by framework and runtimes, so equal lock files marshal identically
func (l *LockFile) Sort() {
	byName := func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

	slices.SortFunc(l.Libraries, func(a, b *LockFileLibrary) int { return byName(a.Name, b.Name) })
	slices.SortFunc(l.Targets, func(a, b *LockFileTarget) int {
		if c := strings.Compare(a.Framework.String(), b.Framework.String()); c != 0 {
			return c
		}
		return slices.Compare(a.Runtimes, b.Runtimes)
	})
	for _, t := range l.Targets {
		slices.SortFunc(t.Libraries, func(a, b *LockFileTargetLibrary) int { return byName(a.Name, b.Name) })
	}
}

func ReadLockFile(filePath string) (*LockFile, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	bytes, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return ReadLockFileContents(bytes)
}

func ReadLockFileContents(contents []byte) (*LockFile, error) {
	var l LockFile
	if err := yaml.UnmarshalWithOptions(contents, &l, yaml.Strict()); err != nil {
		return nil, errors.Join(ErrInvalidLockFile, err)
	}

	if err := schema.Meta(LockFileKind).ValidateSchema(l.ManifestMeta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLockFile, err.Error())
	}

	for _, lib := range l.Libraries {
		if lib.Name == "" || lib.Version == nil {
			return nil, fmt.Errorf("%w: library is missing 'name' or 'version'", ErrInvalidLockFile)
		}
		if lib.Hash != "" {
			if err := lib.Hash.Validate(); err != nil {
				return nil, fmt.Errorf("%w: library %s: %w", ErrInvalidLockFile, lib.Name, err)
			}
		}
	}
	return &l, nil
}

func (l *LockFile) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// isInSync reports whether this (existing) lock file records the same resolution as expected,
// regardless of library and target order
func (l *LockFile) isInSync(expected *LockFile) (bool, error) {
	got, err := l.canonical()
	if err != nil {
		return false, err
	}
	want, err := expected.canonical()
	if err != nil {
		return false, err
	}
	return string(got) == string(want), nil
}

func (l *LockFile) canonical() ([]byte, error) {
	c := &LockFile{
		ManifestMeta: l.ManifestMeta,
		Libraries:    slices.Clone(l.Libraries),
		Targets: lo.Map(l.Targets, func(t *LockFileTarget, _ int) *LockFileTarget {
			clone := *t
			clone.Libraries = slices.Clone(t.Libraries)
			return &clone
		}),
	}
	c.Sort()
	return c.Marshal()
}
