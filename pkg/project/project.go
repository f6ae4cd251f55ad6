// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/runtimeid"
	"assetlock.dev/x/assetlock/pkg/schema"
	"assetlock.dev/x/assetlock/pkg/utils/stringset"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
)

const (
	ProjectKind     = "Project"
	DefaultLanguage = "cs"
)

var (
	ErrInvalidProject = fmt.Errorf("invalid project")
	ErrInvalidTarget  = fmt.Errorf("invalid target")
)

type Project struct {
	schema.ManifestMeta `yaml:",inline"`
	Spec                *ProjectSpec `yaml:"spec"`

	AbsolutePath string `yaml:"-"`
}

type ProjectSpec struct {
	// Language selects content files, defaulting to cs
	Language string `yaml:"language,omitempty"`

	Packages []*PackageReference `yaml:"packages"`
	Targets  []*TargetSpec       `yaml:"targets"`
}

type PackageReference struct {
	ID      string         `yaml:"id"`
	Version *schema.SemVer `yaml:"version"`
}

// TargetSpec keeps monikers raw so bad targets are reported as such rather than as unreadable YAML
type TargetSpec struct {
	Framework string   `yaml:"framework"`
	Runtimes  []string `yaml:"runtimes,omitempty"`
}

func Read(filePath string) (*Project, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	bytes, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return ReadFromContents(bytes, abs)
}

func ReadFromContents(contents []byte, absPath string) (*Project, error) {
	expanded, err := expandEnv(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}

	var p Project
	if err := yaml.UnmarshalWithOptions(expanded, &p, yaml.Strict()); err != nil {
		return nil, errors.Join(ErrInvalidProject, err)
	}

	if err := schema.Meta(ProjectKind).ValidateSchema(p.ManifestMeta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProject, err.Error())
	}
	if p.Spec == nil {
		return nil, fmt.Errorf("%w: missing 'spec'", ErrInvalidProject)
	}

	seen := stringset.New()
	for _, ref := range p.Spec.Packages {
		if ref.ID == "" || ref.Version == nil {
			return nil, fmt.Errorf("%w: package is missing 'id' or 'version'", ErrInvalidProject)
		}
		if seen.Contains(ref.ID) {
			return nil, fmt.Errorf("%w: package %q is listed more than once", ErrInvalidProject, ref.ID)
		}
		seen.Add(ref.ID)
	}
	if len(p.Spec.Targets) == 0 {
		return nil, fmt.Errorf("%w: at least one target is required", ErrInvalidProject)
	}

	if p.Spec.Language == "" {
		p.Spec.Language = DefaultLanguage
	}
	p.AbsolutePath = absPath
	return &p, nil
}

// ResolveTargets parses every target, expanding the "current" runtime into the host's fallbacks
func (p *Project) ResolveTargets() ([]lockfile.Target, error) {
	var errs []error
	targets := lo.FilterMap(p.Spec.Targets, func(t *TargetSpec, _ int) (lockfile.Target, bool) {
		target, err := p.resolveTarget(t)
		if err != nil {
			errs = append(errs, err)
		}
		return target, err == nil
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return targets, nil
}

func (p *Project) resolveTarget(t *TargetSpec) (lockfile.Target, error) {
	f, err := frameworks.Parse(t.Framework)
	if err != nil {
		return lockfile.Target{}, fmt.Errorf("%w %q: %w", ErrInvalidTarget, t.Framework, err)
	}

	var runtimes []runtimeid.RID
	for _, s := range t.Runtimes {
		if s == runtimeid.CurrentStr {
			runtimes = append(runtimes, runtimeid.CurrentFallbacks()...)
			continue
		}
		r, err := runtimeid.Parse(s)
		if err != nil {
			return lockfile.Target{}, fmt.Errorf("%w %q: %w", ErrInvalidTarget, t.Framework, err)
		}
		runtimes = append(runtimes, r)
	}

	if len(runtimes) > 0 {
		runtimes = lo.Uniq(runtimes)
	}
	return lockfile.Target{
		Framework: f,
		Runtimes:  runtimes,
		Language:  p.Spec.Language,
	}, nil
}

func expandEnv(contents []byte) ([]byte, error) {
	var undefinedVars []string

	out := os.Expand(string(contents), func(key string) string {
		val, ok := os.LookupEnv(key)
		if !ok {
			undefinedVars = append(undefinedVars, key)
			return ""
		}
		return val
	})

	if len(undefinedVars) > 0 {
		return []byte{}, fmt.Errorf("environment variables used in %s are not set: %v", config.ProjectFilename, undefinedVars)
	}
	return []byte(out), nil
}
