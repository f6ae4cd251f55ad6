// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"assetlock.dev/x/assetlock/pkg/contentmodel"
	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"assetlock.dev/x/assetlock/pkg/runtimeid"
	"assetlock.dev/x/assetlock/pkg/schema"
	"assetlock.dev/x/assetlock/pkg/utils/stringset"
	"github.com/samber/lo"
)

// contractDir holds reference-only assemblies predating per-framework compile assets
const contractDir = "lib/contract/"

// Target is one resolution target of a project
type Target struct {
	Framework frameworks.Framework

	// Runtimes are runtime fallbacks, most specific first
	Runtimes []runtimeid.RID

	// Language selects content files; empty skips them
	Language string
}

func (t Target) String() string {
	if len(t.Runtimes) == 0 {
		return t.Framework.String()
	}
	return t.Framework.String() + "/" + strings.Join(lo.Map(t.Runtimes, func(r runtimeid.RID, _ int) string { return r.String() }), ",")
}

// Builder assembles lock-file records from resolved packages. It is safe for concurrent use.
type Builder struct {
	conventions *contentmodel.Conventions
	oracle      frameworks.Oracle
	hasher      Hasher
}

func NewBuilder(oracle frameworks.Oracle, hasher Hasher) *Builder {
	return &Builder{
		conventions: contentmodel.NewConventions(oracle),
		oracle:      oracle,
		hasher:      hasher,
	}
}

// BuildLibrary records the package independently of any target
func (b *Builder) BuildLibrary(p *packagesource.Package) (*LockFileLibrary, error) {
	r, err := p.OpenArchive()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	hash, err := b.hasher.Hash(r)
	if err != nil {
		return nil, fmt.Errorf("failed to hash archive of %s %s: %w", p.ID, p.Version, err)
	}

	return &LockFileLibrary{
		Name:    p.ID,
		Version: schema.NewSemVer(p.Version),
		Hash:    hash,
		Files:   slices.Clone(p.Files),
	}, nil
}

// BuildTargetLibrary selects the package's assets for target. An error means the target itself is unusable;
// package contents never fail the build, they only leave asset lists empty.
func (b *Builder) BuildTargetLibrary(ctx context.Context, p *packagesource.Package, target Target) (*LockFileTargetLibrary, error) {
	c := b.conventions
	collection := contentmodel.NewContentItemCollection(p.Files)

	frameworkCriteria, err := c.FrameworkCriteria(target.Framework, target.Runtimes)
	if err != nil {
		return nil, err
	}
	nativeCriteria, err := c.NativeCriteria(target.Runtimes)
	if err != nil {
		return nil, err
	}

	find := func(criteria *contentmodel.SelectionCriteria, set *contentmodel.PatternSet) []contentmodel.ContentItem {
		g := c.Registry.FindBestItemGroup(criteria, collection.FindItemGroups(set))
		if g == nil {
			slog.DebugContext(ctx, "no asset group selected", "package", p.ID, "kind", set.Name, "target", target.String())
			return nil
		}
		slog.DebugContext(ctx, "selected asset group", "package", p.ID, "kind", set.Name, "target", target.String(), "group", g.Key())
		return g.Items()
	}

	compile := find(frameworkCriteria, c.CompileRef)
	if compile == nil {
		compile = find(frameworkCriteria, c.CompileLib)
	}

	lib := &LockFileTargetLibrary{
		Name:      p.ID,
		Version:   schema.NewSemVer(p.Version),
		Compile:   toItems(compile),
		Runtime:   toItems(find(frameworkCriteria, c.Runtime)),
		Resources: toItems(find(frameworkCriteria, c.Resources), contentmodel.PropertyLocale),
		Native:    toItems(find(nativeCriteria, c.Native)),
	}

	if target.Language != "" {
		contentCriteria, err := c.ContentFilesCriteria(target.Framework, target.Language)
		if err != nil {
			return nil, err
		}
		lib.ContentFiles = toItems(find(contentCriteria, c.ContentFiles), contentmodel.PropertyCodeLanguage)
	}

	b.applyContractOverride(p, target, lib)
	if p.Descriptor != nil {
		b.applyReferenceFilter(p.Descriptor, target, lib)
		lib.Dependencies = b.dependencies(p.Descriptor, target)
		lib.FrameworkAssemblies = b.frameworkAssemblies(p.Descriptor, target)
	}
	return lib, nil
}

func toItems(items []contentmodel.ContentItem, extra ...string) []LockFileItem {
	return lo.Map(items, func(i contentmodel.ContentItem, _ int) LockFileItem {
		item := LockFileItem{Path: i.Path}
		for _, name := range extra {
			if v, ok := i.Properties[name]; ok {
				if item.Properties == nil {
					item.Properties = map[string]string{}
				}
				item.Properties[name] = fmt.Sprint(v)
			}
		}
		return item
	})
}

// applyContractOverride replaces compile assets with lib/contract/<id>.dll for non-desktop targets
// that have runtime assets
func (b *Builder) applyContractOverride(p *packagesource.Package, target Target, lib *LockFileTargetLibrary) {
	if len(lib.Runtime) == 0 || b.oracle.IsDesktop(target.Framework) {
		return
	}
	contract, ok := lo.Find(p.Files, func(f string) bool {
		return strings.EqualFold(f, contractDir+p.ID+".dll")
	})
	if ok {
		lib.Compile = []LockFileItem{{Path: contract}}
	}
}

// applyReferenceFilter drops lib/ assemblies missing from the first compatible reference allow-list
func (b *Builder) applyReferenceFilter(d *packagesource.Descriptor, target Target, lib *LockFileTargetLibrary) {
	i, ok := frameworks.FirstCompatible(b.oracle, target.Framework, lo.Map(d.ReferenceGroups, func(g *packagesource.ReferenceGroup, _ int) frameworks.Framework {
		return g.TargetFramework
	}))
	if !ok {
		return
	}

	allowed := stringset.New(d.ReferenceGroups[i].References...)
	keep := func(item LockFileItem, _ int) bool {
		return !strings.HasPrefix(item.Path, "lib/") || allowed.Contains(path.Base(item.Path))
	}
	lib.Compile = lo.Filter(lib.Compile, keep)
	lib.Runtime = lo.Filter(lib.Runtime, keep)
}

// dependencies copies the first compatible dependency group verbatim
func (b *Builder) dependencies(d *packagesource.Descriptor, target Target) []packagesource.Dependency {
	i, ok := frameworks.FirstCompatible(b.oracle, target.Framework, lo.Map(d.DependencyGroups, func(g *packagesource.DependencyGroup, _ int) frameworks.Framework {
		return g.TargetFramework
	}))
	if !ok {
		return nil
	}
	return slices.Clone(d.DependencyGroups[i].Dependencies)
}

// frameworkAssemblies applies to non-portable, non-modern targets only. An empty framework list
// means the desktop framework.
func (b *Builder) frameworkAssemblies(d *packagesource.Descriptor, target Target) []string {
	tfm := target.Framework
	if b.oracle.IsPortable(tfm) || b.oracle.IsModern(tfm) {
		return nil
	}

	return lo.FilterMap(d.FrameworkAssemblies, func(a *packagesource.FrameworkAssembly, _ int) (string, bool) {
		if len(a.TargetFrameworks) == 0 {
			return a.Name, b.oracle.IsDesktop(tfm)
		}
		return a.Name, lo.SomeBy(a.TargetFrameworks, func(f frameworks.Framework) bool {
			return frameworks.Compatible(b.oracle, tfm, f)
		})
	})
}
