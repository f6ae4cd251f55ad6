// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package restore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"assetlock.dev/x/assetlock/pkg/project"
	"assetlock.dev/x/assetlock/pkg/restoreerrors"
	"assetlock.dev/x/assetlock/pkg/serviceable"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Restorer resolves a project's packages into a lock file
type Restorer struct {
	source      packagesource.Source
	resolver    packagesource.PathResolver
	builder     *lockfile.Builder
	parallelism int
}

func New(source packagesource.Source, resolver packagesource.PathResolver, builder *lockfile.Builder, parallelism int) *Restorer {
	return &Restorer{
		source:      source,
		resolver:    resolver,
		builder:     builder,
		parallelism: max(parallelism, 1),
	}
}

type packageResult struct {
	library *lockfile.LockFileLibrary
	// targets holds one record per project target, in target order
	targets []*lockfile.LockFileTargetLibrary
}

// Restore builds the lock file for p. Packages are processed concurrently and independently;
// every failing package contributes a RestoreError to the joined error.
func (r *Restorer) Restore(ctx context.Context, p *project.Project) (*lockfile.LockFile, error) {
	targets, err := p.ResolveTargets()
	if err != nil {
		return nil, restoreerrors.NewInvalidTargetError(err)
	}

	results := make([]*packageResult, len(p.Spec.Packages))
	errs := make([]error, len(p.Spec.Packages))

	g := new(errgroup.Group)
	g.SetLimit(r.parallelism)
	for i, ref := range p.Spec.Packages {
		i, ref := i, ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = r.restorePackage(ctx, ref, targets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	lf := lockfile.New()
	lf.Targets = lo.Map(targets, func(t lockfile.Target, _ int) *lockfile.LockFileTarget {
		return &lockfile.LockFileTarget{Framework: t.Framework, Runtimes: t.Runtimes}
	})
	for _, res := range results {
		lf.Libraries = append(lf.Libraries, res.library)
		for i, lib := range res.targets {
			lf.Targets[i].Libraries = append(lf.Targets[i].Libraries, lib)
		}
	}
	lf.Sort()
	return lf, nil
}

func (r *Restorer) restorePackage(ctx context.Context, ref *project.PackageReference, targets []lockfile.Target) (*packageResult, error) {
	pkg, err := r.source.Get(ctx, ref.ID, ref.Version.Value())
	if err != nil {
		return nil, classify(err)
	}

	lib, err := r.builder.BuildLibrary(pkg)
	if err != nil {
		return nil, restoreerrors.NewMalformedPackageError(err)
	}
	lib.IsServiceable = r.isServiceable(pkg, lib.Files)

	res := &packageResult{library: lib}
	for _, t := range targets {
		targetLib, err := r.builder.BuildTargetLibrary(ctx, pkg, t)
		if err != nil {
			return nil, restoreerrors.NewInvalidTargetError(fmt.Errorf("%s %s for %s: %w", pkg.ID, pkg.Version, t, err))
		}
		res.targets = append(res.targets, targetLib)
	}

	slog.InfoContext(ctx, "restored package", "id", pkg.ID, "version", pkg.Version.String(), "serviceable", lib.IsServiceable)
	return res, nil
}

// isServiceable scans the installed copies of the package's assemblies. Entries that would
// resolve outside the install directory are skipped.
func (r *Restorer) isServiceable(pkg *packagesource.Package, files []string) bool {
	dir := r.resolver.InstallPath(pkg.ID, pkg.Version)
	assemblies := lo.FilterMap(files, func(f string, _ int) (string, bool) {
		rel := filepath.FromSlash(f)
		return filepath.Join(dir, rel), filepath.IsLocal(rel) && strings.EqualFold(path.Ext(f), ".dll")
	})
	return serviceable.ScanFiles(assemblies)
}

func classify(err error) error {
	switch {
	case errors.Is(err, packagesource.ErrPackageNotFound):
		return restoreerrors.NewPackageNotFoundError(err)
	case errors.Is(err, packagesource.ErrMalformedPackage):
		return restoreerrors.NewMalformedPackageError(err)
	}
	return restoreerrors.NewUnknownError(err)
}
