// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package restore

import (
	"context"
	"log/slog"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/marker"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"assetlock.dev/x/assetlock/pkg/project"
	"assetlock.dev/x/assetlock/pkg/restoreerrors"
)

type Result struct {
	LockFile     *lockfile.LockFile
	LockFilePath string

	// Written is set when the lock file on disk changed
	Written bool
}

// Run restores the project at projectPath using the packages and settings of c.
// With lockfile.CheckOnly the lock file is only verified.
func Run(ctx context.Context, c *config.Config, projectPath string, op lockfile.Operation) (*Result, error) {
	p, err := project.Read(projectPath)
	if err != nil {
		return nil, restoreerrors.NewMalformedProjectError(err)
	}

	oracle, err := c.Oracle()
	if err != nil {
		return nil, err
	}

	source := packagesource.NewLocal(c.PackagesPath)
	restorer := New(source, source, lockfile.NewBuilder(oracle, lockfile.NewDigestHasher()), c.Workers())

	expected, err := restorer.Restore(ctx, p)
	if err != nil {
		return nil, err
	}

	res := &Result{LockFile: expected, LockFilePath: config.LockFilePath(p.AbsolutePath)}
	res.Written, err = lockfile.NewLocker(op).Ensure(ctx, expected, res.LockFilePath)
	if err != nil {
		return res, err
	}

	if res.Written {
		markerPath := config.MarkerPath(p.AbsolutePath)
		if err := marker.Touch(ctx, markerPath); err != nil {
			return res, err
		}
		slog.DebugContext(ctx, "touched restore marker", "path", markerPath)
	}
	return res, nil
}
