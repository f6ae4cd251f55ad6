// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/utils"
)

var ErrLockfileOutOfSync = errors.New(config.LockFileName + " needs to be updated; please run 'assetlock restore'")

type Locker struct {
	op Operation
}

type Operation int

const (
	CheckOnly Operation = iota
	Regular
)

func NewLocker(op Operation) *Locker {
	return &Locker{op: op}
}

// Ensure makes the lock file at lockfilePath record expected. In CheckOnly mode nothing is written
// and ErrLockfileOutOfSync is returned on any difference. Otherwise the file is rewritten only when
// it differs, and written reports whether that happened.
func (l *Locker) Ensure(ctx context.Context, expected *LockFile, lockfilePath string) (written bool, err error) {
	if l.op == CheckOnly {
		return false, l.checkLockfile(expected, lockfilePath)
	}

	err = utils.WithFileLock(ctx, lockfilePath+".lock", func() error {
		if err := l.checkLockfile(expected, lockfilePath); err == nil {
			slog.DebugContext(ctx, "lock file already in sync", "path", lockfilePath)
			return nil
		} else if !errors.Is(err, ErrLockfileOutOfSync) {
			return err
		}

		if err := l.write(expected, lockfilePath); err != nil {
			return err
		}
		written = true
		slog.InfoContext(ctx, "wrote lock file", "path", lockfilePath)
		return nil
	})
	return written, err
}

func (l *Locker) checkLockfile(expected *LockFile, lockfilePath string) error {
	existing, err := ReadLockFile(lockfilePath)
	if os.IsNotExist(err) || errors.Is(err, ErrInvalidLockFile) {
		return fmt.Errorf("%w: %w", ErrLockfileOutOfSync, err)
	}
	if err != nil {
		return err
	}

	inSync, err := existing.isInSync(expected)
	if err != nil {
		return err
	}

	if inSync {
		return nil
	}

	return ErrLockfileOutOfSync
}

func (l *Locker) write(expected *LockFile, lockfilePath string) error {
	data, err := expected.canonical()
	if err != nil {
		return err
	}
	return os.WriteFile(lockfilePath, data, 0644)
}
