// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package marker maintains the restore marker, an empty file whose mtime tells build tooling
// that the lock file changed.
package marker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"assetlock.dev/x/assetlock/pkg/utils"
)

// Touch creates the marker at path if missing and sets its modification time to now.
// Concurrent touches of the same marker are serialized.
func Touch(ctx context.Context, path string) error {
	return utils.WithFileLock(ctx, path+".lock", func() error {
		return touch(path, time.Now())
	})
}

func touch(path string, now time.Time) error {
	err := os.Chtimes(path, now, now)
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chtimes(path, now, now)
}

// ModTime returns the marker's modification time, and false if it does not exist
func ModTime(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}
