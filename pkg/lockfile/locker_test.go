// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerCheckOnly(t *testing.T) {
	ctx := testutil.Context(t)
	lockfilePath := filepath.Join(t.TempDir(), config.LockFileName)

	written, err := NewLocker(CheckOnly).Ensure(ctx, mk("A"), lockfilePath)
	assert.ErrorIs(t, err, ErrLockfileOutOfSync)
	assert.False(t, written)
	assert.NoFileExists(t, lockfilePath)

	written, err = NewLocker(Regular).Ensure(ctx, mk("B", "A"), lockfilePath)
	require.NoError(t, err)
	assert.True(t, written)

	_, err = NewLocker(CheckOnly).Ensure(ctx, mk("A", "B"), lockfilePath)
	assert.NoError(t, err)

	_, err = NewLocker(CheckOnly).Ensure(ctx, mk("A", "B@2.0.0"), lockfilePath)
	assert.ErrorIs(t, err, ErrLockfileOutOfSync)
}

func TestLockerRegularWritesOnlyOnChange(t *testing.T) {
	ctx := testutil.Context(t)
	lockfilePath := filepath.Join(t.TempDir(), config.LockFileName)
	locker := NewLocker(Regular)

	written, err := locker.Ensure(ctx, mk("A"), lockfilePath)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = locker.Ensure(ctx, mk("A"), lockfilePath)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = locker.Ensure(ctx, mk("A", "B"), lockfilePath)
	require.NoError(t, err)
	assert.True(t, written)

	l, err := ReadLockFile(lockfilePath)
	require.NoError(t, err)
	assert.Len(t, l.Libraries, 2)
}

func TestLockerReplacesInvalidLockFile(t *testing.T) {
	ctx := testutil.Context(t)
	lockfilePath := filepath.Join(t.TempDir(), config.LockFileName)
	require.NoError(t, os.WriteFile(lockfilePath, []byte("kind: Something\n"), 0644))

	_, err := NewLocker(CheckOnly).Ensure(ctx, mk("A"), lockfilePath)
	assert.ErrorIs(t, err, ErrLockfileOutOfSync)
	assert.ErrorIs(t, err, ErrInvalidLockFile)

	written, err := NewLocker(Regular).Ensure(ctx, mk("A"), lockfilePath)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestLockerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()
	lockfilePath := filepath.Join(t.TempDir(), config.LockFileName)

	_, err := NewLocker(Regular).Ensure(ctx, mk("A"), lockfilePath)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, lockfilePath)
}
