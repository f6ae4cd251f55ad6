// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package marker

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"assetlock.dev/x/assetlock/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchCreatesMarker(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".assetlock", "restore.marker")

	_, ok, err := ModTime(p)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Touch(testutil.Context(t), p))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.WithinDuration(t, time.Now(), info.ModTime(), time.Minute)
}

func TestTouchIsIdempotent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "restore.marker")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, touch(p, old))

	mtime, ok, err := ModTime(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, old.Equal(mtime))

	require.NoError(t, Touch(testutil.Context(t), p))
	require.NoError(t, Touch(testutil.Context(t), p))

	mtime, ok, err = ModTime(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mtime.After(old))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestTouchPreservesContents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "restore.marker")
	require.NoError(t, os.WriteFile(p, []byte("keep"), 0644))

	require.NoError(t, Touch(testutil.Context(t), p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestConcurrentTouch(t *testing.T) {
	p := filepath.Join(t.TempDir(), "restore.marker")
	ctx := testutil.Context(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Touch(ctx, p)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.FileExists(t, p)
}
