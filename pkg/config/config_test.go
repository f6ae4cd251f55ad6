// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnvVar, home)

	c, err := Get()
	require.NoError(t, err)
	assert.Equal(t, home, c.HomePath)
	assert.Equal(t, filepath.Join(home, PackagesDirName), c.PackagesPath)
	assert.Equal(t, 0, c.Parallelism)
	assert.Equal(t, runtime.NumCPU(), c.Workers())

	o, err := c.Oracle()
	require.NoError(t, err)
	assert.Same(t, frameworks.DefaultOracle(), o)
}

func TestGetWithConfigFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFilename), []byte("packages-path: pkgs\nparallelism: 3\nno-color: true\n"), 0644))

	c, err := GetWithCustomHome(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "pkgs"), c.PackagesPath)
	assert.Equal(t, 3, c.Workers())
	assert.True(t, c.NoColor)

	t.Run("env vars take precedence", func(t *testing.T) {
		packages := t.TempDir()
		t.Setenv(PackagesEnvVar, packages)
		t.Setenv(ParallelismEnvVar, "7")
		t.Setenv(NoColorEnvVar, "false")

		c, err := GetWithCustomHome(home)
		require.NoError(t, err)
		assert.Equal(t, packages, c.PackagesPath)
		assert.Equal(t, 7, c.Parallelism)
		assert.False(t, c.NoColor)
	})
}

func TestGetErrors(t *testing.T) {
	tests := []struct {
		name       string
		configFile string
		env        map[string]string
	}{
		{name: "unknown config key", configFile: "registry: example.com\n"},
		{name: "negative parallelism", configFile: "parallelism: -1\n"},
		{name: "malformed parallelism env var", env: map[string]string{ParallelismEnvVar: "many"}},
		{name: "malformed no-color env var", env: map[string]string{NoColorEnvVar: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if tt.configFile != "" {
				require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFilename), []byte(tt.configFile), 0644))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := GetWithCustomHome(home)
			assert.Error(t, err)
		})
	}
}

func TestCustomCompatibilityTable(t *testing.T) {
	home := t.TempDir()
	table := `apiVersion: assetlock.dev/v1
kind: CompatibilityTable
spec:
  identifiers:
    net: desktop
  compatibility: []
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "compat.yaml"), []byte(table), 0644))
	t.Setenv(CompatTableEnvVar, "compat.yaml")

	c, err := GetWithCustomHome(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "compat.yaml"), c.CompatTablePath)

	o, err := c.Oracle()
	require.NoError(t, err)
	assert.True(t, o.IsDesktop(frameworks.MustParse("net45")))
	assert.False(t, o.IsModern(frameworks.MustParse("netstandard1.0")))

	t.Setenv(CompatTableEnvVar, "missing.yaml")
	c, err = GetWithCustomHome(home)
	require.NoError(t, err)
	_, err = c.Oracle()
	assert.Error(t, err)
}

func TestGetProjectAbsolutePath(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	nested := filepath.Join(root, "src", "app")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFilename), []byte{}, 0644))
	chdir(t, nested)

	p, err := GetProjectAbsolutePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ProjectFilename), p)
	assert.Equal(t, filepath.Join(root, LockFileName), LockFilePath(p))
	assert.Equal(t, filepath.Join(root, StateDirName, MarkerFilename), MarkerPath(p))

	other := t.TempDir()
	t.Setenv(ProjectEnvVar, other)
	p, err = GetProjectAbsolutePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(other, ProjectFilename), p)
}

func TestGetProjectAbsolutePathNotFound(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := GetProjectAbsolutePath()
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("PWD", dir)
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
