// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TestdataPath gives absolute path within the common 'testdata'
func TestdataPath(t *testing.T, path ...string) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)

	p := []string{filepath.Dir(file), "testdata"}
	p = append(p, path...)
	return filepath.Join(p...)
}

// PackageFixture describes a package to lay out in an install directory
type PackageFixture struct {
	ID      string
	Version string

	// Files lists the archive entries in order
	Files []string

	// Assemblies gives archive entries real assembly contents
	Assemblies map[string][]CustomAttribute

	// Spec is extra descriptor YAML, e.g. dependencyGroups
	Spec string
}

// WritePackage lays the fixture out under packagesRoot the way a restore would have extracted it,
// returning the install directory
func WritePackage(t *testing.T, packagesRoot string, p PackageFixture) string {
	t.Helper()

	v := semver.MustParse(p.Version)
	dir := packagesource.NewLocal(packagesRoot).InstallPath(p.ID, v)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for _, f := range p.Files {
		w, err := zw.Create(f)
		require.NoError(t, err)
		if strings.HasSuffix(f, "/") {
			continue
		}

		contents := []byte("contents of " + f)
		if attrs, ok := p.Assemblies[f]; ok {
			contents = BuildAssembly(t, attrs...)
		}
		_, err = w.Write(contents)
		require.NoError(t, err)

		extracted := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(extracted), 0o755))
		require.NoError(t, os.WriteFile(extracted, contents, 0o644))
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, packagesource.ArchiveName(p.ID, v)), archive.Bytes(), 0o644))

	descriptor := fmt.Sprintf("apiVersion: assetlock.dev/v1\nkind: %s\nid: %s\nversion: %s\n%s",
		packagesource.DescriptorKind, p.ID, p.Version, p.Spec)
	require.NoError(t, os.WriteFile(filepath.Join(dir, packagesource.DescriptorFilename), []byte(descriptor), 0o644))
	return dir
}

type CommonSetupSuite struct {
	suite.Suite
}

func (suite *CommonSetupSuite) SetupTest() {
	// every test gets its own ASSETLOCK_HOME, otherwise they'd all share ~/.assetlock
	suite.T().Setenv(config.HomeEnvVar, suite.T().TempDir())
}

func Context(t *testing.T) context.Context {
	ctx, stopFn := context.WithCancel(context.Background())
	t.Cleanup(stopFn)
	return ctx
}
