// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package packagesource_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/packagesource"
	"assetlock.dev/x/assetlock/pkg/testutil"
	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGet(t *testing.T) {
	root := t.TempDir()
	dir := testutil.WritePackage(t, root, testutil.PackageFixture{
		ID:      "Contoso.Utils",
		Version: "1.2.0",
		Files:   []string{"lib/", "lib/net45/Contoso.Utils.dll", "Contoso.Utils.nuspec"},
		Spec: `dependencyGroups:
  - targetFramework: net45
    dependencies:
      - id: Newtonsoft.Json
        range: "[6.0.0, )"
  - dependencies:
      - id: System.Runtime
`,
	})

	src := packagesource.NewLocal(root)
	assert.Equal(t, filepath.Join(root, "contoso.utils", "1.2.0"), dir)
	assert.Equal(t, dir, src.InstallPath("CONTOSO.UTILS", semver.MustParse("1.2.0")))

	p, err := src.Get(testutil.Context(t), "contoso.utils", semver.MustParse("1.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "Contoso.Utils", p.ID)
	assert.Equal(t, []string{"lib/", "lib/net45/Contoso.Utils.dll", "Contoso.Utils.nuspec"}, p.Files)

	require.Len(t, p.Descriptor.DependencyGroups, 2)
	assert.Equal(t, "net4.5", p.Descriptor.DependencyGroups[0].TargetFramework.String())
	assert.Equal(t, packagesource.Dependency{ID: "Newtonsoft.Json", Range: "[6.0.0, )"}, p.Descriptor.DependencyGroups[0].Dependencies[0])
	assert.True(t, p.Descriptor.DependencyGroups[1].TargetFramework.Equal(frameworks.Any))

	r, err := p.OpenArchive()
	require.NoError(t, err)
	defer r.Close()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestLocalGetErrors(t *testing.T) {
	root := t.TempDir()
	ctx := testutil.Context(t)
	src := packagesource.NewLocal(root)

	_, err := src.Get(ctx, "Missing", semver.MustParse("1.0.0"))
	assert.ErrorIs(t, err, packagesource.ErrPackageNotFound)

	dir := testutil.WritePackage(t, root, testutil.PackageFixture{ID: "Broken", Version: "1.0.0", Files: []string{"lib/net45/a.dll"}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, packagesource.DescriptorFilename), []byte("kind: Nope\n"), 0o644))
	_, err = src.Get(ctx, "Broken", semver.MustParse("1.0.0"))
	assert.ErrorIs(t, err, packagesource.ErrMalformedPackage)
	assert.ErrorIs(t, err, packagesource.ErrInvalidDescriptor)

	dir = testutil.WritePackage(t, root, testutil.PackageFixture{ID: "NotZip", Version: "1.0.0"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, packagesource.ArchiveName("NotZip", semver.MustParse("1.0.0"))), []byte("nope"), 0o644))
	_, err = src.Get(ctx, "NotZip", semver.MustParse("1.0.0"))
	assert.ErrorIs(t, err, packagesource.ErrMalformedPackage)
}

func TestReadDescriptorContents(t *testing.T) {
	d, err := packagesource.ReadDescriptorContents([]byte(`
apiVersion: assetlock.dev/v1
kind: PackageDescriptor
id: Foo
version: 2.0.0
referenceGroups:
  - targetFramework: net45
    references: [Foo.dll]
frameworkAssemblies:
  - name: System.Xml
  - name: System.Net.Http
    targetFrameworks: [net45, win8]
`))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", d.Version.String())
	assert.Equal(t, []string{"Foo.dll"}, d.ReferenceGroups[0].References)
	assert.Empty(t, d.FrameworkAssemblies[0].TargetFrameworks)
	assert.Len(t, d.FrameworkAssemblies[1].TargetFrameworks, 2)

	tests := []struct {
		name     string
		contents string
		wantErr  error
	}{
		{name: "missing id", contents: "apiVersion: assetlock.dev/v1\nkind: PackageDescriptor\nversion: 1.0.0\n", wantErr: packagesource.ErrMissingDescriptorField},
		{name: "missing version", contents: "apiVersion: assetlock.dev/v1\nkind: PackageDescriptor\nid: Foo\n", wantErr: packagesource.ErrMissingDescriptorField},
		{name: "unknown field", contents: "apiVersion: assetlock.dev/v1\nkind: PackageDescriptor\nid: Foo\nversion: 1.0.0\nauthors: [me]\n", wantErr: packagesource.ErrInvalidDescriptor},
		{name: "bad framework", contents: "apiVersion: assetlock.dev/v1\nkind: PackageDescriptor\nid: Foo\nversion: 1.0.0\nreferenceGroups:\n  - targetFramework: nope\n", wantErr: packagesource.ErrInvalidDescriptor},
		{name: "dependency without id", contents: "apiVersion: assetlock.dev/v1\nkind: PackageDescriptor\nid: Foo\nversion: 1.0.0\ndependencyGroups:\n  - dependencies:\n      - range: 1.0.0\n", wantErr: packagesource.ErrMissingDescriptorField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := packagesource.ReadDescriptorContents([]byte(tt.contents))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
