// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assetlock.dev/x/assetlock/cmd/assetlock/cmd/show"
	"assetlock.dev/x/assetlock/pkg/config"
	"assetlock.dev/x/assetlock/pkg/lockfile"
	"assetlock.dev/x/assetlock/pkg/report"
	"assetlock.dev/x/assetlock/pkg/restoreerrors"
	"assetlock.dev/x/assetlock/pkg/testutil"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MainSuite struct {
	testutil.CommonSetupSuite
}

func TestSuite(t *testing.T) {
	suite.Run(t, &MainSuite{})
}

func (suite *MainSuite) SetupTest() {
	suite.CommonSetupSuite.SetupTest()

	noColor := color.NoColor
	color.NoColor = true
	suite.T().Cleanup(func() { color.NoColor = noColor })
}

var core = testutil.PackageFixture{
	ID:      "Contoso.Core",
	Version: "1.0.0",
	Files:   []string{"lib/net45/Contoso.Core.dll", "lib/net45/de/Contoso.Core.resources.dll"},
	Assemblies: map[string][]testutil.CustomAttribute{
		"lib/net45/Contoso.Core.dll": {testutil.MetadataAttribute("Serviceable", "True")},
	},
}

// writeProject lays out a project referencing the given packages and points the CLI at it
func writeProject(t *testing.T, packages ...testutil.PackageFixture) string {
	var b strings.Builder
	b.WriteString("apiVersion: assetlock.dev/v1\nkind: Project\nspec:\n  packages:\n")
	for _, p := range packages {
		fmt.Fprintf(&b, "    - id: %s\n      version: %s\n", p.ID, p.Version)
	}
	b.WriteString("  targets:\n    - framework: net45\n      runtimes: [win7-x64]\n")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFilename), []byte(b.String()), 0o644))
	t.Setenv(config.ProjectEnvVar, dir)
	return dir
}

func installPackages(t *testing.T, packages ...testutil.PackageFixture) {
	c, err := config.Get()
	require.NoError(t, err)
	for _, p := range packages {
		testutil.WritePackage(t, c.PackagesPath, p)
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	app := &App{
		Stdout: &out,
		Stderr: &errOut,
		Stdin:  strings.NewReader(""),
		OsArgs: append([]string{config.AppName}, args...),
	}
	cmd, err := RootCmd(app)
	require.NoError(t, err)

	err = cmd.ExecuteContext(testutil.Context(t))
	return out.String(), errOut.String(), err
}

func (suite *MainSuite) TestRestoreAndShow() {
	t := suite.T()
	installPackages(t, core)
	dir := writeProject(t, core)
	lockFilePath := filepath.Join(dir, config.LockFileName)

	_, stderr, err := run(t, "restore", "--check")
	assert.ErrorIs(t, err, lockfile.ErrLockfileOutOfSync)
	assert.Contains(t, stderr, "needs to be updated")
	assert.NoFileExists(t, lockFilePath)

	stdout, _, err := run(t, "restore")
	require.NoError(t, err)
	assert.Equal(t, "wrote "+lockFilePath+"\n", stdout)
	assert.FileExists(t, filepath.Join(dir, config.StateDirName, config.MarkerFilename))

	stdout, _, err = run(t, "restore")
	require.NoError(t, err)
	assert.Equal(t, "up to date "+lockFilePath+"\n", stdout)

	stdout, _, err = run(t, "restore", "--check")
	require.NoError(t, err)
	assert.Equal(t, "in sync "+lockFilePath+"\n", stdout)

	stdout, _, err = run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "net4.5/win7-x64")
	assert.Contains(t, stdout, "Contoso.Core 1.0.0")

	stdout, _, err = run(t, "show", "-o", "json")
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	require.Len(t, r, 1)
	require.Len(t, r[0].Libraries, 1)
	lib := r[0].Libraries[0]
	assert.True(t, lib.Serviceable)
	assert.Equal(t, []string{"lib/net45/Contoso.Core.dll"}, lib.Compile)
	assert.Equal(t, []string{"lib/net45/de/Contoso.Core.resources.dll"}, lib.Resources)

	_, _, err = run(t, "show", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func (suite *MainSuite) TestCheckReportsInvalidLockFileAsOutOfSync() {
	t := suite.T()
	installPackages(t, core)
	dir := writeProject(t, core)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.LockFileName), []byte("kind: Something\n"), 0o644))

	_, stderr, err := run(t, "restore", "--check")
	assert.ErrorIs(t, err, lockfile.ErrLockfileOutOfSync)
	assert.Contains(t, stderr, "needs to be updated")
	assert.NotContains(t, stderr, restoreerrors.UnknownError)

	_, _, err = run(t, "restore")
	require.NoError(t, err)
	_, _, err = run(t, "restore", "--check")
	assert.NoError(t, err)
}

func (suite *MainSuite) TestShowWithoutLockFile() {
	t := suite.T()
	writeProject(t, core)

	_, _, err := run(t, "show")
	assert.ErrorIs(t, err, show.ErrNoLockFile)
}

func (suite *MainSuite) TestRestoreErrors() {
	t := suite.T()
	missing := testutil.PackageFixture{ID: "Contoso.Missing", Version: "3.0.0"}
	installPackages(t, core)
	dir := writeProject(t, core, missing)

	_, stderr, err := run(t, "restore")
	require.Error(t, err)
	assert.Equal(t, []string{restoreerrors.PackageNotFound}, restoreerrors.Codes(err))
	assert.NoFileExists(t, filepath.Join(dir, config.LockFileName))

	var printed struct {
		Errors []struct {
			Code string `yaml:"code"`
		} `yaml:"errors"`
	}
	yamlPart, _, _ := strings.Cut(stderr, "Error:")
	require.NoError(t, yaml.Unmarshal([]byte(yamlPart), &printed))
	require.Len(t, printed.Errors, 1)
	assert.Equal(t, restoreerrors.PackageNotFound, printed.Errors[0].Code)
}

func (suite *MainSuite) TestRestoreWithoutProject() {
	t := suite.T()
	chdir(t, t.TempDir())

	_, _, err := run(t, "restore")
	assert.ErrorIs(t, err, config.ErrProjectNotFound)
}

func (suite *MainSuite) TestScan() {
	t := suite.T()
	dir := t.TempDir()
	serviceable := filepath.Join(dir, "serviceable.dll")
	plain := filepath.Join(dir, "plain.dll")
	testutil.WriteAssembly(t, serviceable, testutil.MetadataAttribute("Serviceable", "True"))
	testutil.WriteAssembly(t, plain)

	stdout, _, err := run(t, "scan", serviceable, plain, filepath.Join(dir, "missing.dll"))
	require.NoError(t, err)
	assert.Equal(t, serviceable+": serviceable\n"+
		plain+": not serviceable\n"+
		filepath.Join(dir, "missing.dll")+": not serviceable\n", stdout)

	_, _, err = run(t, "scan")
	assert.Error(t, err)
}

func (suite *MainSuite) TestVersion() {
	t := suite.T()

	stdout, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "version: unknown")
	assert.Contains(t, stdout, "buildDate: unknown")
}

func (suite *MainSuite) TestInvalidLogLevel() {
	t := suite.T()
	t.Setenv(config.LogLevelEnvVar, "chatty")

	_, err := RootCmd(&App{OsArgs: []string{config.AppName}})
	assert.ErrorContains(t, err, config.LogLevelEnvVar)
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
