// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"assetlock.dev/x/assetlock/pkg/frameworks"
	"assetlock.dev/x/assetlock/pkg/utils"
	"github.com/goccy/go-yaml"
)

var ErrProjectNotFound = fmt.Errorf("no %s found in the current directory or any of its parents", ProjectFilename)

type Config struct {
	HomePath string `yaml:"-"`

	// PackagesPath is the root of extracted packages, laid out as <id>/<version>/
	PackagesPath string `yaml:"packages-path,omitempty"`

	// Parallelism bounds concurrent package builds during restore; 0 means one per CPU
	Parallelism int `yaml:"parallelism,omitempty"`

	// CompatTablePath overrides the embedded framework compatibility table
	CompatTablePath string `yaml:"compat-table,omitempty"`

	NoColor bool `yaml:"no-color,omitempty"`
}

func (c *Config) EnsureDirs() error {
	return utils.EnsureDirs(c.HomePath, c.PackagesPath)
}

// Oracle returns the framework compatibility oracle this configuration selects
func (c *Config) Oracle() (frameworks.Oracle, error) {
	if c.CompatTablePath == "" {
		return frameworks.DefaultOracle(), nil
	}
	o, err := frameworks.ReadTable(c.CompatTablePath)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Workers is the effective restore parallelism
func (c *Config) Workers() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.NumCPU()
}

func Get() (*Config, error) {
	homePath, err := getHomePath()
	if err != nil {
		return nil, err
	}
	return GetWithCustomHome(homePath)
}

func GetWithCustomHome(homePath string) (*Config, error) {
	config := Config{}

	// assetlock-config.yaml is optional
	configFilePath := filepath.Join(homePath, ConfigFilename)
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if fileInfo.IsDir() {
			return nil, fmt.Errorf("%q is directory and not a file", configFilePath)
		}

		bytes, err := os.ReadFile(configFilePath)
		if err != nil {
			return nil, err
		}

		if err := yaml.UnmarshalWithOptions(bytes, &config, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", configFilePath, err)
		}
	}

	if packagesPath, ok := os.LookupEnv(PackagesEnvVar); ok {
		config.PackagesPath = packagesPath
	}
	if config.PackagesPath == "" {
		config.PackagesPath = filepath.Join(homePath, PackagesDirName)
	}
	config.PackagesPath = utils.ResolvePath(homePath, config.PackagesPath)

	parallelism, ok, err := utils.IntEnvVar(ParallelismEnvVar)
	if err != nil {
		return nil, err
	}
	if ok {
		config.Parallelism = parallelism
	}
	if config.Parallelism < 0 {
		return nil, fmt.Errorf("parallelism must not be negative, got %d", config.Parallelism)
	}

	if compatTable, ok := os.LookupEnv(CompatTableEnvVar); ok {
		config.CompatTablePath = compatTable
	}
	if config.CompatTablePath != "" {
		config.CompatTablePath = utils.ResolvePath(homePath, config.CompatTablePath)
	}

	noColor, ok, err := utils.BoolEnvVar(NoColorEnvVar)
	if err != nil {
		return nil, err
	}
	if ok {
		config.NoColor = noColor
	}

	config.HomePath = homePath
	return &config, nil
}

func getHomePath() (string, error) {
	if v, ok := os.LookupEnv(HomeEnvVar); ok {
		return v, nil
	}

	return getAppUserDataDirectory(AppName)
}

func getAppUserDataDirectory(appName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir, ok := os.LookupEnv("APPDATA")
		if !ok {
			return "", fmt.Errorf("APPDATA environment variable is not set")
		}
		return filepath.Join(dir, appName), nil
	default:
		dir, ok := os.LookupEnv("HOME")
		if !ok {
			return "", fmt.Errorf("HOME environment variable is not set")
		}
		return filepath.Join(dir, "."+appName), nil
	}
}

// GetProjectAbsolutePath returns the absolute path of the assetlock.yaml in scope,
// or ErrProjectNotFound
func GetProjectAbsolutePath() (string, error) {
	// ASSETLOCK_PROJECT env var takes precedence
	if projectDir, ok := os.LookupEnv(ProjectEnvVar); ok {
		return filepath.Abs(filepath.Join(projectDir, ProjectFilename))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	p, ok, err := findInAncestors(cwd, ProjectFilename)
	if err != nil {
		return "", fmt.Errorf("error looking for project: %w", err)
	}
	if !ok {
		return "", ErrProjectNotFound
	}
	return p, nil
}

// LockFilePath is the lock file next to the given assetlock.yaml
func LockFilePath(projectPath string) string {
	return filepath.Join(filepath.Dir(projectPath), LockFileName)
}

// MarkerPath is the restore marker next to the given assetlock.yaml
func MarkerPath(projectPath string) string {
	return filepath.Join(filepath.Dir(projectPath), StateDirName, MarkerFilename)
}

func findInAncestors(startDir, filename string) (absolutePath string, ok bool, err error) {
	p, ok, err := doFindInAncestors(startDir, filename)
	if err != nil {
		return
	}
	if !ok {
		return "", false, nil
	}
	absolutePath, err = filepath.Abs(p)
	return
}

func doFindInAncestors(startDir, filename string) (string, bool, error) {
	f := filepath.Join(startDir, filename)

	info, err := os.Stat(f)
	if err == nil && !info.IsDir() {
		return f, true, nil
	}

	parent := filepath.Dir(startDir)
	if parent == startDir {
		return "", false, nil
	}

	return doFindInAncestors(parent, filename)
}
