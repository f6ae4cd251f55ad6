// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package packagesource

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"
)

var (
	ErrPackageNotFound  = errors.New("package not found")
	ErrMalformedPackage = errors.New("malformed package")
)

// ArchiveExtension is the extension of package archives in the install layout
const ArchiveExtension = ".nupkg"

// Package is one downloaded and extracted package
type Package struct {
	ID      string
	Version *semver.Version

	// Files is the full archive listing, forward-slash separated
	Files []string

	Descriptor *Descriptor

	archivePath string
}

// OpenArchive opens the raw package archive, e.g. for hashing
func (p *Package) OpenArchive() (io.ReadCloser, error) {
	return os.Open(p.archivePath)
}

// Source provides resolved packages
type Source interface {
	Get(ctx context.Context, id string, version *semver.Version) (*Package, error)
}

// PathResolver maps a package to the directory its files are extracted to
type PathResolver interface {
	InstallPath(id string, version *semver.Version) string
}

// Local reads packages from an install layout <root>/<lowercase id>/<version>/ holding
// the archive, the descriptor and the extracted files
type Local struct {
	root string
}

var _ Source = (*Local)(nil)
var _ PathResolver = (*Local)(nil)

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) InstallPath(id string, version *semver.Version) string {
	return filepath.Join(l.root, strings.ToLower(id), version.String())
}

func ArchiveName(id string, version *semver.Version) string {
	return strings.ToLower(id) + "." + version.String() + ArchiveExtension
}

func (l *Local) Get(ctx context.Context, id string, version *semver.Version) (*Package, error) {
	dir := l.InstallPath(id, version)
	archivePath := filepath.Join(dir, ArchiveName(id, version))

	if _, err := os.Stat(archivePath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s (looked in %s)", ErrPackageNotFound, id, version, dir)
	} else if err != nil {
		return nil, err
	}

	descriptor, err := ReadDescriptor(filepath.Join(dir, DescriptorFilename))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrMalformedPackage, id, version, err)
	}
	if !strings.EqualFold(descriptor.ID, id) || !descriptor.Version.Value().Equal(version) {
		return nil, fmt.Errorf("%w: descriptor in %s describes %s %s", ErrMalformedPackage, dir, descriptor.ID, descriptor.Version)
	}

	files, err := ListArchive(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrMalformedPackage, id, version, err)
	}
	slog.DebugContext(ctx, "read package", "id", id, "version", version.String(), "files", len(files))

	return &Package{
		// the descriptor carries the package's own casing
		ID:          descriptor.ID,
		Version:     version,
		Files:       files,
		Descriptor:  descriptor,
		archivePath: archivePath,
	}, nil
}

// ListArchive returns every entry name of a zip archive in archive order
func ListArchive(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return lo.Map(r.File, func(f *zip.File, _ int) string {
		return strings.ReplaceAll(f.Name, `\`, "/")
	}), nil
}
