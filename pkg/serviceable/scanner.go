// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package serviceable detects assemblies that carry
// [assembly: AssemblyMetadata("Serviceable", "True")].
//
// Assemblies are never loaded: the PE container is opened with debug/pe, and the CLI
// metadata tables are walked directly to find the attribute. Anything unexpected in the
// file is treated as "not serviceable" rather than as an error, since package contents
// are untrusted.
package serviceable

import (
	"debug/pe"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

const (
	// clrDirectory is the CLI header entry of the optional header's data directories
	clrDirectory = 14

	cliHeaderMinSize = 16

	// maxMetadataSize bounds the allocation for the metadata blob of a single file
	maxMetadataSize = 64 << 20
)

var errNoCLIHeader = errors.New("not a CLI assembly")

// IsServiceable reports whether the file at path is an assembly marked serviceable.
// Missing, unreadable and malformed files are not serviceable.
func IsServiceable(path string) (serviceable bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("assembly scan aborted", "path", path, "panic", r)
			serviceable = false
		}
	}()

	ok, err := scan(path)
	if err != nil {
		slog.Debug("not a readable assembly", "path", path, "err", err.Error())
		return false
	}
	return ok
}

// ScanFiles reports whether any of paths is serviceable, stopping at the first one that is
func ScanFiles(paths []string) bool {
	return lo.SomeBy(paths, IsServiceable)
}

func scan(path string) (bool, error) {
	f, err := pe.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	dir, ok := cliHeaderDirectory(f)
	if !ok || dir.VirtualAddress == 0 || dir.Size < cliHeaderMinSize {
		return false, errNoCLIHeader
	}

	header, err := readRVA(f, dir.VirtualAddress, cliHeaderMinSize)
	if err != nil {
		return false, fmt.Errorf("reading CLI header: %w", err)
	}
	metadataRVA := binary.LittleEndian.Uint32(header[8:])
	metadataSize := binary.LittleEndian.Uint32(header[12:])
	if metadataRVA == 0 || metadataSize == 0 {
		return false, errNoCLIHeader
	}

	data, err := readRVA(f, metadataRVA, metadataSize)
	if err != nil {
		return false, fmt.Errorf("reading metadata: %w", err)
	}

	m, err := parseMetadata(data)
	if err != nil {
		return false, err
	}
	return m.hasServiceableAttribute()
}

func cliHeaderDirectory(f *pe.File) (pe.DataDirectory, bool) {
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes <= clrDirectory {
			return pe.DataDirectory{}, false
		}
		return oh.DataDirectory[clrDirectory], true
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes <= clrDirectory {
			return pe.DataDirectory{}, false
		}
		return oh.DataDirectory[clrDirectory], true
	}
	return pe.DataDirectory{}, false
}

// readRVA reads size bytes at a relative virtual address from the section mapping it
func readRVA(f *pe.File, rva, size uint32) ([]byte, error) {
	if size > maxMetadataSize {
		return nil, fmt.Errorf("%w: %d bytes requested", errMalformed, size)
	}
	for _, s := range f.Sections {
		if rva < s.VirtualAddress || rva-s.VirtualAddress >= max(s.VirtualSize, s.Size) {
			continue
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, int64(rva-s.VirtualAddress)); err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: rva %#x is outside every section", errMalformed, rva)
}
