// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strconv"

	"assetlock.dev/x/assetlock/pkg/lockfile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/samber/lo"
)

type Library struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Serviceable bool   `json:"serviceable,omitempty"`

	Compile      []string `json:"compile,omitempty"`
	Runtime      []string `json:"runtime,omitempty"`
	Resources    []string `json:"resources,omitempty"`
	Native       []string `json:"native,omitempty"`
	ContentFiles []string `json:"contentFiles,omitempty"`
}

func (l *Library) assetCount() int {
	return len(l.Compile) + len(l.Runtime) + len(l.Resources) + len(l.Native) + len(l.ContentFiles)
}

type Target struct {
	Target    string     `json:"target"`
	Libraries []*Library `json:"libraries"`
}

type Report []*Target

var header = []string{"", "LIBRARY", "COMPILE", "RUNTIME", "RESOURCES", "NATIVE", "CONTENT"}

// New summarizes the lock file per target, in lock-file order
func New(l *lockfile.LockFile) Report {
	return lo.Map(l.Targets, func(t *lockfile.LockFileTarget, _ int) *Target {
		return &Target{
			Target: lockfile.Target{Framework: t.Framework, Runtimes: t.Runtimes}.String(),
			Libraries: lo.Map(t.Libraries, func(tl *lockfile.LockFileTargetLibrary, _ int) *Library {
				lib := &Library{
					Name:         tl.Name,
					Version:      tl.Version.String(),
					Compile:      itemPaths(tl.Compile),
					Runtime:      itemPaths(tl.Runtime),
					Resources:    itemPaths(tl.Resources),
					Native:       itemPaths(tl.Native),
					ContentFiles: itemPaths(tl.ContentFiles),
				}
				if record, ok := l.Library(tl.Name); ok {
					lib.Serviceable = record.IsServiceable
				}
				return lib
			}),
		}
	})
}

func itemPaths(items []lockfile.LockFileItem) []string {
	if len(items) == 0 {
		return nil
	}
	return lo.Map(items, func(i lockfile.LockFileItem, _ int) string { return i.Path })
}

// Table renders one table per target. Serviceable libraries are marked and highlighted,
// libraries without any asset for the target are faint.
func (r Report) Table() string {
	var out string
	for i, t := range r {
		if i > 0 {
			out += "\n"
		}
		out += lipgloss.NewStyle().Bold(true).Render(t.Target) + "\n"
		out += t.table() + "\n"
	}
	return out
}

func (t *Target) table() string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(header...).
		Rows(lo.Map(t.Libraries, func(lib *Library, _ int) []string {
			indicator := ""
			name := fmt.Sprintf("%s %s", lib.Name, lib.Version)

			switch {
			case lib.Serviceable:
				indicator = "*"
				name = color.GreenString(name)
			case lib.assetCount() == 0:
				name = lipgloss.NewStyle().
					Faint(true).
					Italic(true).
					Render(name)
			}

			return []string{
				indicator,
				name,
				count(lib.Compile),
				count(lib.Runtime),
				count(lib.Resources),
				count(lib.Native),
				count(lib.ContentFiles),
			}
		})...).
		String()
}

func count(paths []string) string {
	if len(paths) == 0 {
		return "-"
	}
	return strconv.Itoa(len(paths))
}
