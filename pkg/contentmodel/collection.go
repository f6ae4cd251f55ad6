// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// PatternSet holds the templates of one asset kind
type PatternSet struct {
	Name string

	// GroupPatterns bucket files; the first matching template wins for each file
	GroupPatterns []*PatternTemplate

	// PathPatterns parse the members of a selected group into items
	PathPatterns []*PatternTemplate

	// Leaves are dropped from group keys
	Leaves []string
}

// ContentItem is one file parsed by a path template
type ContentItem struct {
	Path       string
	Properties Properties
}

// ContentItemGroup is the set of files sharing every non-leaf property value
type ContentItemGroup struct {
	Properties Properties
	Paths      []string

	key  string
	kind *PatternSet
}

// Key is the canonical form of the group's properties, e.g. "rid=win7-x64;tfm=net4.5"
func (g *ContentItemGroup) Key() string {
	return g.key
}

// Items re-parses the group's files against the kind's path templates. Files no path template
// accepts are left out.
func (g *ContentItemGroup) Items() []ContentItem {
	return lo.FilterMap(g.Paths, func(p string, _ int) (ContentItem, bool) {
		for _, pattern := range g.kind.PathPatterns {
			if props, ok := pattern.Match(p); ok {
				return ContentItem{Path: p, Properties: props}, true
			}
		}
		return ContentItem{}, false
	})
}

// ContentItemCollection is a package's full file listing
type ContentItemCollection struct {
	files []string
}

func NewContentItemCollection(files []string) *ContentItemCollection {
	return &ContentItemCollection{
		files: lo.Map(files, func(f string, _ int) string {
			return strings.ReplaceAll(f, `\`, "/")
		}),
	}
}

func (c *ContentItemCollection) Files() []string {
	return slices.Clone(c.files)
}

// FindItemGroups buckets the listing with the kind's group templates. Groups are returned in
// the order their first file appears in the listing.
func (c *ContentItemCollection) FindItemGroups(set *PatternSet) []*ContentItemGroup {
	var groups []*ContentItemGroup
	byKey := map[string]*ContentItemGroup{}

	for _, f := range c.files {
		for _, pattern := range set.GroupPatterns {
			props, ok := pattern.Match(f)
			if !ok {
				continue
			}

			props = lo.OmitByKeys(props, set.Leaves)
			key := groupKey(props)

			g, ok := byKey[key]
			if !ok {
				g = &ContentItemGroup{Properties: props, key: key, kind: set}
				byKey[key] = g
				groups = append(groups, g)
			}
			g.Paths = append(g.Paths, f)
			break
		}
	}
	return groups
}

func groupKey(props Properties) string {
	pairs := lo.MapToSlice(props, func(name string, v any) string {
		return name + "=" + canonical(v)
	})
	slices.Sort(pairs)
	return strings.Join(pairs, ";")
}
