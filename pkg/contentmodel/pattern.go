// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package contentmodel

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

var ErrInvalidPattern = errors.New("invalid pattern template")

type segment struct {
	literal  string
	property *PropertyDefinition
	optional bool
}

// PatternTemplate is a slash separated template such as lib/{tfm}/{assembly?}
type PatternTemplate struct {
	raw      string
	segments []segment
	defaults Properties
}

// ParsePattern compiles template against the registry. Defaults are merged into every match
// for properties the path did not supply.
func ParsePattern(registry *Registry, template string, defaults Properties) (*PatternTemplate, error) {
	if template == "" {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidPattern)
	}

	parts := strings.Split(template, "/")
	p := &PatternTemplate{
		raw:      template,
		segments: make([]segment, 0, len(parts)),
		defaults: maps.Clone(defaults),
	}

	for i, part := range parts {
		inner, isPlaceholder := strings.CutPrefix(part, "{")
		if !isPlaceholder {
			if part == "" || strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("%w: bad literal segment %q in %q", ErrInvalidPattern, part, template)
			}
			p.segments = append(p.segments, segment{literal: part})
			continue
		}

		inner, closed := strings.CutSuffix(inner, "}")
		if !closed {
			return nil, fmt.Errorf("%w: unterminated placeholder %q in %q", ErrInvalidPattern, part, template)
		}
		name, optional := strings.CutSuffix(inner, "?")
		if optional && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: only the last segment of %q may be optional", ErrInvalidPattern, template)
		}

		def, ok := registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q in %q", ErrInvalidPattern, ErrUnknownProperty, name, template)
		}
		p.segments = append(p.segments, segment{property: def, optional: optional})
	}

	for name := range defaults {
		if _, ok := registry.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %w: default %q in %q", ErrInvalidPattern, ErrUnknownProperty, name, template)
		}
	}
	return p, nil
}

func MustParsePattern(registry *Registry, template string, defaults Properties) *PatternTemplate {
	p, err := ParsePattern(registry, template, defaults)
	if err != nil {
		panic(err)
	}
	return p
}

// Match parses a forward-slash separated relative path, returning nil, false on rejection
func (p *PatternTemplate) Match(relPath string) (Properties, bool) {
	parts := strings.Split(relPath, "/")

	n := len(p.segments)
	switch {
	case len(parts) == n:
	case len(parts) == n-1 && p.segments[n-1].optional:
		n--
	default:
		return nil, false
	}

	props := Properties{}
	for i, seg := range p.segments[:n] {
		if seg.property == nil {
			if parts[i] != seg.literal {
				return nil, false
			}
			continue
		}

		v, ok := seg.property.TryParse(parts[i])
		if !ok {
			return nil, false
		}
		props[seg.property.Name] = v
	}

	for name, v := range p.defaults {
		if _, ok := props[name]; !ok {
			props[name] = v
		}
	}
	return props, true
}

func (p *PatternTemplate) String() string {
	return p.raw
}
