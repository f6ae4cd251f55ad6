// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package runtimeid

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"

	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
)

// CurrentStr is the project-file placeholder for the host's runtime fallbacks
const CurrentStr = "current"

var ErrInvalidRuntime = errors.New("invalid runtime identifier")

// runtime identifiers are lowercase os[.version][-qualifier...], e.g. win7-x64, osx.10.12-x64, linux-musl-arm64
var ridRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[0-9]+)*(-[a-z0-9]+)*$`)

// RID is a runtime identifier naming an OS/architecture combination
type RID string

func Parse(s string) (RID, error) {
	if !ridRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRuntime, s)
	}
	return RID(s), nil
}

func MustParse(s string) RID {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func ParseAll(ss []string) ([]RID, error) {
	var errs []error
	rids := lo.FilterMap(ss, func(s string, _ int) (RID, bool) {
		r, err := Parse(s)
		if err != nil {
			errs = append(errs, err)
		}
		return r, err == nil
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rids, nil
}

func (r RID) String() string {
	return string(r)
}

func (r RID) MarshalYAML() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RID) UnmarshalYAML(bytes []byte) error {
	var unmarshalled string
	if err := yaml.Unmarshal(bytes, &unmarshalled); err != nil {
		return fmt.Errorf("failed to unmarshal runtime identifier: %w", err)
	}
	parsed, err := Parse(unmarshalled)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var _ yaml.BytesMarshaler = RID("")
var _ yaml.BytesUnmarshaler = (*RID)(nil)

var osNames = map[string]string{
	"windows": "win",
	"darwin":  "osx",
	"linux":   "linux",
	"freebsd": "freebsd",
}

var archNames = map[string]string{
	"amd64": "x64",
	"386":   "x86",
	"arm64": "arm64",
	"arm":   "arm",
}

// CurrentFallbacks returns the host's runtime identifiers, most specific first
func CurrentFallbacks() []RID {
	return Fallbacks(runtime.GOOS, runtime.GOARCH)
}

// Fallbacks maps a GOOS/GOARCH pair to runtime identifiers, most specific first.
// Unknown pairs yield no fallbacks, so only runtime-agnostic assets apply.
func Fallbacks(goos, goarch string) []RID {
	os, ok := osNames[goos]
	if !ok {
		return nil
	}

	var rids []RID
	if arch, ok := archNames[goarch]; ok {
		rids = append(rids, RID(os+"-"+arch))
	}
	rids = append(rids, RID(os))
	if os != "win" {
		rids = append(rids, RID("unix"))
	}
	return append(rids, RID("any"))
}
