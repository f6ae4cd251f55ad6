// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package frameworks

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
)

var ErrInvalidFramework = errors.New("invalid framework moniker")

const (
	AnyIdentifier      = "any"
	PortableIdentifier = "portable"

	// GenericIdentifier is the framework-agnostic modern moniker used as a fallback for every target
	GenericIdentifier = "dotnet"

	// DesktopIdentifier is the moniker unversioned lib/ assets default to
	DesktopIdentifier = "net"
)

var knownIdentifiers = []string{
	"net",
	"netstandard",
	"netstandardapp",
	"netcoreapp",
	"netcore",
	"dotnet",
	"dnx",
	"dnxcore",
	"aspnet",
	"aspnetcore",
	"uap",
	"win",
	"winrt",
	"wp",
	"wpa",
	"sl",
	"monoandroid",
	"monotouch",
	"monomac",
	"xamarinios",
	"xamarinmac",
	"xamarintvos",
	"xamarinwatchos",
}

var monikerRegex = regexp.MustCompile(`^([a-z]+)([0-9][0-9.]*)?$`)

// Framework is a parsed target framework moniker, e.g. net45 or portable-net45+win8.
// The zero value is not a valid framework.
type Framework struct {
	Identifier string
	Version    *semver.Version
	// Profile holds the canonical '+' separated member list of a portable framework
	Profile string
}

var (
	Any     = Framework{Identifier: AnyIdentifier, Version: zeroVersion()}
	Generic = Framework{Identifier: GenericIdentifier, Version: zeroVersion()}
	Desktop = Framework{Identifier: DesktopIdentifier, Version: zeroVersion()}
)

func zeroVersion() *semver.Version {
	return semver.New(0, 0, 0, "", "")
}

// Parse accepts short monikers (net45, net4.5, netstandard1.3, dnxcore50, portable-net45+win8, any).
// Undotted digits are read one component each, so net451 is 4.5.1.
func Parse(moniker string) (Framework, error) {
	s := strings.ToLower(strings.TrimSpace(moniker))
	if s == AnyIdentifier {
		return Any, nil
	}

	if profile, ok := strings.CutPrefix(s, PortableIdentifier+"-"); ok {
		return parsePortable(moniker, profile)
	}

	m := monikerRegex.FindStringSubmatch(s)
	if m == nil {
		return Framework{}, fmt.Errorf("%w: %q", ErrInvalidFramework, moniker)
	}
	if !slices.Contains(knownIdentifiers, m[1]) {
		return Framework{}, fmt.Errorf("%w: unknown identifier %q in %q", ErrInvalidFramework, m[1], moniker)
	}

	v, err := parseVersion(m[2])
	if err != nil {
		return Framework{}, fmt.Errorf("%w: %q: %s", ErrInvalidFramework, moniker, err.Error())
	}
	return Framework{Identifier: m[1], Version: v}, nil
}

func MustParse(moniker string) Framework {
	f, err := Parse(moniker)
	if err != nil {
		panic(err)
	}
	return f
}

func parsePortable(moniker, profile string) (Framework, error) {
	if profile == "" {
		return Framework{}, fmt.Errorf("%w: %q has an empty portable profile", ErrInvalidFramework, moniker)
	}

	members := strings.Split(profile, "+")
	canonical := make([]string, 0, len(members))
	for _, m := range members {
		f, err := Parse(m)
		if err != nil {
			return Framework{}, err
		}
		if f.IsAny() || f.IsPortable() {
			return Framework{}, fmt.Errorf("%w: %q can't be a member of portable profile %q", ErrInvalidFramework, m, moniker)
		}
		canonical = append(canonical, f.String())
	}
	slices.Sort(canonical)

	return Framework{
		Identifier: PortableIdentifier,
		Version:    zeroVersion(),
		Profile:    strings.Join(lo.Uniq(canonical), "+"),
	}, nil
}

func parseVersion(digits string) (*semver.Version, error) {
	if digits == "" {
		return zeroVersion(), nil
	}

	var parts []string
	if strings.Contains(digits, ".") {
		parts = strings.Split(digits, ".")
	} else {
		parts = strings.Split(digits, "")
	}
	if len(parts) > 3 {
		return nil, fmt.Errorf("too many version components in %q", digits)
	}

	var components [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q", p)
		}
		components[i] = n
	}
	return semver.New(components[0], components[1], components[2], "", ""), nil
}

func (f Framework) IsAny() bool {
	return f.Identifier == AnyIdentifier
}

func (f Framework) IsPortable() bool {
	return f.Identifier == PortableIdentifier
}

// PortableMembers returns the frameworks a portable profile is made of, or nil for non-portable frameworks
func (f Framework) PortableMembers() []Framework {
	if !f.IsPortable() || f.Profile == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(f.Profile, "+"), func(m string, _ int) (Framework, bool) {
		parsed, err := Parse(m)
		return parsed, err == nil
	})
}

func (f Framework) version() *semver.Version {
	if f.Version == nil {
		return zeroVersion()
	}
	return f.Version
}

// String returns the canonical moniker: identifier followed by major.minor, plus .patch when non-zero.
// Two frameworks are equal iff their canonical monikers are equal.
func (f Framework) String() string {
	switch {
	case f.Identifier == "":
		return ""
	case f.IsAny():
		return AnyIdentifier
	case f.IsPortable():
		return PortableIdentifier + "-" + f.Profile
	}

	v := f.version()
	if v.Equal(zeroVersion()) {
		return f.Identifier
	}
	if v.Patch() > 0 {
		return fmt.Sprintf("%s%d.%d.%d", f.Identifier, v.Major(), v.Minor(), v.Patch())
	}
	return fmt.Sprintf("%s%d.%d", f.Identifier, v.Major(), v.Minor())
}

func (f Framework) Equal(other Framework) bool {
	return f.Identifier == other.Identifier &&
		f.Profile == other.Profile &&
		f.version().Equal(other.version())
}

func (f Framework) MarshalYAML() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Framework) UnmarshalYAML(data []byte) error {
	var moniker string
	if err := yaml.Unmarshal(data, &moniker); err != nil {
		return fmt.Errorf("failed to unmarshal framework: %w", err)
	}
	if moniker == "" {
		*f = Any
		return nil
	}
	parsed, err := Parse(moniker)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

var _ yaml.BytesMarshaler = Framework{}
var _ yaml.BytesUnmarshaler = (*Framework)(nil)
var _ fmt.Stringer = Framework{}
