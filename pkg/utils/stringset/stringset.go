// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stringset

import "strings"

// StringSet holds case-folded strings, matching how package ids and file names compare
type StringSet map[string]struct{}

func New(values ...string) StringSet {
	ss := make(StringSet, len(values))
	for _, v := range values {
		ss.Add(v)
	}
	return ss
}

func (ss StringSet) Add(s string) StringSet {
	ss[strings.ToLower(s)] = struct{}{}
	return ss
}

func (ss StringSet) Contains(s string) bool {
	_, ok := ss[strings.ToLower(s)]
	return ok
}
