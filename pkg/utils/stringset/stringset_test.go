// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package stringset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSetFoldsCase(t *testing.T) {
	ss := New("A.dll", "b.DLL")
	ss.Add("Newtonsoft.Json")

	assert.True(t, ss.Contains("a.dll"))
	assert.True(t, ss.Contains("B.dll"))
	assert.True(t, ss.Contains("NEWTONSOFT.JSON"))
	assert.False(t, ss.Contains("c.dll"))
	assert.Len(t, ss, 3)
}
