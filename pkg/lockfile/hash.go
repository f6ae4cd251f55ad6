// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	_ "crypto/sha512"
	"io"

	"github.com/opencontainers/go-digest"
)

// Hasher computes the content digest of a package archive
type Hasher interface {
	Hash(r io.Reader) (digest.Digest, error)
}

// DigestHasher streams the archive through a single digest algorithm
type DigestHasher struct {
	Algorithm digest.Algorithm
}

var _ Hasher = DigestHasher{}

func NewDigestHasher() DigestHasher {
	return DigestHasher{Algorithm: digest.SHA512}
}

func (h DigestHasher) Hash(r io.Reader) (digest.Digest, error) {
	if !h.Algorithm.Available() {
		return "", digest.ErrDigestUnsupported
	}
	return h.Algorithm.FromReader(r)
}
