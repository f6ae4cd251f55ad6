// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package serviceable

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// reader is a little-endian cursor over a byte slice. The first out-of-bounds read sets err,
// after which every read returns zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: read of %d bytes at offset %d overruns %d bytes", errMalformed, n, r.off, len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) peek() byte {
	if r.err != nil || r.off >= len(r.data) {
		return 0
	}
	return r.data[r.off]
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// cstring reads a NUL-terminated string, consuming the terminator
func (r *reader) cstring() string {
	if r.err != nil {
		return ""
	}
	n := bytes.IndexByte(r.data[r.off:], 0)
	if n < 0 {
		r.err = fmt.Errorf("%w: unterminated string at offset %d", errMalformed, r.off)
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n + 1
	return s
}

func (r *reader) align4() {
	if pad := (4 - r.off%4) % 4; pad > 0 {
		r.take(pad)
	}
}

// compressed reads an ECMA-335 compressed unsigned integer
func (r *reader) compressed() uint32 {
	b0 := r.u8()
	switch {
	case b0&0x80 == 0:
		return uint32(b0)
	case b0&0xC0 == 0x80:
		return uint32(b0&0x3F)<<8 | uint32(r.u8())
	case b0&0xE0 == 0xC0:
		return uint32(b0&0x1F)<<24 | uint32(r.u8())<<16 | uint32(r.u8())<<8 | uint32(r.u8())
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: bad compressed integer %#x", errMalformed, b0)
	}
	return 0
}
