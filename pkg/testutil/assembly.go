// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CustomAttribute describes one assembly-level attribute of a synthetic assembly
type CustomAttribute struct {
	TypeName  string
	Namespace string

	// Local makes the attribute constructor a MethodDef of the assembly itself
	Local bool

	// OnModule attaches the attribute to the module instead of the assembly
	OnModule bool

	// Args are encoded as fixed string arguments
	Args []string

	// Signature and Value replace the encoded constructor signature and value blob
	Signature []byte
	Value     []byte
}

func MetadataAttribute(key, value string) CustomAttribute {
	return CustomAttribute{
		TypeName:  "AssemblyMetadataAttribute",
		Namespace: "System.Reflection",
		Args:      []string{key, value},
	}
}

// WriteAssembly writes a minimal PE image carrying CLI metadata with the given attributes
func WriteAssembly(t *testing.T, path string, attrs ...CustomAttribute) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, BuildAssembly(t, attrs...), 0o644))
}

const (
	sectionRVA     = 0x2000
	sectionOffset  = 0x200
	fileAlignment  = 0x200
	cliHeaderSize  = 72
	clrDirectory   = 14
	metadataMagic  = 0x424A5342
	tableModule    = 0x00
	tableTypeRef   = 0x01
	tableTypeDef   = 0x02
	tableMethodDef = 0x06
	tableMemberRef = 0x0A
	tableCustomAtt = 0x0C
	tableAssembly  = 0x20
)

// BuildAssembly returns a PE image with a CLI header and metadata tables
func BuildAssembly(t *testing.T, attrs ...CustomAttribute) []byte {
	t.Helper()
	return buildPE(t, buildMetadata(t, attrs))
}

// BuildPlainPE returns a PE image without a CLI header
func BuildPlainPE(t *testing.T) []byte {
	t.Helper()
	return buildPE(t, nil)
}

func buildPE(t *testing.T, metadata []byte) []byte {
	var section bytes.Buffer
	if metadata != nil {
		cli := make([]byte, cliHeaderSize)
		binary.LittleEndian.PutUint32(cli[0:], cliHeaderSize)
		binary.LittleEndian.PutUint16(cli[4:], 2)
		binary.LittleEndian.PutUint16(cli[6:], 5)
		binary.LittleEndian.PutUint32(cli[8:], sectionRVA+cliHeaderSize)
		binary.LittleEndian.PutUint32(cli[12:], uint32(len(metadata)))
		binary.LittleEndian.PutUint32(cli[16:], 1)
		section.Write(cli)
		section.Write(metadata)
	} else {
		section.Write([]byte{0xC3})
	}
	rawSize := align(section.Len(), fileAlignment)

	var out bytes.Buffer
	dos := make([]byte, 0x80)
	copy(dos, "MZ")
	binary.LittleEndian.PutUint32(dos[0x3c:], 0x80)
	out.Write(dos)
	out.WriteString("PE\x00\x00")

	write := func(v any) { require.NoError(t, binary.Write(&out, binary.LittleEndian, v)) }

	write(pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     1,
		SizeOfOptionalHeader: 224,
		Characteristics:      pe.IMAGE_FILE_DLL | pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_32BIT_MACHINE,
	})

	oh := pe.OptionalHeader32{
		Magic:                 0x10b,
		SizeOfCode:            uint32(rawSize),
		BaseOfCode:            sectionRVA,
		ImageBase:             0x10000000,
		SectionAlignment:      sectionRVA,
		FileAlignment:         fileAlignment,
		MajorSubsystemVersion: 4,
		SizeOfImage:           uint32(sectionRVA + align(section.Len(), sectionRVA)),
		SizeOfHeaders:         sectionOffset,
		Subsystem:             pe.IMAGE_SUBSYSTEM_WINDOWS_CUI,
		NumberOfRvaAndSizes:   16,
	}
	if metadata != nil {
		oh.DataDirectory[clrDirectory] = pe.DataDirectory{VirtualAddress: sectionRVA, Size: cliHeaderSize}
	}
	write(oh)

	write(pe.SectionHeader32{
		Name:             [8]uint8{'.', 't', 'e', 'x', 't'},
		VirtualSize:      uint32(section.Len()),
		VirtualAddress:   sectionRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: sectionOffset,
		Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
	})

	out.Write(make([]byte, sectionOffset-out.Len()))
	out.Write(section.Bytes())
	out.Write(make([]byte, rawSize-section.Len()))
	return out.Bytes()
}

func align(n, to int) int {
	return (n + to - 1) / to * to
}

type heap struct {
	buf   bytes.Buffer
	index map[string]uint16
}

func newHeap() *heap {
	h := &heap{index: map[string]uint16{"": 0}}
	h.buf.WriteByte(0)
	return h
}

func (h *heap) str(s string) uint16 {
	if i, ok := h.index[s]; ok {
		return i
	}
	i := uint16(h.buf.Len())
	h.buf.WriteString(s)
	h.buf.WriteByte(0)
	h.index[s] = i
	return i
}

func (h *heap) blob(b []byte) uint16 {
	i := uint16(h.buf.Len())
	h.buf.Write(compressed(len(b)))
	h.buf.Write(b)
	return i
}

func compressed(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x4000:
		return []byte{byte(n>>8) | 0x80, byte(n)}
	}
	return []byte{byte(n>>24) | 0xC0, byte(n >> 16), byte(n >> 8), byte(n)}
}

func ctorSignature(params int) []byte {
	sig := []byte{0x20, byte(params), 0x01}
	for i := 0; i < params; i++ {
		sig = append(sig, 0x0E)
	}
	return sig
}

func attributeValue(args []string) []byte {
	v := []byte{0x01, 0x00}
	for _, a := range args {
		v = append(v, compressed(len(a))...)
		v = append(v, a...)
	}
	return append(v, 0x00, 0x00)
}

func buildMetadata(t *testing.T, attrs []CustomAttribute) []byte {
	strs, blobs := newHeap(), newHeap()
	var typeRefs, typeDefs, methodDefs, memberRefs, customAttrs bytes.Buffer

	row := func(b *bytes.Buffer, fields ...any) {
		for _, f := range fields {
			require.NoError(t, binary.Write(b, binary.LittleEndian, f))
		}
	}

	// <Module> is always the first TypeDef
	row(&typeDefs, uint32(0), strs.str("<Module>"), strs.str(""), uint16(0), uint16(1), uint16(1))

	var nTypeRefs, nTypeDefs, nMethodDefs, nMemberRefs uint16 = 0, 1, 0, 0
	for _, a := range attrs {
		sig := a.Signature
		if sig == nil {
			sig = ctorSignature(len(a.Args))
		}
		value := a.Value
		if value == nil {
			value = attributeValue(a.Args)
		}

		var ctor uint16
		if a.Local {
			nMethodDefs++
			row(&typeDefs, uint32(0x100001), strs.str(a.TypeName), strs.str(a.Namespace), uint16(0), uint16(1), nMethodDefs)
			nTypeDefs++
			row(&methodDefs, uint32(0), uint16(0), uint16(0x1886), strs.str(".ctor"), blobs.blob(sig), uint16(1))
			// CustomAttributeType: MethodDef is tag 2
			ctor = nMethodDefs<<3 | 2
		} else {
			nTypeRefs++
			row(&typeRefs, uint16(0), strs.str(a.TypeName), strs.str(a.Namespace))
			nMemberRefs++
			// MemberRefParent: TypeRef is tag 1
			row(&memberRefs, nTypeRefs<<3|1, strs.str(".ctor"), blobs.blob(sig))
			// CustomAttributeType: MemberRef is tag 3
			ctor = nMemberRefs<<3 | 3
		}

		// HasCustomAttribute: Module is tag 7, Assembly is tag 14
		parent := uint16(1<<5 | 14)
		if a.OnModule {
			parent = 1<<5 | 7
		}
		row(&customAttrs, parent, ctor, blobs.blob(value))
	}

	var module, assembly bytes.Buffer
	row(&module, uint16(0), strs.str("Fixture.dll"), uint16(0), uint16(0), uint16(0))
	row(&assembly, uint32(0x8004), uint16(1), uint16(0), uint16(0), uint16(0), uint32(0), uint16(0), strs.str("Fixture"), uint16(0))

	type table struct {
		id   int
		rows uint16
		data []byte
	}
	tables := []table{
		{tableModule, 1, module.Bytes()},
		{tableTypeRef, nTypeRefs, typeRefs.Bytes()},
		{tableTypeDef, nTypeDefs, typeDefs.Bytes()},
		{tableMethodDef, nMethodDefs, methodDefs.Bytes()},
		{tableMemberRef, nMemberRefs, memberRefs.Bytes()},
		{tableCustomAtt, uint16(len(attrs)), customAttrs.Bytes()},
		{tableAssembly, 1, assembly.Bytes()},
	}

	var valid uint64
	var stream bytes.Buffer
	row(&stream, uint32(0), uint8(2), uint8(0), uint8(0), uint8(1))
	for _, tb := range tables {
		if tb.rows > 0 {
			valid |= 1 << tb.id
		}
	}
	row(&stream, valid, uint64(1)<<tableCustomAtt)
	for _, tb := range tables {
		if tb.rows > 0 {
			row(&stream, uint32(tb.rows))
		}
	}
	for _, tb := range tables {
		if tb.rows > 0 {
			stream.Write(tb.data)
		}
	}

	streams := []struct {
		name string
		data []byte
	}{
		{"#~", pad4(stream.Bytes())},
		{"#Strings", pad4(strs.buf.Bytes())},
		{"#Blob", pad4(blobs.buf.Bytes())},
	}

	version := pad4(append([]byte("v4.0.30319"), 0))
	var headers bytes.Buffer
	for _, s := range streams {
		headers.Write(make([]byte, 8))
		headers.Write(pad4(append([]byte(s.name), 0)))
	}
	rootSize := 16 + len(version) + 4 + headers.Len()

	var root bytes.Buffer
	row(&root, uint32(metadataMagic), uint16(1), uint16(1), uint32(0), uint32(len(version)))
	root.Write(version)
	row(&root, uint16(0), uint16(len(streams)))

	offset := rootSize
	for _, s := range streams {
		row(&root, uint32(offset), uint32(len(s.data)))
		root.Write(pad4(append([]byte(s.name), 0)))
		offset += len(s.data)
	}
	for _, s := range streams {
		root.Write(s.data)
	}
	return root.Bytes()
}

func pad4(b []byte) []byte {
	return append(b, make([]byte, align(len(b), 4)-len(b))...)
}
