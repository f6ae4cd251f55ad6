// Copyright (c) 2017-2026 Digital Asset (Switzerland) GmbH and/or its affiliates. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package serviceable

import (
	"errors"
	"fmt"
	"strings"
)

var errMalformed = errors.New("malformed metadata")

const (
	metadataSignature = 0x424A5342 // "BSJB"

	heapStringsWide = 0x01
	heapGUIDWide    = 0x02
	heapBlobWide    = 0x04
	heapExtraData   = 0x40

	metadataAttributeName = "AssemblyMetadataAttribute"
)

type table int

const (
	tModule table = iota
	tTypeRef
	tTypeDef
	tFieldPtr
	tField
	tMethodPtr
	tMethodDef
	tParamPtr
	tParam
	tInterfaceImpl
	tMemberRef
	tConstant
	tCustomAttribute
	tFieldMarshal
	tDeclSecurity
	tClassLayout
	tFieldLayout
	tStandAloneSig
	tEventMap
	tEventPtr
	tEvent
	tPropertyMap
	tPropertyPtr
	tProperty
	tMethodSemantics
	tMethodImpl
	tModuleRef
	tTypeSpec
	tImplMap
	tFieldRVA
	tEncLog
	tEncMap
	tAssembly
	tAssemblyProcessor
	tAssemblyOS
	tAssemblyRef
	tAssemblyRefProcessor
	tAssemblyRefOS
	tFile
	tExportedType
	tManifestResource
	tNestedClass
	tGenericParam
	tMethodSpec
	tGenericParamConstraint

	numTables
)

// noTable fills unused tags of a coded index
const noTable table = -1

type codedIndex struct {
	bits   uint
	tables []table
}

var (
	typeDefOrRef        = codedIndex{2, []table{tTypeDef, tTypeRef, tTypeSpec}}
	hasConstant         = codedIndex{2, []table{tField, tParam, tProperty}}
	hasFieldMarshal     = codedIndex{1, []table{tField, tParam}}
	hasDeclSecurity     = codedIndex{2, []table{tTypeDef, tMethodDef, tAssembly}}
	memberRefParent     = codedIndex{3, []table{tTypeDef, tTypeRef, tModuleRef, tMethodDef, tTypeSpec}}
	hasSemantics        = codedIndex{1, []table{tEvent, tProperty}}
	methodDefOrRef      = codedIndex{1, []table{tMethodDef, tMemberRef}}
	memberForwarded     = codedIndex{1, []table{tField, tMethodDef}}
	implementation      = codedIndex{2, []table{tFile, tAssemblyRef, tExportedType}}
	customAttributeType = codedIndex{3, []table{noTable, noTable, tMethodDef, tMemberRef, noTable}}
	resolutionScope     = codedIndex{2, []table{tModule, tModuleRef, tAssemblyRef, tTypeRef}}
	typeOrMethodDef     = codedIndex{1, []table{tTypeDef, tMethodDef}}
	hasCustomAttribute  = codedIndex{5, []table{
		tMethodDef, tField, tTypeRef, tTypeDef, tParam, tInterfaceImpl, tMemberRef, tModule,
		tDeclSecurity, tProperty, tEvent, tStandAloneSig, tModuleRef, tTypeSpec, tAssembly,
		tAssemblyRef, tFile, tExportedType, tManifestResource, tGenericParam, tGenericParamConstraint,
		tMethodSpec,
	}}
)

// column widths depend on heap sizes and row counts, so they are resolved per file
type column func(m *metadata) int

func fixed(n int) column { return func(*metadata) int { return n } }

func index(t table) column {
	return func(m *metadata) int { return m.indexWidth(t) }
}

func coded(c codedIndex) column {
	return func(m *metadata) int { return m.codedWidth(c) }
}

var (
	cU16    = fixed(2)
	cU32    = fixed(4)
	cString = column(func(m *metadata) int { return m.heapWidth(heapStringsWide) })
	cGUID   = column(func(m *metadata) int { return m.heapWidth(heapGUIDWide) })
	cBlob   = column(func(m *metadata) int { return m.heapWidth(heapBlobWide) })
)

var schemas = [numTables][]column{
	tModule:                 {cU16, cString, cGUID, cGUID, cGUID},
	tTypeRef:                {coded(resolutionScope), cString, cString},
	tTypeDef:                {cU32, cString, cString, coded(typeDefOrRef), index(tField), index(tMethodDef)},
	tFieldPtr:               {index(tField)},
	tField:                  {cU16, cString, cBlob},
	tMethodPtr:              {index(tMethodDef)},
	tMethodDef:              {cU32, cU16, cU16, cString, cBlob, index(tParam)},
	tParamPtr:               {index(tParam)},
	tParam:                  {cU16, cU16, cString},
	tInterfaceImpl:          {index(tTypeDef), coded(typeDefOrRef)},
	tMemberRef:              {coded(memberRefParent), cString, cBlob},
	tConstant:               {cU16, coded(hasConstant), cBlob},
	tCustomAttribute:        {coded(hasCustomAttribute), coded(customAttributeType), cBlob},
	tFieldMarshal:           {coded(hasFieldMarshal), cBlob},
	tDeclSecurity:           {cU16, coded(hasDeclSecurity), cBlob},
	tClassLayout:            {cU16, cU32, index(tTypeDef)},
	tFieldLayout:            {cU32, index(tField)},
	tStandAloneSig:          {cBlob},
	tEventMap:               {index(tTypeDef), index(tEvent)},
	tEventPtr:               {index(tEvent)},
	tEvent:                  {cU16, cString, coded(typeDefOrRef)},
	tPropertyMap:            {index(tTypeDef), index(tProperty)},
	tPropertyPtr:            {index(tProperty)},
	tProperty:               {cU16, cString, cBlob},
	tMethodSemantics:        {cU16, index(tMethodDef), coded(hasSemantics)},
	tMethodImpl:             {index(tTypeDef), coded(methodDefOrRef), coded(methodDefOrRef)},
	tModuleRef:              {cString},
	tTypeSpec:               {cBlob},
	tImplMap:                {cU16, coded(memberForwarded), cString, index(tModuleRef)},
	tFieldRVA:               {cU32, index(tField)},
	tEncLog:                 {cU32, cU32},
	tEncMap:                 {cU32},
	tAssembly:               {cU32, cU16, cU16, cU16, cU16, cU32, cBlob, cString, cString},
	tAssemblyProcessor:      {cU32},
	tAssemblyOS:             {cU32, cU32, cU32},
	tAssemblyRef:            {cU16, cU16, cU16, cU16, cU32, cBlob, cString, cString, cBlob},
	tAssemblyRefProcessor:   {cU32, index(tAssemblyRef)},
	tAssemblyRefOS:          {cU32, cU32, cU32, index(tAssemblyRef)},
	tFile:                   {cU32, cString, cBlob},
	tExportedType:           {cU32, cU32, cString, cString, coded(implementation)},
	tManifestResource:       {cU32, cU32, cString, coded(implementation)},
	tNestedClass:            {index(tTypeDef), index(tTypeDef)},
	tGenericParam:           {cU16, cU16, coded(typeOrMethodDef), cString},
	tMethodSpec:             {coded(methodDefOrRef), cBlob},
	tGenericParamConstraint: {index(tGenericParam), coded(typeDefOrRef)},
}

type metadata struct {
	strings []byte
	blobs   []byte
	tables  []byte

	heapSizes uint8
	rows      [64]uint32
	rowSize   [numTables]int
	offset    [numTables]int
}

func (m *metadata) heapWidth(flag uint8) int {
	if m.heapSizes&flag != 0 {
		return 4
	}
	return 2
}

func (m *metadata) indexWidth(t table) int {
	if m.rows[t] > 0xFFFF {
		return 4
	}
	return 2
}

func (m *metadata) codedWidth(c codedIndex) int {
	limit := uint32(1) << (16 - c.bits)
	for _, t := range c.tables {
		if t != noTable && m.rows[t] >= limit {
			return 4
		}
	}
	return 2
}

// parseMetadata reads the metadata root, its streams, and the table layout
func parseMetadata(data []byte) (*metadata, error) {
	r := newReader(data)
	if r.u32() != metadataSignature {
		return nil, fmt.Errorf("%w: bad signature", errMalformed)
	}
	r.u16() // major version
	r.u16() // minor version
	r.u32() // reserved
	r.take(int(r.u32()))
	r.u16() // flags
	streamCount := int(r.u16())

	m := &metadata{}
	var tables []byte
	for i := 0; i < streamCount; i++ {
		offset, size := r.u32(), r.u32()
		name := r.cstring()
		r.align4()
		if r.err != nil {
			return nil, r.err
		}
		if uint64(offset)+uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: stream %q overruns metadata", errMalformed, name)
		}
		stream := data[offset : offset+size]
		switch name {
		case "#~", "#-":
			tables = stream
		case "#Strings":
			m.strings = stream
		case "#Blob":
			m.blobs = stream
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if tables == nil {
		return nil, fmt.Errorf("%w: no tables stream", errMalformed)
	}

	if err := m.parseTables(tables); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metadata) parseTables(stream []byte) error {
	r := newReader(stream)
	r.u32() // reserved
	r.u8()  // major version
	r.u8()  // minor version
	m.heapSizes = r.u8()
	r.u8() // reserved
	valid := r.u64()
	r.u64() // sorted

	for t := 0; t < 64; t++ {
		if valid&(1<<t) != 0 {
			m.rows[t] = r.u32()
		}
	}
	if m.heapSizes&heapExtraData != 0 {
		r.u32()
	}
	if r.err != nil {
		return r.err
	}

	offset := r.off
	for t := table(0); t < numTables; t++ {
		for _, c := range schemas[t] {
			m.rowSize[t] += c(m)
		}
		m.offset[t] = offset
		size := uint64(m.rowSize[t]) * uint64(m.rows[t])
		if uint64(offset)+size > uint64(len(stream)) {
			return fmt.Errorf("%w: table %#x overruns the tables stream", errMalformed, t)
		}
		offset += int(size)
	}
	m.tables = stream
	return nil
}

// row returns the column values of the 1-based row i of table t
func (m *metadata) row(t table, i uint32) ([]uint32, error) {
	if i == 0 || i > m.rows[t] {
		return nil, fmt.Errorf("%w: row %d of table %#x does not exist", errMalformed, i, int(t))
	}
	r := newReader(m.tables)
	r.off = m.offset[t] + int(i-1)*m.rowSize[t]

	values := make([]uint32, len(schemas[t]))
	for j, c := range schemas[t] {
		if c(m) == 4 {
			values[j] = r.u32()
		} else {
			values[j] = uint32(r.u16())
		}
	}
	return values, r.err
}

func (m *metadata) string(i uint32) (string, error) {
	if uint64(i) >= uint64(len(m.strings)) {
		return "", fmt.Errorf("%w: string %#x is outside the heap", errMalformed, i)
	}
	r := newReader(m.strings[i:])
	s := r.cstring()
	return s, r.err
}

func (m *metadata) blob(i uint32) ([]byte, error) {
	if uint64(i) >= uint64(len(m.blobs)) {
		return nil, fmt.Errorf("%w: blob %#x is outside the heap", errMalformed, i)
	}
	r := newReader(m.blobs[i:])
	b := r.take(int(r.compressed()))
	return b, r.err
}

// decode splits a coded index into its table and 1-based row
func (c codedIndex) decode(v uint32) (table, uint32) {
	tag := v & (1<<c.bits - 1)
	if int(tag) >= len(c.tables) {
		return noTable, 0
	}
	return c.tables[tag], v >> c.bits
}

// hasServiceableAttribute looks for AssemblyMetadataAttribute("Serviceable", "True") on the assembly
func (m *metadata) hasServiceableAttribute() (bool, error) {
	for i := uint32(1); i <= m.rows[tCustomAttribute]; i++ {
		cols, err := m.row(tCustomAttribute, i)
		if err != nil {
			return false, err
		}
		if parent, row := hasCustomAttribute.decode(cols[0]); parent != tAssembly || row != 1 {
			continue
		}

		ctor, ctorRow := customAttributeType.decode(cols[1])
		if ctor != tMemberRef {
			continue
		}
		ok, sig, err := m.isMetadataAttributeCtor(ctorRow)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		value, err := m.blob(cols[2])
		if err != nil {
			return false, err
		}
		args, ok := decodeStringArgs(sig, value)
		if ok && len(args) == 2 && args[0] != nil && args[1] != nil &&
			strings.EqualFold(*args[0], "Serviceable") && strings.EqualFold(*args[1], "True") {
			return true, nil
		}
	}
	return false, nil
}

// isMetadataAttributeCtor checks that a MemberRef is a constructor on a TypeRef named
// AssemblyMetadataAttribute, returning its signature
func (m *metadata) isMetadataAttributeCtor(memberRef uint32) (bool, []byte, error) {
	cols, err := m.row(tMemberRef, memberRef)
	if err != nil {
		return false, nil, err
	}
	parent, typeRef := memberRefParent.decode(cols[0])
	if parent != tTypeRef {
		return false, nil, nil
	}

	typeCols, err := m.row(tTypeRef, typeRef)
	if err != nil {
		return false, nil, err
	}
	name, err := m.string(typeCols[1])
	if err != nil {
		return false, nil, err
	}
	if name != metadataAttributeName {
		return false, nil, nil
	}

	sig, err := m.blob(cols[2])
	if err != nil {
		return false, nil, err
	}
	return true, sig, nil
}

const (
	sigGeneric      = 0x10
	elementVoid     = 0x01
	elementString   = 0x0E
	serStringNull   = 0xFF
	attributeProlog = 0x0001
)

// decodeStringArgs decodes the fixed arguments of a custom attribute value whose constructor
// takes only strings. A nil entry is a null string.
func decodeStringArgs(sig, value []byte) ([]*string, bool) {
	s := newReader(sig)
	if s.u8()&sigGeneric != 0 {
		return nil, false
	}
	params := int(s.compressed())
	if s.u8() != elementVoid {
		return nil, false
	}
	for i := 0; i < params; i++ {
		if s.u8() != elementString {
			return nil, false
		}
	}
	if s.err != nil {
		return nil, false
	}

	v := newReader(value)
	if v.u16() != attributeProlog {
		return nil, false
	}
	args := make([]*string, 0, params)
	for i := 0; i < params; i++ {
		if v.peek() == serStringNull {
			v.u8()
			args = append(args, nil)
			continue
		}
		arg := string(v.take(int(v.compressed())))
		args = append(args, &arg)
	}
	if v.err != nil {
		return nil, false
	}
	return args, true
}
