// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"fmt"
	"strings"
)

// DType identifies a native numeric element kind for tile cells.
type DType int

const (
	Int8 DType = iota
	UInt8
	Int16
	UInt16
	Int32
	Float32
	Float64
)

var dtypeNames = map[DType]string{
	Int8:    "int8",
	UInt8:   "uint8",
	Int16:   "int16",
	UInt16:  "uint16",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

var dtypesByName = func() map[string]DType {
	m := make(map[string]DType, len(dtypeNames))
	for d, n := range dtypeNames {
		m[n] = d
	}
	return m
}()

func (d DType) String() string {
	if n, ok := dtypeNames[d]; ok {
		return n
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// CellType is the engine's identifier for a tile's per-cell numeric
// representation: base kind, bit width, and NoData convention. It is an
// immutable value; equality is structural on the identifier string, with no
// case folding or numeric normalization.
type CellType struct {
	name string
}

// NewCellType wraps an engine cell type identifier. The identifier is not
// validated here; resolution happens in [CellType.DType].
func NewCellType(name string) CellType {
	return CellType{name: name}
}

// CellTypeOf returns the canonical cell type for a native element kind.
func CellTypeOf(d DType) CellType {
	return CellType{name: d.String()}
}

// Name returns the identifier string.
func (ct CellType) Name() string {
	return ct.name
}

func (ct CellType) String() string {
	return ct.name
}

// Equal reports whether two cell types have identical identifier strings.
func (ct CellType) Equal(other CellType) bool {
	return ct.name == other.name
}

// DType resolves the cell type to its native element kind. A "raw" suffix
// strips NoData semantics and resolves recursively. Identifiers carrying a
// user-defined NoData marker ("ud") fail with UnsupportedFeatureError: the
// byte layout of such tiles cannot be interpreted without the sentinel
// handling, and guessing would silently corrupt cell values.
func (ct CellType) DType() (DType, error) {
	if strings.HasSuffix(ct.name, "raw") {
		return NewCellType(strings.TrimSuffix(ct.name, "raw")).DType()
	}
	if strings.Contains(ct.name, "ud") {
		return 0, &UnsupportedFeatureError{
			Feature: fmt.Sprintf("cell type %q: user-defined NoData values are", ct.name),
		}
	}
	if d, ok := dtypesByName[ct.name]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("rfbridge: unknown cell type %q", ct.name)
}
