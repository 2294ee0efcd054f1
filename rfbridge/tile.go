// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CellValue constrains the native element types a tile buffer may hold.
type CellValue interface {
	int8 | uint8 | int16 | uint16 | int32 | float32 | float64
}

// Tile is an in-memory raster tile: a rectangular buffer of cell values and
// the cell type describing their representation. Tiles are value objects,
// created per conversion and discarded; they hold no engine resources.
//
// Cells are stored row-major. All supported element kinds are exactly
// representable in float64, which is the uniform in-memory carrier; the
// cell type records the native kind for typed read-back and for the wire.
type Tile struct {
	ct   CellType
	cols int
	rows int
	vals []float64 // row-major, len == cols*rows
}

// NewTile builds a tile from a 2-D cell buffer, deriving the cell type from
// the buffer's element type. The buffer must be rectangular and non-empty.
func NewTile[T CellValue](cells [][]T) (*Tile, error) {
	rows := len(cells)
	if rows == 0 {
		return nil, errors.New("rfbridge: tile buffer has no rows")
	}
	cols := len(cells[0])
	if cols == 0 {
		return nil, errors.New("rfbridge: tile buffer has no columns")
	}

	vals := make([]float64, 0, rows*cols)
	for i, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("rfbridge: ragged tile buffer: row %d has %d cells, want %d", i, len(row), cols)
		}
		for _, v := range row {
			vals = append(vals, float64(v))
		}
	}

	return &Tile{
		ct:   CellTypeOf(dtypeFor[T]()),
		cols: cols,
		rows: rows,
		vals: vals,
	}, nil
}

// newTileOf wraps an already-flat, already-cast cell buffer. Used by the
// codec after remote decoding.
func newTileOf(d DType, cols, rows int, vals []float64) *Tile {
	return &Tile{ct: CellTypeOf(d), cols: cols, rows: rows, vals: vals}
}

// dtypeFor maps a native element type onto its DType.
func dtypeFor[T CellValue]() DType {
	var z T
	switch any(z).(type) {
	case int8:
		return Int8
	case uint8:
		return UInt8
	case int16:
		return Int16
	case uint16:
		return UInt16
	case int32:
		return Int32
	case float32:
		return Float32
	default:
		return Float64
	}
}

// CellType returns the tile's cell type, derived at construction.
func (t *Tile) CellType() CellType {
	return t.ct
}

// Dimensions returns the tile's size as (cols, rows) — width first, the
// engine's geospatial convention. Note this is the transpose of the buffer's
// own (rows, cols) shape order; the inversion is a contract, not an accident.
func (t *Tile) Dimensions() (cols, rows int) {
	return t.cols, t.rows
}

// Values returns a copy of the cells as a flat row-major sequence.
func (t *Tile) Values() []float64 {
	out := make([]float64, len(t.vals))
	copy(out, t.vals)
	return out
}

// At returns the cell at the given row and column.
func (t *Tile) At(row, col int) float64 {
	return t.vals[row*t.cols+col]
}

// CellsAs returns the tile's buffer as a typed 2-D slice. The requested
// element type must match the tile's cell type exactly.
func CellsAs[T CellValue](t *Tile) ([][]T, error) {
	want := CellTypeOf(dtypeFor[T]())
	if !t.ct.Equal(want) {
		return nil, fmt.Errorf("rfbridge: tile cells are %s, not %s", t.ct, want)
	}
	out := make([][]T, t.rows)
	for r := range out {
		row := make([]T, t.cols)
		for c := range row {
			row[c] = T(t.vals[r*t.cols+c])
		}
		out[r] = row
	}
	return out, nil
}

// String renders the buffer in its natural textual form, one row per line.
func (t *Tile) String() string {
	d, err := t.ct.DType()
	if err != nil {
		d = Float64
	}
	var sb strings.Builder
	for r := 0; r < t.rows; r++ {
		sb.WriteByte('[')
		for c := 0; c < t.cols; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(formatCell(d, t.vals[r*t.cols+c]))
		}
		sb.WriteByte(']')
		if r < t.rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func formatCell(d DType, v float64) string {
	switch d {
	case Float32, Float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
