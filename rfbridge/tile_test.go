// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileDimensions(t *testing.T) {
	// A buffer of 3 rows of 5 cells is a 5x3 tile: dimensions are width
	// first, the transpose of the buffer's own shape order.
	tile, err := NewTile([][]uint8{
		{1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10},
		{11, 12, 13, 14, 15},
	})
	require.NoError(t, err)

	cols, rows := tile.Dimensions()
	assert.Equal(t, 5, cols)
	assert.Equal(t, 3, rows)
	assert.Equal(t, NewCellType("uint8"), tile.CellType())
}

func TestNewTileCellTypes(t *testing.T) {
	t.Run("int8", func(t *testing.T) {
		tile, err := NewTile([][]int8{{-1, 2}})
		require.NoError(t, err)
		assert.Equal(t, "int8", tile.CellType().Name())
	})
	t.Run("int16", func(t *testing.T) {
		tile, err := NewTile([][]int16{{-1, 2}})
		require.NoError(t, err)
		assert.Equal(t, "int16", tile.CellType().Name())
	})
	t.Run("uint16", func(t *testing.T) {
		tile, err := NewTile([][]uint16{{1, 2}})
		require.NoError(t, err)
		assert.Equal(t, "uint16", tile.CellType().Name())
	})
	t.Run("int32", func(t *testing.T) {
		tile, err := NewTile([][]int32{{-1, 2}})
		require.NoError(t, err)
		assert.Equal(t, "int32", tile.CellType().Name())
	})
	t.Run("float32", func(t *testing.T) {
		tile, err := NewTile([][]float32{{1.5, 2}})
		require.NoError(t, err)
		assert.Equal(t, "float32", tile.CellType().Name())
	})
	t.Run("float64", func(t *testing.T) {
		tile, err := NewTile([][]float64{{1.5, 2}})
		require.NoError(t, err)
		assert.Equal(t, "float64", tile.CellType().Name())
	})
}

func TestNewTileValidation(t *testing.T) {
	_, err := NewTile([][]int32{})
	assert.Error(t, err)

	_, err = NewTile([][]int32{{}})
	assert.Error(t, err)

	_, err = NewTile([][]int32{{1, 2, 3}, {4, 5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestTileValuesAndAt(t *testing.T) {
	tile, err := NewTile([][]int16{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, tile.Values())
	assert.Equal(t, float64(1), tile.At(0, 0))
	assert.Equal(t, float64(3), tile.At(0, 2))
	assert.Equal(t, float64(4), tile.At(1, 0))
	assert.Equal(t, float64(6), tile.At(1, 2))

	// Values returns a copy; mutations must not reach the tile.
	vals := tile.Values()
	vals[0] = 99
	assert.Equal(t, float64(1), tile.At(0, 0))
}

func TestCellsAs(t *testing.T) {
	tile, err := NewTile([][]int16{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)

	cells, err := CellsAs[int16](tile)
	require.NoError(t, err)
	assert.Equal(t, [][]int16{{1, 2, 3}, {4, 5, 6}}, cells)

	// The requested element type must match the cell type exactly; there is
	// no widening or narrowing read-back.
	_, err = CellsAs[int32](tile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int16")
}

func TestTileString(t *testing.T) {
	tile, err := NewTile([][]int16{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)
	assert.Equal(t, "[1 2 3]\n[4 5 6]", tile.String())

	ftile, err := NewTile([][]float64{{1.5, 2}})
	require.NoError(t, err)
	assert.Equal(t, "[1.5 2]", ftile.String())
}
