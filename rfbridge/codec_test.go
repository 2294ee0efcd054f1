// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	session := NewContext(&fakeEngine{})
	codec := NewTileCodec(session)

	tile, err := NewTile([][]int16{
		{1, 2, 3},
		{4, 5, 6},
	})
	require.NoError(t, err)

	rec, err := codec.Encode(ctx, tile)
	require.NoError(t, err)

	// The record carries the engine's layout: width-first int16 dimensions,
	// the cell type identifier, and materialized cell bytes.
	assert.Equal(t, "int16", rec.CellContext.CellType.Name)
	assert.Equal(t, int16(3), rec.CellContext.Dimensions.Cols)
	assert.Equal(t, int16(2), rec.CellContext.Dimensions.Rows)
	_, ok := rec.Materialized()
	assert.True(t, ok)

	back, err := codec.Decode(ctx, rec)
	require.NoError(t, err)
	assert.True(t, back.CellType().Equal(tile.CellType()))
	cols, rows := back.Dimensions()
	assert.Equal(t, 3, cols)
	assert.Equal(t, 2, rows)
	assert.Equal(t, tile.Values(), back.Values())

	cells, err := CellsAs[int16](back)
	require.NoError(t, err)
	assert.Equal(t, [][]int16{{1, 2, 3}, {4, 5, 6}}, cells)
}

func TestTileCodecRoundTripAllCellTypes(t *testing.T) {
	ctx := context.Background()
	codec := NewTileCodec(NewContext(&fakeEngine{}))

	encodeDecode := func(t *testing.T, tile *Tile) *Tile {
		t.Helper()
		rec, err := codec.Encode(ctx, tile)
		require.NoError(t, err)
		back, err := codec.Decode(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, tile.Values(), back.Values())
		assert.True(t, back.CellType().Equal(tile.CellType()))
		return back
	}

	t.Run("int8", func(t *testing.T) {
		tile, err := NewTile([][]int8{{-128, 0, 127}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
	t.Run("uint8", func(t *testing.T) {
		tile, err := NewTile([][]uint8{{0, 128, 255}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
	t.Run("uint16", func(t *testing.T) {
		tile, err := NewTile([][]uint16{{0, 40000, 65535}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
	t.Run("int32", func(t *testing.T) {
		tile, err := NewTile([][]int32{{-2147483648, 0, 2147483647}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
	t.Run("float32", func(t *testing.T) {
		tile, err := NewTile([][]float32{{-1.5, 0, 3.25}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
	t.Run("float64", func(t *testing.T) {
		tile, err := NewTile([][]float64{{-1.5, 0, 3.25}})
		require.NoError(t, err)
		encodeDecode(t, tile)
	})
}

func TestTileCodecDecodeRawCellType(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	codec := NewTileCodec(NewContext(eng))

	cells, err := eng.ListToByteArray(ctx, []float64{1, 2}, 2, 1)
	require.NoError(t, err)

	rec := &TileRecord{
		CellContext: CellContext{
			CellType:   CellTypeInfo{Name: "int16raw"},
			Dimensions: TileDimensions{Cols: 2, Rows: 1},
		},
		CellData: CellData{Cells: cells},
	}

	// A "raw" record decodes to a tile of the canonical base type.
	tile, err := codec.Decode(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "int16", tile.CellType().Name())
}

func TestTileCodecDecodeUserDefinedNoData(t *testing.T) {
	ctx := context.Background()
	codec := NewTileCodec(NewContext(&fakeEngine{}))

	rec := &TileRecord{
		CellContext: CellContext{
			CellType:   CellTypeInfo{Name: "int16ud-999"},
			Dimensions: TileDimensions{Cols: 1, Rows: 1},
		},
		CellData: CellData{Cells: []byte{0, 0, 0, 0, 0, 0, 0, 0}},
	}

	_, err := codec.Decode(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestTileCodecDecodeReferenced(t *testing.T) {
	ctx := context.Background()
	codec := NewTileCodec(NewContext(&fakeEngine{}))

	rec := &TileRecord{
		CellContext: CellContext{
			CellType:   CellTypeInfo{Name: "uint8"},
			Dimensions: TileDimensions{Cols: 256, Rows: 256},
		},
		CellData: CellData{Ref: &RasterSourceRef{
			Source:    RasterSource{Kryo: []byte{0x01}},
			BandIndex: 0,
		}},
	}

	_, err := codec.Decode(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestTileCodecEncodeDimensionBound(t *testing.T) {
	ctx := context.Background()
	codec := NewTileCodec(NewContext(&fakeEngine{}))

	wide := newTileOf(Float64, 40000, 1, make([]float64, 40000))
	_, err := codec.Encode(ctx, wide)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int16")
}

type shortEngine struct {
	fakeEngine
}

func (s *shortEngine) ByteArrayToList(ctx context.Context, data []byte, cellTypeName string, cols, rows int) ([]float64, error) {
	return []float64{1}, nil
}

func TestTileCodecDecodeCellCountMismatch(t *testing.T) {
	ctx := context.Background()
	codec := NewTileCodec(NewContext(&shortEngine{}))

	rec := &TileRecord{
		CellContext: CellContext{
			CellType:   CellTypeInfo{Name: "float64"},
			Dimensions: TileDimensions{Cols: 2, Rows: 2},
		},
		CellData: CellData{Cells: make([]byte, 32)},
	}

	_, err := codec.Decode(ctx, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2x2")
}

func TestTileCodecNoSession(t *testing.T) {
	ctx := context.Background()

	var codec *TileCodec
	_, err := codec.Encode(ctx, nil)
	assert.ErrorIs(t, err, ErrNoActiveContext)

	codec = NewTileCodec(nil)
	_, err = codec.Decode(ctx, &TileRecord{})
	assert.ErrorIs(t, err, ErrNoActiveContext)
}

func TestDecodeTileThroughBinding(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	session := NewContext(eng)

	tile, err := NewTile([][]uint8{{1, 2}, {3, 4}})
	require.NoError(t, err)
	rec, err := NewTileCodec(session).Encode(ctx, tile)
	require.NoError(t, err)

	// Without a bound context reconstruction has no engine to call.
	Unbind()
	_, err = DecodeTile(ctx, rec)
	assert.ErrorIs(t, err, ErrNoActiveContext)

	Bind(session)
	defer Unbind()
	back, err := DecodeTile(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, tile.Values(), back.Values())
}
