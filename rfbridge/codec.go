// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"fmt"
	"math"
)

// TileCodec converts tiles to and from the engine's structured record
// layout. The cell buffer's byte encoding is owned by the engine: encoding
// flattens the buffer and sends it through the engine's list-to-bytes
// conversion, decoding sends the bytes back through the inverse call. Each
// direction therefore costs one remote round trip on top of marshaling the
// values themselves — a known cost of the remote contract, not something to
// optimize away locally.
type TileCodec struct {
	rf *Context
}

// NewTileCodec creates a codec bound to an engine session.
func NewTileCodec(rf *Context) *TileCodec {
	return &TileCodec{rf: rf}
}

func (c *TileCodec) engine() (Engine, error) {
	if c == nil || c.rf == nil || c.rf.engine == nil {
		return nil, ErrNoActiveContext
	}
	return c.rf.engine, nil
}

// Encode serializes a tile into the engine's record layout. The record is
// always materialized: cells are populated, ref is nil. No partial record
// is returned on failure.
func (c *TileCodec) Encode(ctx context.Context, t *Tile) (*TileRecord, error) {
	eng, err := c.engine()
	if err != nil {
		return nil, err
	}

	cols, rows := t.Dimensions()
	if cols > math.MaxInt16 || rows > math.MaxInt16 {
		return nil, fmt.Errorf("rfbridge: tile dimensions %dx%d exceed the record's int16 bound", cols, rows)
	}

	cells, err := eng.ListToByteArray(ctx, t.Values(), cols, rows)
	if err != nil {
		return nil, err
	}

	return &TileRecord{
		CellContext: CellContext{
			CellType:   CellTypeInfo{Name: t.CellType().Name()},
			Dimensions: TileDimensions{Cols: int16(cols), Rows: int16(rows)},
		},
		CellData: CellData{Cells: cells},
	}, nil
}

// Decode reconstructs a tile from the engine's record layout. The returned
// tile's cell type is the canonical type of the resolved element kind, so a
// "raw"-suffixed record decodes to its base type.
//
// Records carrying a raster source reference are a deliberate capability
// gap: they fail with UnsupportedFeatureError rather than being decoded
// with invented semantics.
func (c *TileCodec) Decode(ctx context.Context, rec *TileRecord) (*Tile, error) {
	eng, err := c.engine()
	if err != nil {
		return nil, err
	}

	if _, ok := rec.Referenced(); ok {
		return nil, &UnsupportedFeatureError{Feature: "decoding raster source references is"}
	}

	ct := NewCellType(rec.CellContext.CellType.Name)
	d, err := ct.DType()
	if err != nil {
		return nil, err
	}

	cols := int(rec.CellContext.Dimensions.Cols)
	rows := int(rec.CellContext.Dimensions.Rows)

	vals, err := eng.ByteArrayToList(ctx, rec.CellData.Cells, ct.Name(), cols, rows)
	if err != nil {
		return nil, err
	}
	if len(vals) != cols*rows {
		return nil, fmt.Errorf("rfbridge: engine returned %d cells for a %dx%d tile", len(vals), cols, rows)
	}

	return newTileOf(d, cols, rows, vals), nil
}

// DecodeTile reconstructs a tile through the process-wide bound context.
// Tiles travel to worker processes distinct from the one that encoded them;
// this entry point needs no session argument so reconstruction can happen
// wherever a record lands, provided the process has called [Bind].
func DecodeTile(ctx context.Context, rec *TileRecord) (*Tile, error) {
	rf, err := Active()
	if err != nil {
		return nil, err
	}
	return NewTileCodec(rf).Decode(ctx, rec)
}
