// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
)

// TileRecord is the engine's structured columnar layout for a tile value.
// The schema — field names, order, and types — mirrors the engine's own
// definition exactly; it is the wire contract and must not drift.
//
// Exactly one of cell_data.cells (materialized cells) or cell_data.ref
// (lazy raster source reference) is populated. This layer only produces the
// materialized arm: Ref is always nil on encode and passed through, never
// reconstructed, on decode.
type TileRecord struct {
	CellContext CellContext `arrow:"cell_context"`
	CellData    CellData    `arrow:"cell_data"`
}

// CellContext describes a tile's cell representation and size.
type CellContext struct {
	CellType   CellTypeInfo   `arrow:"cell_type"`
	Dimensions TileDimensions `arrow:"dimensions"`
}

// CellTypeInfo carries the engine cell type identifier.
type CellTypeInfo struct {
	Name string `arrow:"cellTypeName"`
}

// TileDimensions is a tile's size, width first. The engine bounds tile
// sides at int16.
type TileDimensions struct {
	Cols int16 `arrow:"cols"`
	Rows int16 `arrow:"rows"`
}

// CellData is the tagged payload of a tile record: materialized cell bytes
// or a raster source reference.
type CellData struct {
	Cells []byte           `arrow:"cells"`
	Ref   *RasterSourceRef `arrow:"ref"`
}

// RasterSourceRef points at a band of a remote raster source instead of
// materialized cells. The source payload is the engine's own serialized
// form, opaque to this layer.
type RasterSourceRef struct {
	Source    RasterSource `arrow:"source"`
	BandIndex int32        `arrow:"bandIndex"`
	Subextent *Extent      `arrow:"subextent"`
}

// RasterSource is the engine's serialized raster source handle.
type RasterSource struct {
	Kryo []byte `arrow:"raster_source_kryo"`
}

// Extent is a bounding box in the source's coordinate reference system.
type Extent struct {
	XMin float64 `arrow:"xmin"`
	YMin float64 `arrow:"ymin"`
	XMax float64 `arrow:"xmax"`
	YMax float64 `arrow:"ymax"`
}

// ArrowSchema returns the engine's tile record schema.
func (TileRecord) ArrowSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "cell_context", Type: arrow.StructOf(
			arrow.Field{Name: "cell_type", Type: arrow.StructOf(
				arrow.Field{Name: "cellTypeName", Type: arrow.BinaryTypes.String},
			)},
			arrow.Field{Name: "dimensions", Type: arrow.StructOf(
				arrow.Field{Name: "cols", Type: arrow.PrimitiveTypes.Int16},
				arrow.Field{Name: "rows", Type: arrow.PrimitiveTypes.Int16},
			)},
		)},
		{Name: "cell_data", Type: arrow.StructOf(
			arrow.Field{Name: "cells", Type: arrow.BinaryTypes.Binary, Nullable: true},
			arrow.Field{Name: "ref", Type: arrow.StructOf(
				arrow.Field{Name: "source", Type: arrow.StructOf(
					arrow.Field{Name: "raster_source_kryo", Type: arrow.BinaryTypes.Binary},
				)},
				arrow.Field{Name: "bandIndex", Type: arrow.PrimitiveTypes.Int32},
				arrow.Field{Name: "subextent", Type: arrow.StructOf(
					arrow.Field{Name: "xmin", Type: arrow.PrimitiveTypes.Float64},
					arrow.Field{Name: "ymin", Type: arrow.PrimitiveTypes.Float64},
					arrow.Field{Name: "xmax", Type: arrow.PrimitiveTypes.Float64},
					arrow.Field{Name: "ymax", Type: arrow.PrimitiveTypes.Float64},
				), Nullable: true},
			), Nullable: true},
		)},
	}, nil)
}

// Materialized returns the record's cell bytes, or ok=false when the record
// carries a raster source reference instead.
func (r *TileRecord) Materialized() (cells []byte, ok bool) {
	if r.CellData.Ref != nil {
		return nil, false
	}
	return r.CellData.Cells, true
}

// Referenced returns the record's raster source reference, or ok=false for
// a materialized record.
func (r *TileRecord) Referenced() (*RasterSourceRef, bool) {
	if r.CellData.Ref == nil {
		return nil, false
	}
	return r.CellData.Ref, true
}

// MarshalIPC serializes the record as a one-row Arrow IPC stream, the form
// tile values take when embedded in other payloads.
func (r *TileRecord) MarshalIPC() ([]byte, error) {
	return marshalArrowIPC(r)
}

// UnmarshalTileRecordIPC decodes a one-row Arrow IPC stream into a tile record.
func UnmarshalTileRecordIPC(data []byte) (*TileRecord, error) {
	v, err := unmarshalArrowIPC(reflect.TypeOf(TileRecord{}), data)
	if err != nil {
		return nil, err
	}
	rec := v.Interface().(TileRecord)
	return &rec, nil
}
