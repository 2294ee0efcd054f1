// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import "context"

// Handle is an opaque token for an object owned by the remote engine: a
// DataFrame, a column expression, or an ML transformer. The engine assigns
// handles; this layer never inspects them.
type Handle string

// ColumnRef names a column of a remote DataFrame.
type ColumnRef string

// Engine enumerates every remote operation this bridge consumes. All
// implementations forward to the engine runtime; the gateway-backed
// [EngineStub] is the production one, and tests substitute in-memory fakes.
//
// Dimensions are always passed width-first (cols, rows), matching the
// engine's geospatial convention.
type Engine interface {
	// TileColumns returns the columns of tile type in the frame.
	TileColumns(ctx context.Context, df Handle) ([]ColumnRef, error)
	// SpatialKeyColumn returns the tagged spatial key column.
	SpatialKeyColumn(ctx context.Context, df Handle) (ColumnRef, error)
	// TemporalKeyColumn returns the tagged temporal key column. ok is false
	// when the frame has none; that is not an error.
	TemporalKeyColumn(ctx context.Context, df Handle) (col ColumnRef, ok bool, err error)
	// TileLayerMetadata returns the frame's tile layer metadata as a JSON string.
	TileLayerMetadata(ctx context.Context, df Handle) (string, error)
	// SpatialJoin joins two frames on their spatial keys.
	SpatialJoin(ctx context.Context, left, right Handle) (Handle, error)
	// ToIntRaster renders a tile column as a flat int raster of the given size.
	ToIntRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]int32, error)
	// ToDoubleRaster renders a tile column as a flat double raster of the given size.
	ToDoubleRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]float64, error)
	// WithBounds adds a "bounds" column holding each row's extent.
	WithBounds(ctx context.Context, df Handle) (Handle, error)
	// WithCenter adds a "center" column holding the center of each row's extent.
	WithCenter(ctx context.Context, df Handle) (Handle, error)
	// WithCenterLatLng adds a "center" column in geographic coordinates.
	WithCenterLatLng(ctx context.Context, df Handle) (Handle, error)
	// WithSpatialIndex adds a column holding each row's spatial index.
	WithSpatialIndex(ctx context.Context, df Handle) (Handle, error)

	// ListToByteArray encodes flat row-major cell values into the engine's
	// cell buffer encoding. The engine derives byte width and order from the
	// enclosing tile context; this layer does not duplicate that logic.
	ListToByteArray(ctx context.Context, values []float64, cols, rows int) ([]byte, error)
	// ByteArrayToList decodes a cell buffer back into flat row-major values,
	// using the cell type name to resolve width, sign, and byte order.
	ByteArrayToList(ctx context.Context, data []byte, cellTypeName string, cols, rows int) ([]float64, error)

	// MLNew instantiates a named transformer class on the engine.
	MLNew(ctx context.Context, className string) (Handle, error)
	// MLTransform applies a transformer to a frame, producing a new frame.
	MLTransform(ctx context.Context, transformer, df Handle) (Handle, error)
	// MLSetInputCols sets the input columns of a transformer.
	MLSetInputCols(ctx context.Context, transformer Handle, cols []string) error
}

// EngineStub is the concrete client stub: every Engine operation becomes one
// gateway call, one request-response cycle on the transport.
type EngineStub struct {
	g *Gateway
}

// NewEngineStub creates an Engine over the given gateway.
func NewEngineStub(g *Gateway) *EngineStub {
	return &EngineStub{g: g}
}

// Parameter structs. Tag names are the engine's wire names.

type frameParams struct {
	Frame string `rfbridge:"df"`
}

type framePairParams struct {
	Left  string `rfbridge:"df"`
	Right string `rfbridge:"other"`
}

type rasterParams struct {
	Frame   string `rfbridge:"df"`
	ColName string `rfbridge:"colname"`
	Cols    int64  `rfbridge:"cols,int32"`
	Rows    int64  `rfbridge:"rows,int32"`
}

type listToByteArrayParams struct {
	Values []float64 `rfbridge:"values"`
	Cols   int64     `rfbridge:"cols,int32"`
	Rows   int64     `rfbridge:"rows,int32"`
}

type byteArrayToListParams struct {
	Data     []byte `rfbridge:"data"`
	CellType string `rfbridge:"cell_type_name"`
	Cols     int64  `rfbridge:"cols,int32"`
	Rows     int64  `rfbridge:"rows,int32"`
}

type mlNewParams struct {
	ClassName string `rfbridge:"class_name"`
}

type mlTransformParams struct {
	Transformer string `rfbridge:"transformer"`
	Frame       string `rfbridge:"df"`
}

type mlSetInputColsParams struct {
	Transformer string   `rfbridge:"transformer"`
	Cols        []string `rfbridge:"cols"`
}

// call invokes a unary method and decodes its result.
func call[R any](ctx context.Context, g *Gateway, method string, params any) (R, error) {
	var r R
	err := g.Call(ctx, method, params, &r)
	return r, err
}

func (e *EngineStub) TileColumns(ctx context.Context, df Handle) ([]ColumnRef, error) {
	names, err := call[[]string](ctx, e.g, "tileColumns", frameParams{Frame: string(df)})
	if err != nil {
		return nil, err
	}
	cols := make([]ColumnRef, len(names))
	for i, n := range names {
		cols[i] = ColumnRef(n)
	}
	return cols, nil
}

func (e *EngineStub) SpatialKeyColumn(ctx context.Context, df Handle) (ColumnRef, error) {
	name, err := call[string](ctx, e.g, "spatialKeyColumn", frameParams{Frame: string(df)})
	return ColumnRef(name), err
}

func (e *EngineStub) TemporalKeyColumn(ctx context.Context, df Handle) (ColumnRef, bool, error) {
	name, err := call[*string](ctx, e.g, "temporalKeyColumn", frameParams{Frame: string(df)})
	if err != nil {
		return "", false, err
	}
	if name == nil {
		return "", false, nil
	}
	return ColumnRef(*name), true, nil
}

func (e *EngineStub) TileLayerMetadata(ctx context.Context, df Handle) (string, error) {
	return call[string](ctx, e.g, "tileLayerMetadata", frameParams{Frame: string(df)})
}

func (e *EngineStub) SpatialJoin(ctx context.Context, left, right Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "spatialJoin", framePairParams{Left: string(left), Right: string(right)})
	return Handle(h), err
}

func (e *EngineStub) ToIntRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]int32, error) {
	return call[[]int32](ctx, e.g, "toIntRaster", rasterParams{
		Frame: string(df), ColName: colName, Cols: int64(cols), Rows: int64(rows),
	})
}

func (e *EngineStub) ToDoubleRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]float64, error) {
	return call[[]float64](ctx, e.g, "toDoubleRaster", rasterParams{
		Frame: string(df), ColName: colName, Cols: int64(cols), Rows: int64(rows),
	})
}

func (e *EngineStub) WithBounds(ctx context.Context, df Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "withBounds", frameParams{Frame: string(df)})
	return Handle(h), err
}

func (e *EngineStub) WithCenter(ctx context.Context, df Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "withCenter", frameParams{Frame: string(df)})
	return Handle(h), err
}

func (e *EngineStub) WithCenterLatLng(ctx context.Context, df Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "withCenterLatLng", frameParams{Frame: string(df)})
	return Handle(h), err
}

func (e *EngineStub) WithSpatialIndex(ctx context.Context, df Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "withSpatialIndex", frameParams{Frame: string(df)})
	return Handle(h), err
}

func (e *EngineStub) ListToByteArray(ctx context.Context, values []float64, cols, rows int) ([]byte, error) {
	return call[[]byte](ctx, e.g, "_list_to_bytearray", listToByteArrayParams{
		Values: values, Cols: int64(cols), Rows: int64(rows),
	})
}

func (e *EngineStub) ByteArrayToList(ctx context.Context, data []byte, cellTypeName string, cols, rows int) ([]float64, error) {
	return call[[]float64](ctx, e.g, "_bytearray_to_list", byteArrayToListParams{
		Data: data, CellType: cellTypeName, Cols: int64(cols), Rows: int64(rows),
	})
}

func (e *EngineStub) MLNew(ctx context.Context, className string) (Handle, error) {
	h, err := call[string](ctx, e.g, "mlNew", mlNewParams{ClassName: className})
	return Handle(h), err
}

func (e *EngineStub) MLTransform(ctx context.Context, transformer, df Handle) (Handle, error) {
	h, err := call[string](ctx, e.g, "mlTransform", mlTransformParams{
		Transformer: string(transformer), Frame: string(df),
	})
	return Handle(h), err
}

func (e *EngineStub) MLSetInputCols(ctx context.Context, transformer Handle, cols []string) error {
	return e.g.Call(ctx, "mlSetInputCols", mlSetInputColsParams{
		Transformer: string(transformer), Cols: cols,
	}, nil)
}
