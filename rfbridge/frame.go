// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// RasterFrame wraps a remote tabular dataset that carries tile-valued
// columns. The dataset itself lives in the engine; the wrapper holds only
// the handle and the session, and every accessor is a forwarded call with
// any returned dataset handle re-wrapped into a new frame sharing the same
// session. No accessor computes anything locally.
type RasterFrame struct {
	handle Handle
	rf     *Context
}

// WrapFrame wraps a remote dataset handle in a frame bound to a session.
func WrapFrame(rf *Context, handle Handle) *RasterFrame {
	return &RasterFrame{handle: handle, rf: rf}
}

// Handle returns the remote dataset handle.
func (f *RasterFrame) Handle() Handle {
	return f.handle
}

// Context returns the session the frame is bound to.
func (f *RasterFrame) Context() *Context {
	return f.rf
}

func (f *RasterFrame) engine() (Engine, error) {
	if f == nil || f.rf == nil || f.rf.engine == nil {
		return nil, ErrNoActiveContext
	}
	return f.rf.engine, nil
}

func (f *RasterFrame) wrap(h Handle) *RasterFrame {
	return &RasterFrame{handle: h, rf: f.rf}
}

// TileColumns returns the frame's columns of tile type.
func (f *RasterFrame) TileColumns(ctx context.Context) ([]ColumnRef, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	return eng.TileColumns(ctx, f.handle)
}

// SpatialKeyColumn returns the frame's tagged spatial key column.
func (f *RasterFrame) SpatialKeyColumn(ctx context.Context) (ColumnRef, error) {
	eng, err := f.engine()
	if err != nil {
		return "", err
	}
	return eng.SpatialKeyColumn(ctx, f.handle)
}

// TemporalKeyColumn returns the frame's tagged temporal key column.
// ok is false when the frame has none; that is an absent value, not an error.
func (f *RasterFrame) TemporalKeyColumn(ctx context.Context) (col ColumnRef, ok bool, err error) {
	eng, err := f.engine()
	if err != nil {
		return "", false, err
	}
	return eng.TemporalKeyColumn(ctx, f.handle)
}

// TileLayerMetadata returns the frame's tile layer metadata, decoded from
// the engine's JSON representation.
func (f *RasterFrame) TileLayerMetadata(ctx context.Context) (map[string]any, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	raw, err := eng.TileLayerMetadata(ctx, f.handle)
	if err != nil {
		return nil, err
	}
	var md map[string]any
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("decoding tile layer metadata: %w", err)
	}
	return md, nil
}

// SpatialJoin spatially joins this frame to another, producing a new frame.
func (f *RasterFrame) SpatialJoin(ctx context.Context, other *RasterFrame) (*RasterFrame, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	h, err := eng.SpatialJoin(ctx, f.handle, other.handle)
	if err != nil {
		return nil, err
	}
	return f.wrap(h), nil
}

// ToIntRaster renders a tile column as a flat int raster of the given size.
func (f *RasterFrame) ToIntRaster(ctx context.Context, colName string, cols, rows int) ([]int32, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	return eng.ToIntRaster(ctx, f.handle, colName, cols, rows)
}

// ToDoubleRaster renders a tile column as a flat double raster of the given size.
func (f *RasterFrame) ToDoubleRaster(ctx context.Context, colName string, cols, rows int) ([]float64, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	return eng.ToDoubleRaster(ctx, f.handle, colName, cols, rows)
}

// WithBounds adds a "bounds" column holding the extent of each row.
func (f *RasterFrame) WithBounds(ctx context.Context) (*RasterFrame, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	h, err := eng.WithBounds(ctx, f.handle)
	if err != nil {
		return nil, err
	}
	return f.wrap(h), nil
}

// WithCenter adds a "center" column holding the center of each row's extent.
func (f *RasterFrame) WithCenter(ctx context.Context) (*RasterFrame, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	h, err := eng.WithCenter(ctx, f.handle)
	if err != nil {
		return nil, err
	}
	return f.wrap(h), nil
}

// WithCenterLatLng adds a "center" column in geographic coordinates.
func (f *RasterFrame) WithCenterLatLng(ctx context.Context) (*RasterFrame, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	h, err := eng.WithCenterLatLng(ctx, f.handle)
	if err != nil {
		return nil, err
	}
	return f.wrap(h), nil
}

// WithSpatialIndex adds a column holding the spatial index of each row.
func (f *RasterFrame) WithSpatialIndex(ctx context.Context) (*RasterFrame, error) {
	eng, err := f.engine()
	if err != nil {
		return nil, err
	}
	h, err := eng.WithSpatialIndex(ctx, f.handle)
	if err != nil {
		return nil, err
	}
	return f.wrap(h), nil
}
