// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import "context"

// Engine-side transformer classes wrapped by this layer. The transformer
// logic is entirely remote; these wrappers only forward.
const (
	tileExploderClass = "org.locationtech.rasterframes.ml.TileExploder"
	noDataFilterClass = "org.locationtech.rasterframes.ml.NoDataFilter"
)

// TileExploder wraps the engine transformer that explodes tile columns into
// one row per cell.
type TileExploder struct {
	handle Handle
	rf     *Context
}

// NewTileExploder instantiates a TileExploder on the engine.
func NewTileExploder(ctx context.Context, rf *Context) (*TileExploder, error) {
	h, err := newTransformer(ctx, rf, tileExploderClass)
	if err != nil {
		return nil, err
	}
	return &TileExploder{handle: h, rf: rf}, nil
}

// Transform applies the exploder to a frame, producing a new frame.
func (t *TileExploder) Transform(ctx context.Context, f *RasterFrame) (*RasterFrame, error) {
	return applyTransformer(ctx, t.rf, t.handle, f)
}

// NoDataFilter wraps the engine transformer that drops rows whose configured
// columns hold NoData.
type NoDataFilter struct {
	handle Handle
	rf     *Context
}

// NewNoDataFilter instantiates a NoDataFilter on the engine.
func NewNoDataFilter(ctx context.Context, rf *Context) (*NoDataFilter, error) {
	h, err := newTransformer(ctx, rf, noDataFilterClass)
	if err != nil {
		return nil, err
	}
	return &NoDataFilter{handle: h, rf: rf}, nil
}

// SetInputCols sets the columns the filter inspects.
func (n *NoDataFilter) SetInputCols(ctx context.Context, cols []string) error {
	eng, err := sessionEngine(n.rf)
	if err != nil {
		return err
	}
	return eng.MLSetInputCols(ctx, n.handle, cols)
}

// Transform applies the filter to a frame, producing a new frame.
func (n *NoDataFilter) Transform(ctx context.Context, f *RasterFrame) (*RasterFrame, error) {
	return applyTransformer(ctx, n.rf, n.handle, f)
}

func sessionEngine(rf *Context) (Engine, error) {
	if rf == nil || rf.engine == nil {
		return nil, ErrNoActiveContext
	}
	return rf.engine, nil
}

func newTransformer(ctx context.Context, rf *Context, className string) (Handle, error) {
	eng, err := sessionEngine(rf)
	if err != nil {
		return "", err
	}
	return eng.MLNew(ctx, className)
}

func applyTransformer(ctx context.Context, rf *Context, transformer Handle, f *RasterFrame) (*RasterFrame, error) {
	eng, err := sessionEngine(rf)
	if err != nil {
		return nil, err
	}
	h, err := eng.MLTransform(ctx, transformer, f.Handle())
	if err != nil {
		return nil, err
	}
	return WrapFrame(rf, h), nil
}
