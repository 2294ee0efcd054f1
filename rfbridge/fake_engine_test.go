// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// fakeEngine is an in-memory Engine for tests. The cell buffer codec packs
// every value as a little-endian float64; byte width fidelity is the real
// engine's concern, not this fake's.
type fakeEngine struct {
	calls []string

	tileCols     []ColumnRef
	spatialKey   ColumnRef
	temporalKey  *ColumnRef
	metadataJSON string
	handles      int

	failWith error
}

func (f *fakeEngine) record(method string) {
	f.calls = append(f.calls, method)
}

func (f *fakeEngine) nextHandle() Handle {
	f.handles++
	return Handle(fmt.Sprintf("frame-%d", f.handles))
}

func (f *fakeEngine) TileColumns(ctx context.Context, df Handle) ([]ColumnRef, error) {
	f.record("tileColumns")
	return f.tileCols, f.failWith
}

func (f *fakeEngine) SpatialKeyColumn(ctx context.Context, df Handle) (ColumnRef, error) {
	f.record("spatialKeyColumn")
	return f.spatialKey, f.failWith
}

func (f *fakeEngine) TemporalKeyColumn(ctx context.Context, df Handle) (ColumnRef, bool, error) {
	f.record("temporalKeyColumn")
	if f.failWith != nil {
		return "", false, f.failWith
	}
	if f.temporalKey == nil {
		return "", false, nil
	}
	return *f.temporalKey, true, nil
}

func (f *fakeEngine) TileLayerMetadata(ctx context.Context, df Handle) (string, error) {
	f.record("tileLayerMetadata")
	return f.metadataJSON, f.failWith
}

func (f *fakeEngine) SpatialJoin(ctx context.Context, left, right Handle) (Handle, error) {
	f.record("spatialJoin")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) ToIntRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]int32, error) {
	f.record("toIntRaster")
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]int32, cols*rows)
	for i := range out {
		out[i] = int32(i)
	}
	return out, nil
}

func (f *fakeEngine) ToDoubleRaster(ctx context.Context, df Handle, colName string, cols, rows int) ([]float64, error) {
	f.record("toDoubleRaster")
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]float64, cols*rows)
	for i := range out {
		out[i] = float64(i) / 2
	}
	return out, nil
}

func (f *fakeEngine) WithBounds(ctx context.Context, df Handle) (Handle, error) {
	f.record("withBounds")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) WithCenter(ctx context.Context, df Handle) (Handle, error) {
	f.record("withCenter")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) WithCenterLatLng(ctx context.Context, df Handle) (Handle, error) {
	f.record("withCenterLatLng")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) WithSpatialIndex(ctx context.Context, df Handle) (Handle, error) {
	f.record("withSpatialIndex")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) ListToByteArray(ctx context.Context, values []float64, cols, rows int) ([]byte, error) {
	f.record("_list_to_bytearray")
	if f.failWith != nil {
		return nil, f.failWith
	}
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf, nil
}

func (f *fakeEngine) ByteArrayToList(ctx context.Context, data []byte, cellTypeName string, cols, rows int) ([]float64, error) {
	f.record("_bytearray_to_list")
	if f.failWith != nil {
		return nil, f.failWith
	}
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("bad cell buffer length %d", len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return out, nil
}

func (f *fakeEngine) MLNew(ctx context.Context, className string) (Handle, error) {
	f.record("mlNew")
	if f.failWith != nil {
		return "", f.failWith
	}
	f.handles++
	return Handle(fmt.Sprintf("xf-%d", f.handles)), nil
}

func (f *fakeEngine) MLTransform(ctx context.Context, transformer, df Handle) (Handle, error) {
	f.record("mlTransform")
	return f.nextHandle(), f.failWith
}

func (f *fakeEngine) MLSetInputCols(ctx context.Context, transformer Handle, cols []string) error {
	f.record("mlSetInputCols")
	return f.failWith
}
