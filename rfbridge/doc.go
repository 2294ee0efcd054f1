// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package rfbridge is a Go client bridge for a JVM-resident raster-on-DataFrame
// engine. The engine owns the distributed query plan, the tiling scheme, and
// every compute transformer; this package owns nothing but the marshaling:
// converting raster tiles between the engine's columnar record layout and
// in-memory numeric buffers, and forwarding method calls across the runtime
// boundary.
//
// # Wire protocol
//
// All traffic rides on Arrow IPC streams. A request is a single-row
// RecordBatch of parameters whose custom metadata names the method
// (rf_bridge.method), protocol version, request ID, and requested log level.
// A response is an IPC stream of zero or more zero-row log batches followed
// by either a one-row result batch (a single "result" column) or a zero-row
// EXCEPTION batch describing the remote failure.
//
// Method parameters are declared as Go structs annotated with `rfbridge`
// struct tags:
//
//	`rfbridge:"wire_name[,option]"`
//
// Supported options are int16, int32, and float32 (narrowing the default
// Arrow integer/float type) and binary (embedding an [ArrowSerializable]
// value as IPC bytes). Pointer fields become nullable columns.
//
// # Call surface
//
// Every remote operation the bridge consumes is enumerated on the [Engine]
// interface, implemented by [EngineStub] over a [Gateway]. The Gateway is
// the single chokepoint for cross-boundary calls: no other code path in
// this package reaches the engine, which keeps the boundary auditable and
// lets tests substitute an in-memory Engine.
//
// # Tiles
//
// [Tile] holds a two-dimensional numeric buffer and derives its [CellType]
// from the buffer's element type. [TileCodec] converts tiles to and from
// the engine's structured record layout ([TileRecord]); the cell buffer's
// byte encoding is delegated to the engine's paired conversion calls, so
// each encode or decode costs one remote round trip. Tiles deserialized on
// worker processes resolve the engine through the process-wide binding set
// with [Bind].
//
// The bridge performs no retries, caching, or cancellation of its own: a
// failed call surfaces unchanged as a [RemoteCallError], and a hung remote
// call blocks the caller.
package rfbridge
