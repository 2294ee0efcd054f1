// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfotel_test

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/Query-farm/rf-bridge/rfbridge"
	rfotel "github.com/Query-farm/rf-bridge/rfbridge/otel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func startEngine(t *testing.T, handler func(req *rfbridge.ParsedRequest) (any, error)) io.ReadWriter {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	go func() {
		for {
			req, err := rfbridge.ReadRequest(server)
			if err != nil {
				return
			}
			result, herr := handler(req)
			req.Batch.Release()
			if herr != nil {
				err = rfbridge.WriteErrorResponse(server, herr, "test-engine", req.RequestID)
			} else {
				err = rfbridge.WriteResponse(server, result, nil, "test-engine", req.RequestID)
			}
			if err != nil {
				return
			}
		}
	}()
	return client
}

func newRecordedGateway(t *testing.T, rw io.ReadWriter) (*rfbridge.Gateway, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	cfg := rfotel.DefaultConfig()
	cfg.TracerProvider = tp
	cfg.Propagator = propagation.TraceContext{}
	cfg.EnableMetrics = false

	g := rfbridge.NewGateway(rw)
	rfotel.InstrumentGateway(g, cfg)
	return g, recorder
}

func TestInstrumentedCall(t *testing.T) {
	var seenMeta map[string]string
	rw := startEngine(t, func(req *rfbridge.ParsedRequest) (any, error) {
		seenMeta = req.Metadata
		return "spatial_key", nil
	})

	g, recorder := newRecordedGateway(t, rw)
	var result string
	require.NoError(t, g.Call(context.Background(), "spatialKeyColumn", nil, &result))
	assert.Equal(t, "spatial_key", result)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "rf_bridge/spatialKeyColumn", span.Name())
	assert.Equal(t, trace.SpanKindClient, span.SpanKind())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "rf_bridge", attrs["rpc.system"].AsString())
	assert.Equal(t, "spatialKeyColumn", attrs["rpc.method"].AsString())
	assert.Equal(t, int64(1), attrs["rpc.rf_bridge.sent_batches"].AsInt64())
	assert.Equal(t, int64(1), attrs["rpc.rf_bridge.received_batches"].AsInt64())

	// Trace context is injected into the request metadata so the engine side
	// can continue the trace.
	assert.Contains(t, seenMeta, "traceparent")
}

func TestInstrumentedCallError(t *testing.T) {
	rw := startEngine(t, func(req *rfbridge.ParsedRequest) (any, error) {
		return nil, &rfbridge.RemoteCallError{
			Type:    "IllegalArgumentException",
			Message: "bad column",
		}
	})

	g, recorder := newRecordedGateway(t, rw)
	err := g.Call(context.Background(), "tileColumns", nil, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "IllegalArgumentException", attrs["rpc.rf_bridge.error_type"].AsString())
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}
