// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package rfotel provides OpenTelemetry instrumentation for rf-bridge
// gateways. It implements the [rfbridge.CallHook] interface to add
// distributed tracing and metrics to every cross-runtime call, and injects
// trace context into the request metadata so the engine side can continue
// the trace.
//
// Usage:
//
//	rf := rfbridge.Connect(conn)
//	rfotel.InstrumentGateway(rf.Gateway(), rfotel.DefaultConfig())
package rfotel

import (
	"context"
	"fmt"
	"time"

	"github.com/Query-farm/rf-bridge/rfbridge"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "rf_bridge"

// Config configures OpenTelemetry instrumentation for a gateway.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// Propagator injects trace context into request metadata.
	// Defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed calls.
	// Default true.
	RecordExceptions bool
	// ServiceName is the rpc.service attribute value. Defaults to "RasterEngine".
	ServiceName string
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with sensible defaults. Providers and the
// propagator are resolved from the global OTel SDK at instrumentation time.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// InstrumentGateway attaches OpenTelemetry instrumentation to a gateway.
// The hook is installed via [rfbridge.Gateway.SetCallHook].
func InstrumentGateway(g *rfbridge.Gateway, cfg Config) {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "RasterEngine"
	}
	g.SetCallHook(NewHook(cfg))
}

// NewHook builds a CallHook with the given configuration. Most callers use
// [InstrumentGateway] instead.
func NewHook(cfg Config) rfbridge.CallHook {
	hook := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}
	if cfg.EnableMetrics && cfg.MeterProvider != nil {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		hook.callCounter, _ = meter.Int64Counter("rpc.client.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of engine calls"),
		)
		hook.durationHistogram, _ = meter.Float64Histogram("rpc.client.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of engine calls"),
		)
	}
	return hook
}

// otelHook implements rfbridge.CallHook with OpenTelemetry tracing and metrics.
type otelHook struct {
	cfg               Config
	tracer            trace.Tracer
	callCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// spanToken is the HookToken returned by OnCallStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnCallStart starts a client span and injects its context into the
// outgoing request metadata.
func (h *otelHook) OnCallStart(ctx context.Context, info rfbridge.CallInfo) (context.Context, rfbridge.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "rf_bridge"),
		attribute.String("rpc.service", h.cfg.ServiceName),
		attribute.String("rpc.method", info.Method),
		attribute.String("rpc.rf_bridge.request_id", info.RequestID),
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("rf_bridge/%s", info.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	if h.cfg.Propagator != nil && info.Metadata != nil {
		h.cfg.Propagator.Inject(ctx, propagation.MapCarrier(info.Metadata))
	}

	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnCallEnd records span attributes, metrics, and ends the span.
func (h *otelHook) OnCallEnd(ctx context.Context, token rfbridge.HookToken, info rfbridge.CallInfo, stats *rfbridge.CallStatistics, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("rpc.system", "rf_bridge"),
			attribute.String("rpc.service", h.cfg.ServiceName),
			attribute.String("rpc.method", info.Method),
			attribute.String("status", status),
		)
		if h.callCounter != nil {
			h.callCounter.Add(ctx, 1, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), metricAttrs)
		}
	}

	if st.span != nil && st.span.IsRecording() {
		if stats != nil {
			st.span.SetAttributes(
				attribute.Int64("rpc.rf_bridge.sent_batches", stats.SentBatches),
				attribute.Int64("rpc.rf_bridge.received_batches", stats.ReceivedBatches),
				attribute.Int64("rpc.rf_bridge.sent_rows", stats.SentRows),
				attribute.Int64("rpc.rf_bridge.received_rows", stats.ReceivedRows),
				attribute.Int64("rpc.rf_bridge.sent_bytes", stats.SentBytes),
				attribute.Int64("rpc.rf_bridge.received_bytes", stats.ReceivedBytes),
			)
		}

		if err != nil {
			st.span.SetStatus(codes.Error, err.Error())
			if h.cfg.RecordExceptions {
				st.span.RecordError(err)
			}
			errType := fmt.Sprintf("%T", err)
			if rce, ok := err.(*rfbridge.RemoteCallError); ok {
				errType = rce.Type
			}
			st.span.SetAttributes(attribute.String("rpc.rf_bridge.error_type", errType))
		} else {
			st.span.SetStatus(codes.Ok, "")
		}

		st.span.End()
	}
}
