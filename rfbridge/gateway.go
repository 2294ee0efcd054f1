// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
)

// Gateway is the single point of entry for cross-runtime calls. It owns one
// transport to the engine process and serializes access to it: the engine
// context is process-wide shared state, so one request-response cycle is in
// flight at a time.
//
// The context passed to Call is consulted before the request is written and
// carried to hooks; it does not cancel transport I/O. A hung remote call
// hangs the caller, by contract.
type Gateway struct {
	mu       sync.Mutex
	rw       io.ReadWriter
	logger   *slog.Logger
	logLevel LogLevel
	compress bool
	hook     CallHook
}

// NewGateway creates a gateway over the given transport, typically a
// net.Conn or the stdio pipes of a spawned engine process.
func NewGateway(rw io.ReadWriter) *Gateway {
	return &Gateway{
		rw:       rw,
		logger:   slog.Default(),
		logLevel: LogWarn,
	}
}

// SetLogger sets the logger that receives engine-directed log batches.
func (g *Gateway) SetLogger(logger *slog.Logger) {
	g.logger = logger
}

// SetLogLevel sets the minimum severity of remote log messages requested
// from the engine.
func (g *Gateway) SetLogLevel(level LogLevel) {
	g.logLevel = level
}

// SetCompression enables zstd buffer compression on outgoing request streams.
func (g *Gateway) SetCompression(enabled bool) {
	g.compress = enabled
}

// SetCallHook registers a hook called around each gateway call.
func (g *Gateway) SetCallHook(hook CallHook) {
	g.hook = hook
}

// Call invokes the named remote method with params (a struct with `rfbridge`
// tags, or nil) and decodes the result into result (a non-nil pointer, or
// nil to discard). Remote failures and transport failures surface as
// *RemoteCallError; neither is retried.
func (g *Gateway) Call(ctx context.Context, method string, params, result any) error {
	if g == nil || g.rw == nil {
		return ErrNoActiveContext
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	info := CallInfo{
		Method:    method,
		RequestID: uuid.NewString(),
		Metadata:  make(map[string]string),
	}
	stats := &CallStatistics{}
	ctx, hookToken, hookActive := g.hookStart(ctx, info)

	g.mu.Lock()
	batch, err := g.roundTrip(method, info.RequestID, info.Metadata, params, stats)
	g.mu.Unlock()

	if err == nil && result != nil {
		err = unmarshalResult(batch, result)
	}
	if batch != nil {
		batch.Release()
	}

	if hookActive {
		g.hookEnd(ctx, hookToken, info, stats, err)
	}
	return err
}

// CallRaw invokes a remote method and returns the raw response batch
// (retained; the caller must Release it). Used for responses that are not
// the unary single-row result shape, such as introspection.
func (g *Gateway) CallRaw(ctx context.Context, method string, params any) (arrow.RecordBatch, error) {
	if g == nil || g.rw == nil {
		return nil, ErrNoActiveContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := CallInfo{
		Method:    method,
		RequestID: uuid.NewString(),
		Metadata:  make(map[string]string),
	}
	stats := &CallStatistics{}
	ctx, hookToken, hookActive := g.hookStart(ctx, info)

	g.mu.Lock()
	batch, err := g.roundTrip(method, info.RequestID, info.Metadata, params, stats)
	g.mu.Unlock()

	if hookActive {
		g.hookEnd(ctx, hookToken, info, stats, err)
	}
	return batch, err
}

// hookStart invokes OnCallStart panic-safe. The returned context replaces the
// caller's when the hook supplies one.
func (g *Gateway) hookStart(ctx context.Context, info CallInfo) (context.Context, HookToken, bool) {
	if g.hook == nil {
		return ctx, nil, false
	}
	var token HookToken
	active := false
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				g.logger.Error("call hook start panic", "err", rv)
			}
		}()
		hookCtx, t := g.hook.OnCallStart(ctx, info)
		token = t
		if hookCtx != nil {
			ctx = hookCtx
		}
		active = true
	}()
	return ctx, token, active
}

// hookEnd invokes OnCallEnd panic-safe.
func (g *Gateway) hookEnd(ctx context.Context, token HookToken, info CallInfo, stats *CallStatistics, err error) {
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				g.logger.Error("call hook end panic", "err", rv)
			}
		}()
		g.hook.OnCallEnd(ctx, token, info, stats, err)
	}()
}

// roundTrip performs one request-response cycle. Callers hold g.mu.
func (g *Gateway) roundTrip(method, requestID string, metadata map[string]string,
	params any, stats *CallStatistics) (arrow.RecordBatch, error) {

	schema, paramsBatch, err := buildParamsRecord(params)
	if err != nil {
		return nil, &RemoteCallError{
			Method:    method,
			Type:      "SerializationError",
			Message:   err.Error(),
			RequestID: requestID,
		}
	}
	stats.RecordSent(paramsBatch.NumRows(), batchBufferSize(paramsBatch))

	req := &Request{
		Method:    method,
		RequestID: requestID,
		LogLevel:  g.logLevel,
		Metadata:  metadata,
		Compress:  g.compress,
	}
	writeErr := writeRequestBatch(g.rw, req, schema, paramsBatch)
	paramsBatch.Release()
	if writeErr != nil {
		return nil, &RemoteCallError{
			Method:    method,
			Type:      "TransportError",
			Message:   writeErr.Error(),
			RequestID: requestID,
		}
	}

	batch, err := ReadResponse(g.rw, func(msg LogMessage) {
		g.relayLog(method, msg)
	})
	if err != nil {
		if rce, ok := err.(*RemoteCallError); ok {
			if rce.Method == "" {
				rce.Method = method
			}
			if rce.RequestID == "" {
				rce.RequestID = requestID
			}
			return nil, rce
		}
		return nil, &RemoteCallError{
			Method:    method,
			Type:      "TransportError",
			Message:   err.Error(),
			RequestID: requestID,
		}
	}
	if batch != nil {
		stats.RecordReceived(batch.NumRows(), batchBufferSize(batch))
	}
	return batch, nil
}

// relayLog forwards an engine-directed log batch to the process logger.
// Engines are asked to filter by level, but not all of them do.
func (g *Gateway) relayLog(method string, msg LogMessage) {
	if logLevelPriority(msg.Level) > logLevelPriority(g.logLevel) {
		return
	}
	attrs := make([]any, 0, 2+2*len(msg.Extras))
	attrs = append(attrs, "method", method)
	for k, v := range msg.Extras {
		attrs = append(attrs, k, v)
	}
	g.logger.Log(context.Background(), slogLevel(msg.Level), msg.Message, attrs...)
}
