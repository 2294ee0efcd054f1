// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"fmt"
	"io"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
)

// Request is one outgoing method invocation on the engine transport.
type Request struct {
	Method    string
	RequestID string
	LogLevel  LogLevel
	// Params is a struct with `rfbridge` tags, or nil for no parameters.
	Params any
	// Metadata carries extra transport metadata (e.g. trace context).
	Metadata map[string]string
	// Compress enables zstd buffer compression on the request stream.
	Compress bool
}

// WriteRequest writes one complete IPC stream for the request: a single
// parameter batch whose custom metadata names the method, protocol version,
// request ID, and log level.
func WriteRequest(w io.Writer, req *Request) error {
	schema, batch, err := buildParamsRecord(req.Params)
	if err != nil {
		return fmt.Errorf("serializing %s params: %w", req.Method, err)
	}
	defer batch.Release()
	return writeRequestBatch(w, req, schema, batch)
}

func writeRequestBatch(w io.Writer, req *Request, schema *arrow.Schema, batch arrow.RecordBatch) error {
	keys := []string{MetaMethod, MetaRequestVersion}
	vals := []string{req.Method, ProtocolVersion}
	if req.RequestID != "" {
		keys = append(keys, MetaRequestID)
		vals = append(vals, req.RequestID)
	}
	if req.LogLevel != "" {
		keys = append(keys, MetaLogLevel)
		vals = append(vals, string(req.LogLevel))
	}
	for k, v := range req.Metadata {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	meta := arrow.NewMetadata(keys, vals)

	batchWithMeta := array.NewRecordBatchWithMetadata(schema, batch.Columns(), batch.NumRows(), meta)
	defer batchWithMeta.Release()

	opts := []ipc.Option{ipc.WithSchema(schema)}
	if req.Compress {
		opts = append(opts, ipc.WithZstd())
	}
	writer := ipc.NewWriter(w, opts...)
	if err := writer.Write(batchWithMeta); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// ReadResponse reads one complete response IPC stream. Log batches are
// relayed to onLog as they arrive; an EXCEPTION batch terminates the read
// with a *RemoteCallError. The returned batch is the data batch of the
// response (retained; the caller must Release it), or nil for a void
// response.
func ReadResponse(r io.Reader, onLog func(LogMessage)) (arrow.RecordBatch, error) {
	reader, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading response IPC stream: %w", err)
	}
	defer reader.Release()

	for reader.Next() {
		batch := reader.RecordBatch()

		var meta arrow.Metadata
		if rb, ok := batch.(arrow.RecordBatchWithMetadata); ok {
			meta = rb.Metadata()
		}

		level, isLog := meta.GetValue(MetaLogLevel)
		if isLog && batch.NumRows() == 0 {
			msg, _ := meta.GetValue(MetaLogMessage)
			if LogLevel(level) == LogException {
				extra, _ := meta.GetValue(MetaLogExtra)
				requestID, _ := meta.GetValue(MetaRequestID)
				drain(reader)
				return nil, parseRemoteError(msg, extra, requestID)
			}
			if onLog != nil {
				onLog(LogMessage{
					Level:   LogLevel(level),
					Message: msg,
					Extras:  logExtras(meta),
				})
			}
			continue
		}

		// A zero-row, zero-field batch is the void-response terminator.
		if batch.NumRows() == 0 && batch.Schema().NumFields() == 0 {
			drain(reader)
			return nil, nil
		}

		// Data batch: keep it alive past the reader and drain to EOS so the
		// transport is clean for the next request.
		batch.Retain()
		drain(reader)
		return batch, nil
	}

	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading response batch: %w", err)
	}
	// A stream of only log batches (or none) is a void response.
	return nil, nil
}

func drain(reader *ipc.Reader) {
	for reader.Next() {
		// discard
	}
}

func logExtras(meta arrow.Metadata) map[string]string {
	raw, ok := meta.GetValue(MetaLogExtra)
	if !ok {
		return nil
	}
	extras := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &extras); err != nil {
		return nil
	}
	return extras
}

// ParsedRequest is the receiving side's view of a request: an in-process
// engine or test double reads these off the transport.
type ParsedRequest struct {
	Method    string
	Version   string
	RequestID string
	LogLevel  LogLevel
	Batch     arrow.RecordBatch
	Metadata  map[string]string
}

// ReadRequest reads one complete request IPC stream and extracts the method
// name, version, and parameter batch. The batch is retained; the caller must
// Release it.
func ReadRequest(r io.Reader) (*ParsedRequest, error) {
	reader, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading request IPC stream: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading request batch: %w", err)
		}
		return nil, io.EOF
	}

	batch := reader.RecordBatch()
	batch.Retain()

	var meta arrow.Metadata
	if rb, ok := batch.(arrow.RecordBatchWithMetadata); ok {
		meta = rb.Metadata()
	}

	method, ok := meta.GetValue(MetaMethod)
	if !ok {
		batch.Release()
		return nil, &RemoteCallError{
			Type:    "ProtocolError",
			Message: "missing 'rf_bridge.method' in request batch custom_metadata",
		}
	}

	version, ok := meta.GetValue(MetaRequestVersion)
	if !ok {
		batch.Release()
		return nil, &RemoteCallError{
			Type:    "VersionError",
			Message: "missing 'rf_bridge.request_version' in request batch custom_metadata",
		}
	}
	if version != ProtocolVersion {
		batch.Release()
		return nil, &RemoteCallError{
			Type:    "VersionError",
			Message: fmt.Sprintf("unsupported request version %q, expected %q", version, ProtocolVersion),
		}
	}

	if batch.Schema().NumFields() > 0 && batch.NumRows() != 1 {
		batch.Release()
		return nil, &RemoteCallError{
			Type:    "ProtocolError",
			Message: fmt.Sprintf("expected 1 row in request batch, got %d", batch.NumRows()),
		}
	}

	requestID, _ := meta.GetValue(MetaRequestID)
	logLevel, _ := meta.GetValue(MetaLogLevel)

	drain(reader)

	metaMap := make(map[string]string)
	for i := range meta.Len() {
		metaMap[meta.Keys()[i]] = meta.Values()[i]
	}

	return &ParsedRequest{
		Method:    method,
		Version:   version,
		RequestID: requestID,
		LogLevel:  LogLevel(logLevel),
		Batch:     batch,
		Metadata:  metaMap,
	}, nil
}

// UnmarshalParams decodes a request parameter batch into a struct with
// `rfbridge` tags.
func UnmarshalParams(batch arrow.RecordBatch, into any) error {
	return unmarshalParams(batch, into)
}

// WriteResponse writes a complete response IPC stream: log batches followed
// by a one-row result batch holding value. A nil value produces a void
// response.
func WriteResponse(w io.Writer, value any, logs []LogMessage, serverID, requestID string) error {
	if value == nil {
		return WriteVoidResponse(w, logs, serverID, requestID)
	}

	schema, err := resultSchema(reflect.TypeOf(value))
	if err != nil {
		return fmt.Errorf("result schema: %w", err)
	}
	batch, err := newResultBatch(schema, value)
	if err != nil {
		return err
	}
	defer batch.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()

	for _, msg := range logs {
		if err := writeLogBatch(writer, schema, msg, serverID, requestID); err != nil {
			return fmt.Errorf("writing log batch: %w", err)
		}
	}
	return writer.Write(batch)
}

// WriteVoidResponse writes a response stream with logs and no result value.
func WriteVoidResponse(w io.Writer, logs []LogMessage, serverID, requestID string) error {
	schema := arrow.NewSchema(nil, nil)
	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()

	for _, msg := range logs {
		if err := writeLogBatch(writer, schema, msg, serverID, requestID); err != nil {
			return fmt.Errorf("writing log batch: %w", err)
		}
	}
	batch := emptyBatch(schema)
	defer batch.Release()
	return writer.Write(batch)
}

// WriteErrorResponse writes a complete response stream containing a single
// EXCEPTION batch for err.
func WriteErrorResponse(w io.Writer, err error, serverID, requestID string) error {
	schema := arrow.NewSchema(nil, nil)
	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()
	return writeErrorBatch(writer, schema, err, serverID, requestID)
}

// emptyBatch creates a zero-row batch with the given schema.
func emptyBatch(schema *arrow.Schema) arrow.RecordBatch {
	mem := memory.NewGoAllocator()
	cols := make([]arrow.Array, schema.NumFields())
	for i, f := range schema.Fields() {
		b := array.NewBuilder(mem, f.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	batch := array.NewRecordBatch(schema, cols, 0)
	for _, c := range cols {
		c.Release()
	}
	return batch
}

// writeLogBatch writes a zero-row batch carrying log metadata.
func writeLogBatch(w *ipc.Writer, schema *arrow.Schema, msg LogMessage, serverID, requestID string) error {
	keys := []string{MetaLogLevel, MetaLogMessage}
	vals := []string{string(msg.Level), msg.Message}

	if len(msg.Extras) > 0 {
		extraJSON, err := json.Marshal(msg.Extras)
		if err != nil {
			extraJSON = []byte(`{}`)
		}
		keys = append(keys, MetaLogExtra)
		vals = append(vals, string(extraJSON))
	}
	if serverID != "" {
		keys = append(keys, MetaServerID)
		vals = append(vals, serverID)
	}
	if requestID != "" {
		keys = append(keys, MetaRequestID)
		vals = append(vals, requestID)
	}

	meta := arrow.NewMetadata(keys, vals)
	batch := emptyBatch(schema)
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(schema, batch.Columns(), 0, meta)
	defer batchWithMeta.Release()

	return w.Write(batchWithMeta)
}

// writeErrorBatch writes a zero-row batch with EXCEPTION-level metadata.
func writeErrorBatch(w *ipc.Writer, schema *arrow.Schema, err error, serverID, requestID string) error {
	keys := []string{MetaLogLevel, MetaLogMessage, MetaLogExtra}
	vals := []string{string(LogException), err.Error(), buildErrorExtra(err)}

	if serverID != "" {
		keys = append(keys, MetaServerID)
		vals = append(vals, serverID)
	}
	if requestID != "" {
		keys = append(keys, MetaRequestID)
		vals = append(vals, requestID)
	}

	meta := arrow.NewMetadata(keys, vals)
	batch := emptyBatch(schema)
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(schema, batch.Columns(), 0, meta)
	defer batchWithMeta.Release()

	return w.Write(batchWithMeta)
}
