// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
)

// CallHook provides observability callpoints around gateway calls.
// Implementations must be safe for concurrent use.
type CallHook interface {
	OnCallStart(ctx context.Context, info CallInfo) (context.Context, HookToken)
	OnCallEnd(ctx context.Context, token HookToken, info CallInfo, stats *CallStatistics, err error)
}

// HookToken is an opaque value returned by OnCallStart and passed back to
// OnCallEnd. Only meaningful to the CallHook that created it.
type HookToken interface{}

// CallInfo carries per-call metadata passed to hooks. Metadata is attached
// to the outgoing request's custom metadata; OnCallStart may add entries
// (e.g. trace context) before the request is written.
type CallInfo struct {
	Method    string
	RequestID string
	Metadata  map[string]string
}

// CallStatistics holds per-call I/O counters.
type CallStatistics struct {
	SentBatches     int64
	ReceivedBatches int64
	SentRows        int64
	ReceivedRows    int64
	SentBytes       int64
	ReceivedBytes   int64
}

// RecordSent records one outgoing batch with the given row count and buffer size.
func (s *CallStatistics) RecordSent(numRows, bufferBytes int64) {
	s.SentBatches++
	s.SentRows += numRows
	s.SentBytes += bufferBytes
}

// RecordReceived records one incoming batch with the given row count and buffer size.
func (s *CallStatistics) RecordReceived(numRows, bufferBytes int64) {
	s.ReceivedBatches++
	s.ReceivedRows += numRows
	s.ReceivedBytes += bufferBytes
}

// batchBufferSize returns the total top-level buffer size in bytes across all
// columns in a record batch.
func batchBufferSize(batch arrow.RecordBatch) int64 {
	var total int64
	for i := int64(0); i < batch.NumCols(); i++ {
		col := batch.Column(int(i))
		for _, buf := range col.Data().Buffers() {
			if buf != nil {
				total += int64(buf.Len())
			}
		}
	}
	return total
}
