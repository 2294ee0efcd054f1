// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"net"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	rw := startEngine(t, func(req *ParsedRequest) (any, []LogMessage, error) {
		return "spatial_key", nil, nil
	})

	session := Connect(rw)
	require.NotNil(t, session.Gateway())

	col, err := session.Engine().SpatialKeyColumn(context.Background(), "frame-0")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef("spatial_key"), col)

	// Connect does not take ownership of the transport.
	assert.NoError(t, session.Close())
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			req, err := ReadRequest(conn)
			if err != nil {
				return
			}
			req.Batch.Release()
			if err := WriteResponse(conn, "ok", nil, "tcp-engine", req.RequestID); err != nil {
				return
			}
		}
	}()

	session, err := Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer session.Close()

	md, err := session.Engine().TileLayerMetadata(context.Background(), "frame-0")
	require.NoError(t, err)
	assert.Equal(t, "ok", md)
}

func TestDialError(t *testing.T) {
	_, err := Dial("tcp", "127.0.0.1:1")
	require.Error(t, err)
}

func TestBindActive(t *testing.T) {
	Unbind()
	_, err := Active()
	assert.ErrorIs(t, err, ErrNoActiveContext)

	session := NewContext(&fakeEngine{})
	Bind(session)
	defer Unbind()

	got, err := Active()
	require.NoError(t, err)
	assert.Same(t, session, got)

	Unbind()
	_, err = Active()
	assert.ErrorIs(t, err, ErrNoActiveContext)
}

func TestDescribe(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	go func() {
		req, err := ReadRequest(server)
		if err != nil {
			return
		}
		req.Batch.Release()
		if req.Method != "__describe__" {
			WriteErrorResponse(server, &RemoteCallError{Type: "NoSuchMethodError", Message: req.Method}, "", req.RequestID)
			return
		}

		mem := memory.NewGoAllocator()
		schema := arrow.NewSchema([]arrow.Field{
			{Name: "name", Type: arrow.BinaryTypes.String},
			{Name: "method_type", Type: arrow.BinaryTypes.String},
			{Name: "doc", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "has_return", Type: arrow.FixedWidthTypes.Boolean},
		}, nil)

		nameBuilder := array.NewStringBuilder(mem)
		defer nameBuilder.Release()
		typeBuilder := array.NewStringBuilder(mem)
		defer typeBuilder.Release()
		docBuilder := array.NewStringBuilder(mem)
		defer docBuilder.Release()
		returnBuilder := array.NewBooleanBuilder(mem)
		defer returnBuilder.Release()

		nameBuilder.AppendValues([]string{"tileColumns", "mlSetInputCols"}, nil)
		typeBuilder.AppendValues([]string{"unary", "unary"}, nil)
		docBuilder.Append("Lists tile columns.")
		docBuilder.AppendNull()
		returnBuilder.AppendValues([]bool{true, false}, nil)

		cols := []arrow.Array{
			nameBuilder.NewArray(),
			typeBuilder.NewArray(),
			docBuilder.NewArray(),
			returnBuilder.NewArray(),
		}
		for _, c := range cols {
			defer c.Release()
		}
		batch := array.NewRecordBatch(schema, cols, 2)
		defer batch.Release()

		w := ipc.NewWriter(server, ipc.WithSchema(schema))
		defer w.Close()
		w.Write(batch)
	}()

	session := Connect(client)
	methods, err := session.Describe(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 2)

	assert.Equal(t, "tileColumns", methods[0].Name)
	assert.Equal(t, "unary", methods[0].MethodType)
	assert.Equal(t, "Lists tile columns.", methods[0].Doc)
	assert.True(t, methods[0].HasReturn)

	assert.Equal(t, "mlSetInputCols", methods[1].Name)
	assert.Empty(t, methods[1].Doc)
	assert.False(t, methods[1].HasReturn)
}

func TestDescribeNoGateway(t *testing.T) {
	session := NewContext(&fakeEngine{})
	_, err := session.Describe(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveContext)
}
