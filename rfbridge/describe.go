// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// MethodDescription is one entry of the engine's method catalog.
type MethodDescription struct {
	Name       string
	MethodType string
	Doc        string
	HasReturn  bool
}

// Describe asks the engine for its method catalog via the __describe__
// introspection call. It requires a gateway-backed session.
func (c *Context) Describe(ctx context.Context) ([]MethodDescription, error) {
	if c == nil || c.gateway == nil {
		return nil, ErrNoActiveContext
	}

	batch, err := c.gateway.CallRaw(ctx, "__describe__", nil)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, nil
	}
	defer batch.Release()

	col := func(name string) (int, error) {
		for ci := range batch.NumCols() {
			if batch.ColumnName(int(ci)) == name {
				return int(ci), nil
			}
		}
		return 0, fmt.Errorf("describe batch missing %q column", name)
	}

	nameIdx, err := col("name")
	if err != nil {
		return nil, err
	}
	typeIdx, err := col("method_type")
	if err != nil {
		return nil, err
	}
	docIdx, err := col("doc")
	if err != nil {
		return nil, err
	}
	returnIdx, err := col("has_return")
	if err != nil {
		return nil, err
	}

	names, ok := batch.Column(nameIdx).(*array.String)
	if !ok {
		return nil, fmt.Errorf("describe name column is %T, want string", batch.Column(nameIdx))
	}
	types, ok := batch.Column(typeIdx).(*array.String)
	if !ok {
		return nil, fmt.Errorf("describe method_type column is %T, want string", batch.Column(typeIdx))
	}
	docs, ok := batch.Column(docIdx).(*array.String)
	if !ok {
		return nil, fmt.Errorf("describe doc column is %T, want string", batch.Column(docIdx))
	}
	returns, ok := batch.Column(returnIdx).(*array.Boolean)
	if !ok {
		return nil, fmt.Errorf("describe has_return column is %T, want boolean", batch.Column(returnIdx))
	}

	out := make([]MethodDescription, 0, batch.NumRows())
	for i := 0; i < int(batch.NumRows()); i++ {
		md := MethodDescription{
			Name:       names.Value(i),
			MethodType: types.Value(i),
			HasReturn:  returns.Value(i),
		}
		if !docs.IsNull(i) {
			md.Doc = docs.Value(i)
		}
		out = append(out, md)
	}
	return out, nil
}
