// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package rfbridge

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowSerializable is the interface for Go types that carry their own Arrow
// schema. At the method parameter level these are serialized as binary
// (embedded IPC stream bytes); nested inside another ArrowSerializable they
// become Arrow struct columns. Fields are mapped to columns via `arrow`
// struct tags.
type ArrowSerializable interface {
	ArrowSchema() *arrow.Schema
}

var arrowSerializableType = reflect.TypeOf((*ArrowSerializable)(nil)).Elem()

// tagInfo holds parsed information from an `rfbridge` struct tag.
type tagInfo struct {
	Name      string
	ArrowType string // explicit type override: "int16", "int32", "float32", "binary"
}

// parseTag parses an rfbridge struct tag like "name" or "name,int32".
func parseTag(tag string) tagInfo {
	parts := strings.Split(tag, ",")
	info := tagInfo{Name: parts[0]}
	if len(parts) > 1 {
		info.ArrowType = parts[1]
	}
	return info
}

// goTypeToArrowType maps a Go reflect.Type to an Arrow DataType. The tag
// provides narrowing hints (e.g. "int16", "float32", "binary").
func goTypeToArrowType(t reflect.Type, tag tagInfo) (arrow.DataType, bool, error) {
	nullable := false
	if t.Kind() == reflect.Ptr {
		nullable = true
		t = t.Elem()
	}

	switch tag.ArrowType {
	case "int16":
		return arrow.PrimitiveTypes.Int16, nullable, nil
	case "int32":
		return arrow.PrimitiveTypes.Int32, nullable, nil
	case "float32":
		return arrow.PrimitiveTypes.Float32, nullable, nil
	case "binary":
		return arrow.BinaryTypes.Binary, nullable, nil
	}

	// ArrowSerializable values become IPC stream bytes at this level.
	if t.Implements(arrowSerializableType) || reflect.PointerTo(t).Implements(arrowSerializableType) {
		return arrow.BinaryTypes.Binary, nullable, nil
	}

	switch t.Kind() {
	case reflect.String:
		return arrow.BinaryTypes.String, nullable, nil
	case reflect.Int64, reflect.Int:
		return arrow.PrimitiveTypes.Int64, nullable, nil
	case reflect.Int32:
		return arrow.PrimitiveTypes.Int32, nullable, nil
	case reflect.Int16:
		return arrow.PrimitiveTypes.Int16, nullable, nil
	case reflect.Float64:
		return arrow.PrimitiveTypes.Float64, nullable, nil
	case reflect.Float32:
		return arrow.PrimitiveTypes.Float32, nullable, nil
	case reflect.Bool:
		return &arrow.BooleanType{}, nullable, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return arrow.BinaryTypes.Binary, nullable, nil
		}
		elemType, _, err := goTypeToArrowType(t.Elem(), tagInfo{})
		if err != nil {
			return nil, false, fmt.Errorf("list element: %w", err)
		}
		return arrow.ListOf(elemType), nullable, nil
	case reflect.Struct:
		st, err := structOfFromTags(t)
		if err != nil {
			return nil, false, err
		}
		return st, nullable, nil
	default:
		return nil, false, fmt.Errorf("unsupported Go type: %v (kind: %v)", t, t.Kind())
	}
}

// structOfFromTags builds an Arrow struct type from a Go struct's `arrow` tags.
func structOfFromTags(t reflect.Type) (*arrow.StructType, error) {
	var fields []arrow.Field
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("arrow")
		if tag == "" {
			continue
		}
		dt, nullable, err := goTypeToArrowType(f.Type, tagInfo{})
		if err != nil {
			return nil, fmt.Errorf("struct field %s: %w", tag, err)
		}
		fields = append(fields, arrow.Field{Name: tag, Type: dt, Nullable: nullable})
	}
	return arrow.StructOf(fields...), nil
}

// structToSchema builds an Arrow schema from a Go struct type using rfbridge tags.
func structToSchema(t reflect.Type) (*arrow.Schema, error) {
	if t == nil {
		return arrow.NewSchema(nil, nil), nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %v", t.Kind())
	}
	var fields []arrow.Field
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("rfbridge")
		if tag == "" || tag == "-" {
			continue
		}
		info := parseTag(tag)
		arrowType, nullable, err := goTypeToArrowType(f.Type, info)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields = append(fields, arrow.Field{Name: info.Name, Type: arrowType, Nullable: nullable})
	}
	return arrow.NewSchema(fields, nil), nil
}

// resultSchema builds the single-column Arrow schema for a result type.
func resultSchema(t reflect.Type) (*arrow.Schema, error) {
	if t == nil {
		return arrow.NewSchema(nil, nil), nil
	}
	if t.Implements(arrowSerializableType) || reflect.PointerTo(t).Implements(arrowSerializableType) {
		return arrow.NewSchema([]arrow.Field{
			{Name: "result", Type: arrow.BinaryTypes.Binary, Nullable: false},
		}, nil), nil
	}
	arrowType, nullable, err := goTypeToArrowType(t, tagInfo{})
	if err != nil {
		return nil, fmt.Errorf("result type: %w", err)
	}
	return arrow.NewSchema([]arrow.Field{
		{Name: "result", Type: arrowType, Nullable: nullable},
	}, nil), nil
}

// buildParamsRecord builds the single-row parameter batch for a request.
// A nil params value produces an empty, zero-row batch.
func buildParamsRecord(params any) (*arrow.Schema, arrow.RecordBatch, error) {
	if params == nil {
		schema := arrow.NewSchema(nil, nil)
		return schema, array.NewRecordBatch(schema, nil, 0), nil
	}

	t := reflect.TypeOf(params)
	schema, err := structToSchema(t)
	if err != nil {
		return nil, nil, err
	}

	rv := reflect.ValueOf(params)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	rt := rv.Type()

	mem := memory.NewGoAllocator()
	cols := make([]arrow.Array, 0, schema.NumFields())
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}

	ci := 0
	for i := range rt.NumField() {
		f := rt.Field(i)
		tag := f.Tag.Get("rfbridge")
		if tag == "" || tag == "-" {
			continue
		}
		arr, err := buildArray(mem, schema.Field(ci).Type, rv.Field(i).Interface())
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("param %s: %w", parseTag(tag).Name, err)
		}
		cols = append(cols, arr)
		ci++
	}

	rows := int64(1)
	if len(cols) == 0 {
		rows = 0
	}
	batch := array.NewRecordBatch(schema, cols, rows)
	release()
	return schema, batch, nil
}

// newResultBatch builds a one-row record batch with a single "result" column.
func newResultBatch(schema *arrow.Schema, value any) (arrow.RecordBatch, error) {
	mem := memory.NewGoAllocator()

	if schema.NumFields() == 0 {
		return array.NewRecordBatch(schema, nil, 0), nil
	}

	field := schema.Field(0)
	arr, err := buildArray(mem, field.Type, value)
	if err != nil {
		return nil, fmt.Errorf("serialize result: %w", err)
	}
	defer arr.Release()

	return array.NewRecordBatch(schema, []arrow.Array{arr}, 1), nil
}

// buildArray creates a 1-element Arrow array from a Go value.
func buildArray(mem memory.Allocator, dt arrow.DataType, value any) (arrow.Array, error) {
	if value == nil {
		return buildNullArray(mem, dt), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return buildNullArray(mem, dt), nil
		}
		value = rv.Elem().Interface()
		rv = reflect.ValueOf(value)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return buildNullArray(mem, dt), nil
	}

	switch dt.ID() {
	case arrow.STRING:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Append(fmt.Sprintf("%v", value))
		return b.NewArray(), nil

	case arrow.INT64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		v, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		b.Append(v)
		return b.NewArray(), nil

	case arrow.INT32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		v, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		b.Append(int32(v))
		return b.NewArray(), nil

	case arrow.INT16:
		b := array.NewInt16Builder(mem)
		defer b.Release()
		v, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		b.Append(int16(v))
		return b.NewArray(), nil

	case arrow.FLOAT64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		v, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		b.Append(v)
		return b.NewArray(), nil

	case arrow.FLOAT32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		v, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		b.Append(float32(v))
		return b.NewArray(), nil

	case arrow.BOOL:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.Append(value.(bool))
		return b.NewArray(), nil

	case arrow.BINARY:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		defer b.Release()
		if as, ok := value.(ArrowSerializable); ok {
			data, err := marshalArrowIPC(as)
			if err != nil {
				return nil, err
			}
			b.Append(data)
		} else {
			b.Append(value.([]byte))
		}
		return b.NewArray(), nil

	case arrow.LIST:
		return buildListArray(mem, dt.(*arrow.ListType), rv)

	case arrow.STRUCT:
		return buildStructArray(mem, dt.(*arrow.StructType), rv)

	default:
		return nil, fmt.Errorf("unsupported Arrow type for serialization: %v", dt)
	}
}

func buildNullArray(mem memory.Allocator, dt arrow.DataType) arrow.Array {
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	b.AppendNull()
	return b.NewArray()
}

func buildListArray(mem memory.Allocator, lt *arrow.ListType, rv reflect.Value) (arrow.Array, error) {
	lb := array.NewListBuilder(mem, lt.Elem())
	defer lb.Release()

	lb.Append(true)
	vb := lb.ValueBuilder()
	for i := range rv.Len() {
		if err := appendToBuilder(vb, lt.Elem(), rv.Index(i).Interface()); err != nil {
			return nil, fmt.Errorf("list element [%d]: %w", i, err)
		}
	}
	return lb.NewArray(), nil
}

func buildStructArray(mem memory.Allocator, st *arrow.StructType, rv reflect.Value) (arrow.Array, error) {
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	rt := rv.Type()

	sb := array.NewStructBuilder(mem, st)
	defer sb.Release()
	sb.Append(true)
	for i := range st.NumFields() {
		fb := sb.FieldBuilder(i)
		if err := appendToBuilder(fb, st.Field(i).Type, getFieldValue(rv, rt, st.Field(i).Name)); err != nil {
			return nil, fmt.Errorf("struct field %s: %w", st.Field(i).Name, err)
		}
	}
	return sb.NewArray(), nil
}

// getFieldValue finds a Go struct field value by arrow tag name.
func getFieldValue(rv reflect.Value, rt reflect.Type, arrowName string) any {
	for i := range rt.NumField() {
		if rt.Field(i).Tag.Get("arrow") == arrowName {
			return rv.Field(i).Interface()
		}
	}
	return nil
}

// appendToBuilder appends a single value to an Arrow array builder.
func appendToBuilder(b array.Builder, dt arrow.DataType, value any) error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			b.AppendNull()
			return nil
		}
		value = rv.Elem().Interface()
		rv = reflect.ValueOf(value)
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		b.AppendNull()
		return nil
	}

	switch dt.ID() {
	case arrow.STRING:
		b.(*array.StringBuilder).Append(fmt.Sprintf("%v", value))
	case arrow.INT64:
		v, err := toInt64(value)
		if err != nil {
			return err
		}
		b.(*array.Int64Builder).Append(v)
	case arrow.INT32:
		v, err := toInt64(value)
		if err != nil {
			return err
		}
		b.(*array.Int32Builder).Append(int32(v))
	case arrow.INT16:
		v, err := toInt64(value)
		if err != nil {
			return err
		}
		b.(*array.Int16Builder).Append(int16(v))
	case arrow.FLOAT64:
		v, err := toFloat64(value)
		if err != nil {
			return err
		}
		b.(*array.Float64Builder).Append(v)
	case arrow.FLOAT32:
		v, err := toFloat64(value)
		if err != nil {
			return err
		}
		b.(*array.Float32Builder).Append(float32(v))
	case arrow.BOOL:
		b.(*array.BooleanBuilder).Append(value.(bool))
	case arrow.BINARY:
		if as, ok := value.(ArrowSerializable); ok {
			data, err := marshalArrowIPC(as)
			if err != nil {
				return err
			}
			b.(*array.BinaryBuilder).Append(data)
		} else {
			b.(*array.BinaryBuilder).Append(value.([]byte))
		}
	case arrow.LIST:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		vb := lb.ValueBuilder()
		for i := range rv.Len() {
			if err := appendToBuilder(vb, dt.(*arrow.ListType).Elem(), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case arrow.STRUCT:
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		structType := dt.(*arrow.StructType)
		if rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		rt := rv.Type()
		for ci := range structType.NumFields() {
			sf := structType.Field(ci)
			fb := sb.FieldBuilder(ci)
			found := false
			for fi := range rt.NumField() {
				if rt.Field(fi).Tag.Get("arrow") == sf.Name {
					if err := appendToBuilder(fb, sf.Type, rv.Field(fi).Interface()); err != nil {
						return fmt.Errorf("struct field %s: %w", sf.Name, err)
					}
					found = true
					break
				}
			}
			if !found {
				fb.AppendNull()
			}
		}
	default:
		return fmt.Errorf("unsupported type in appendToBuilder: %v", dt)
	}
	return nil
}

// unmarshalParams reads row 0 from a parameter batch into a Go struct.
// Used by the response-writing half of the wire layer to decode requests.
func unmarshalParams(batch arrow.RecordBatch, into any) error {
	rv := reflect.ValueOf(into)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("params target must be a non-nil pointer, got %T", into)
	}
	target := rv.Elem()
	rt := target.Type()
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("params target must point to a struct, got %v", rt.Kind())
	}

	for i := range rt.NumField() {
		f := rt.Field(i)
		tag := f.Tag.Get("rfbridge")
		if tag == "" || tag == "-" {
			continue
		}
		info := parseTag(tag)

		colIdx := -1
		for ci := range batch.NumCols() {
			if batch.ColumnName(int(ci)) == info.Name {
				colIdx = int(ci)
				break
			}
		}
		if colIdx == -1 {
			continue
		}

		col := batch.Column(colIdx)
		if col.IsNull(0) {
			continue
		}
		if err := setFieldFromArrow(target.Field(i), f.Type, col, 0); err != nil {
			return fmt.Errorf("field %s: %w", info.Name, err)
		}
	}
	return nil
}

// unmarshalResult decodes the "result" column of a response batch into the
// pointed-to Go value. A nil or column-less batch is a void result and
// leaves the target at its zero value, as does a null result cell.
func unmarshalResult(batch arrow.RecordBatch, into any) error {
	rv := reflect.ValueOf(into)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("result target must be a non-nil pointer, got %T", into)
	}
	if batch == nil || batch.Schema().NumFields() == 0 {
		return nil
	}

	colIdx := -1
	for ci := range batch.NumCols() {
		if batch.ColumnName(int(ci)) == "result" {
			colIdx = int(ci)
			break
		}
	}
	if colIdx == -1 {
		return fmt.Errorf("response batch has no result column")
	}
	if batch.NumRows() != 1 {
		return fmt.Errorf("expected 1 row in result batch, got %d", batch.NumRows())
	}

	col := batch.Column(colIdx)
	if col.IsNull(0) {
		return nil
	}
	return setFieldFromArrow(rv.Elem(), rv.Elem().Type(), col, 0)
}

// setFieldFromArrow sets a Go value from an Arrow array at index idx.
func setFieldFromArrow(field reflect.Value, fieldType reflect.Type, col arrow.Array, idx int) error {
	isPtr := fieldType.Kind() == reflect.Ptr
	if isPtr {
		fieldType = fieldType.Elem()
	}

	if fieldType.Implements(arrowSerializableType) || reflect.PointerTo(fieldType).Implements(arrowSerializableType) {
		switch c := col.(type) {
		case *array.Binary:
			val, err := unmarshalArrowIPC(fieldType, c.Value(idx))
			if err != nil {
				return err
			}
			if isPtr {
				ptr := reflect.New(fieldType)
				ptr.Elem().Set(val)
				field.Set(ptr)
			} else {
				field.Set(val)
			}
			return nil
		case *array.Struct:
			return setStructField(field, fieldType, isPtr, c, idx)
		default:
			return fmt.Errorf("expected Binary or Struct array for ArrowSerializable, got %T", col)
		}
	}

	switch c := col.(type) {
	case *array.String:
		setStringField(field, fieldType, isPtr, c.Value(idx))
	case *array.Int64:
		setIntField(field, fieldType, isPtr, c.Value(idx))
	case *array.Int32:
		setIntField(field, fieldType, isPtr, int64(c.Value(idx)))
	case *array.Int16:
		setIntField(field, fieldType, isPtr, int64(c.Value(idx)))
	case *array.Float64:
		setFloatField(field, fieldType, isPtr, c.Value(idx))
	case *array.Float32:
		setFloatField(field, fieldType, isPtr, float64(c.Value(idx)))
	case *array.Boolean:
		setBoolField(field, fieldType, isPtr, c.Value(idx))
	case *array.Binary:
		val := append([]byte(nil), c.Value(idx)...)
		if isPtr {
			ptr := reflect.New(fieldType)
			ptr.Elem().SetBytes(val)
			field.Set(ptr)
		} else {
			field.SetBytes(val)
		}
	case *array.List:
		return setListField(field, fieldType, isPtr, c, idx)
	case *array.Struct:
		return setStructField(field, fieldType, isPtr, c, idx)
	default:
		return fmt.Errorf("unsupported Arrow array type: %T", col)
	}
	return nil
}

func setStringField(field reflect.Value, fieldType reflect.Type, isPtr bool, val string) {
	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().SetString(val)
		field.Set(ptr)
	} else {
		field.SetString(val)
	}
}

func setIntField(field reflect.Value, fieldType reflect.Type, isPtr bool, val int64) {
	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().SetInt(val)
		field.Set(ptr)
	} else {
		field.SetInt(val)
	}
}

func setFloatField(field reflect.Value, fieldType reflect.Type, isPtr bool, val float64) {
	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().SetFloat(val)
		field.Set(ptr)
	} else {
		field.SetFloat(val)
	}
}

func setBoolField(field reflect.Value, fieldType reflect.Type, isPtr bool, val bool) {
	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().SetBool(val)
		field.Set(ptr)
	} else {
		field.SetBool(val)
	}
}

func setListField(field reflect.Value, fieldType reflect.Type, isPtr bool, listArr *array.List, idx int) error {
	start, end := listArr.ValueOffsets(idx)
	values := listArr.ListValues()
	length := int(end - start)

	if isPtr {
		fieldType = fieldType.Elem()
	}

	slice := reflect.MakeSlice(fieldType, length, length)
	for j := 0; j < length; j++ {
		if err := setFieldFromArrow(slice.Index(j), fieldType.Elem(), values, int(start)+j); err != nil {
			return fmt.Errorf("list element [%d]: %w", j, err)
		}
	}

	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().Set(slice)
		field.Set(ptr)
	} else {
		field.Set(slice)
	}
	return nil
}

func setStructField(field reflect.Value, fieldType reflect.Type, isPtr bool, structArr *array.Struct, idx int) error {
	// fieldType is already dereferenced by the caller.
	result := reflect.New(fieldType).Elem()
	structType := structArr.DataType().(*arrow.StructType)

	for fi := range fieldType.NumField() {
		goField := fieldType.Field(fi)
		arrowTag := goField.Tag.Get("arrow")
		if arrowTag == "" {
			continue
		}

		childIdx := -1
		for ci := range structType.NumFields() {
			if structType.Field(ci).Name == arrowTag {
				childIdx = ci
				break
			}
		}
		if childIdx == -1 {
			continue
		}

		childArr := structArr.Field(childIdx)
		if childArr.IsNull(idx) {
			continue
		}
		if err := setFieldFromArrow(result.Field(fi), goField.Type, childArr, idx); err != nil {
			return fmt.Errorf("struct field %s: %w", arrowTag, err)
		}
	}

	if isPtr {
		ptr := reflect.New(fieldType)
		ptr.Elem().Set(result)
		field.Set(ptr)
	} else {
		field.Set(result)
	}
	return nil
}

// marshalArrowIPC converts an ArrowSerializable value to IPC stream bytes.
func marshalArrowIPC(as ArrowSerializable) ([]byte, error) {
	schema := as.ArrowSchema()
	mem := memory.NewGoAllocator()

	rv := reflect.ValueOf(as)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	rt := rv.Type()

	cols := make([]arrow.Array, schema.NumFields())
	for i := range schema.NumFields() {
		f := schema.Field(i)
		arr, err := buildArray(mem, f.Type, getFieldValue(rv, rt, f.Name))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		cols[i] = arr
		defer cols[i].Release()
	}

	batch := array.NewRecordBatch(schema, cols, 1)
	defer batch.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := w.Write(batch); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalArrowIPC reads IPC stream bytes into an ArrowSerializable Go struct.
func unmarshalArrowIPC(targetType reflect.Type, data []byte) (reflect.Value, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return reflect.Value{}, fmt.Errorf("reading ArrowSerializable IPC: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		return reflect.Value{}, fmt.Errorf("no batch in ArrowSerializable IPC stream")
	}
	batch := reader.RecordBatch()

	result := reflect.New(targetType).Elem()
	for i := range targetType.NumField() {
		f := targetType.Field(i)
		tag := f.Tag.Get("arrow")
		if tag == "" {
			continue
		}

		colIdx := -1
		for ci := range batch.NumCols() {
			if batch.ColumnName(int(ci)) == tag {
				colIdx = int(ci)
				break
			}
		}
		if colIdx == -1 {
			continue
		}

		col := batch.Column(colIdx)
		if col.IsNull(0) {
			continue
		}
		if err := setFieldFromArrow(result.Field(i), f.Type, col, 0); err != nil {
			return reflect.Value{}, fmt.Errorf("ArrowSerializable field %s: %w", tag, err)
		}
	}
	return result, nil
}

// Numeric conversion helpers

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int8:
		return int64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}
