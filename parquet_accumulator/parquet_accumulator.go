package parquet_accumulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/danthegoodman1/fedb/comparison"
	"github.com/danthegoodman1/fedb/engine"
)

type (
	// ParquetSchemaAccumulator derives a parquet schema from a table schema.
	// Table fields become lists whose element type is taken from the first
	// non-empty list seen by WriteRow.
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"

	ErrNestedTable = errors.New("nested table fields cannot be written to parquet")
)

func NewParquetAccumulator(schema *engine.Schema) (*ParquetSchemaAccumulator, error) {
	pa := &ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
	for _, name := range schema.Fields() {
		spec, _ := schema.Spec(name)
		field := &ParquetSchema{
			TagStructs: SchemaTag{
				Name:           name,
				RepetitionType: Optional,
			},
		}
		switch spec.Type {
		case engine.Number:
			setDouble(field)
		case engine.String, engine.Image:
			setString(field)
		case engine.Enum:
			if comparison.IsNumber(spec.Values[0]) {
				setDouble(field)
			} else {
				setString(field)
			}
		case engine.TableType:
			if spec.Nested {
				return nil, fmt.Errorf("%w: %s", ErrNestedTable, name)
			}
			field.TagStructs.Type = "LIST"
		}
		pa.schema.Fields = append(pa.schema.Fields, field)
	}
	return pa, nil
}

func setDouble(s *ParquetSchema) {
	s.TagStructs.Type = "DOUBLE"
}

func setString(s *ParquetSchema) {
	s.TagStructs.Type = "BYTE_ARRAY"
	s.TagStructs.ConvertedType = "UTF8"
	s.TagStructs.Encoding = "PLAIN"
}

// WriteRow fills in list element types that are still unknown.
func (pa *ParquetSchemaAccumulator) WriteRow(row engine.Record) {
	for _, field := range pa.schema.Fields {
		if field.TagStructs.Type != "LIST" || len(field.Fields) > 0 {
			continue
		}
		if elem := pa.getElementSchema(row[field.TagStructs.Name]); elem != nil {
			field.Fields = append(field.Fields, elem)
		}
	}
}

// getElementSchema returns the element schema for the first item of a list,
// or nil when the list is empty.
func (pa *ParquetSchemaAccumulator) getElementSchema(item any) *ParquetSchema {
	if item == nil {
		return nil
	}
	val := reflect.ValueOf(item)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return nil
	}
	if val.Len() == 0 {
		return nil
	}
	schema := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           "element",
			RepetitionType: Required,
		},
	}
	if _, isStr := val.Index(0).Interface().(string); isStr {
		setString(schema)
	} else {
		// ids are numbers unless they are strings
		setDouble(schema)
	}
	return schema
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	fields := ps.Fields
	if ps.TagStructs.Type == "LIST" && len(fields) == 0 {
		// no row had a non-empty list, any element type will round trip
		elem := &ParquetSchema{TagStructs: SchemaTag{Name: "element", RepetitionType: Required}}
		setDouble(elem)
		fields = []*ParquetSchema{elem}
	}
	var out []*ParquetJSONSchema
	for _, field := range fields {
		out = append(out, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: out,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	var fields []*ParquetJSONSchema
	for _, field := range pa.schema.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	pjs := ParquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
