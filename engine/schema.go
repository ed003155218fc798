package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/danthegoodman1/fedb/comparison"
)

type (
	// Record is one row of a table.
	Record = map[string]any

	// FieldSpec declares the type and constraints of a single field.
	FieldSpec struct {
		Type   DataType `json:"type"`
		Unique bool     `json:"unique,omitempty"`
		// Values lists the allowed members of an Enum field.
		Values []any `json:"values,omitempty"`
		// Target names the table a Table field points at.
		Target string `json:"target,omitempty"`
		// Nested Table fields hold whole records of the target table instead of
		// a list of ids.
		Nested bool `json:"nested,omitempty"`
	}

	Field struct {
		Name string
		Spec FieldSpec
	}

	// SchemaConfig is the ordered field declaration of a table. Its JSON form is
	// an object whose key order is kept.
	SchemaConfig []Field

	// TableResolver looks up tables referenced by Table fields.
	TableResolver interface {
		GetTable(name string) (*Table, error)
	}

	Schema struct {
		fields   []Field
		specs    map[string]FieldSpec
		unique   []string
		resolver TableResolver

		targetsMu sync.Mutex
		targets   map[string]string
	}

	validatorFunc func(s *Schema, name string, spec FieldSpec, value any) error
)

var validators map[DataType]validatorFunc

func init() {
	validators = map[DataType]validatorFunc{
		Number: func(_ *Schema, _ string, _ FieldSpec, value any) error {
			if !comparison.IsNumber(value) {
				return fmt.Errorf("%w: expected number, got %T", ErrInvalidFieldType, value)
			}
			return nil
		},
		String: validateString,
		Image:  validateString,
		Enum: func(_ *Schema, _ string, spec FieldSpec, value any) error {
			for _, v := range spec.Values {
				if comparison.Equal(v, value) {
					return nil
				}
			}
			return fmt.Errorf("%w: %v is not one of %v", ErrInvalidFieldType, value, spec.Values)
		},
		TableType: func(s *Schema, name string, spec FieldSpec, value any) error {
			if value == nil || !isList(value) {
				return fmt.Errorf("%w: expected list, got %T", ErrInvalidFieldType, value)
			}
			target, err := s.bindTarget(name, spec)
			if err != nil {
				return err
			}
			if !spec.Nested {
				return nil
			}
			rows, ok := toRecords(value)
			if !ok {
				return fmt.Errorf("%w: expected list of records for %s", ErrInvalidFieldType, target)
			}
			if s.resolver == nil {
				return fmt.Errorf("%w: %s", ErrUnknownTable, target)
			}
			t, err := s.resolver.GetTable(target)
			if err != nil {
				return err
			}
			if err := t.Schema().ValidateDataset(rows); err != nil {
				return fmt.Errorf("%w: nested %s: %w", ErrInvalidFieldType, target, err)
			}
			return nil
		},
	}
}

func validateString(_ *Schema, _ string, _ FieldSpec, value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%w: expected string, got %T", ErrInvalidFieldType, value)
	}
	return nil
}

// NewSchema checks every declaration up front so that a bad type or constraint
// is rejected before any data is seen.
func NewSchema(cfg SchemaConfig, resolver TableResolver) (*Schema, error) {
	s := &Schema{
		specs:    make(map[string]FieldSpec, len(cfg)),
		resolver: resolver,
		targets:  make(map[string]string),
	}
	for _, f := range cfg {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
		}
		if _, dup := s.specs[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, f.Name)
		}
		if _, ok := validators[f.Spec.Type]; !ok {
			return nil, fmt.Errorf("%w: field %s has type %d", ErrUnknownDataType, f.Name, int(f.Spec.Type))
		}
		if err := checkSpec(f.Name, f.Spec); err != nil {
			return nil, err
		}
		s.fields = append(s.fields, f)
		s.specs[f.Name] = f.Spec
		if f.Spec.Unique {
			s.unique = append(s.unique, f.Name)
		}
	}
	return s, nil
}

func checkSpec(name string, spec FieldSpec) error {
	switch {
	case spec.Type == Enum && len(spec.Values) == 0:
		return fmt.Errorf("%w: enum field %s has no values", ErrInvalidSchema, name)
	case spec.Type != Enum && len(spec.Values) > 0:
		return fmt.Errorf("%w: values declared on %s field %s", ErrInvalidSchema, spec.Type, name)
	case spec.Type != TableType && (spec.Target != "" || spec.Nested):
		return fmt.Errorf("%w: target declared on %s field %s", ErrInvalidSchema, spec.Type, name)
	case spec.Type == TableType && spec.Nested && spec.Target == "":
		return fmt.Errorf("%w: nested field %s needs a target", ErrInvalidSchema, name)
	case spec.Type == TableType && spec.Unique:
		return fmt.Errorf("%w: table field %s cannot be unique", ErrInvalidSchema, name)
	}
	for _, v := range spec.Values {
		if _, ok := comparison.Key(v); !ok {
			return fmt.Errorf("%w: enum field %s has unhashable value %v", ErrInvalidSchema, name, v)
		}
	}
	return nil
}

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Spec(field string) (FieldSpec, bool) {
	spec, ok := s.specs[field]
	return spec, ok
}

// Unique returns the indexed fields in declaration order.
func (s *Schema) Unique() []string {
	return append([]string(nil), s.unique...)
}

func (s *Schema) Config() SchemaConfig {
	return append(SchemaConfig(nil), s.fields...)
}

// Target returns the table a Table field points at. A declared target is used
// as is. Without one the field name stands in for the table name, fixed the
// first time the field is validated or joined.
func (s *Schema) Target(field string) (string, error) {
	spec, ok := s.specs[field]
	if !ok || spec.Type != TableType {
		return "", fmt.Errorf("%w: %s is not a table field", ErrJoinNotSupported, field)
	}
	return s.bindTarget(field, spec)
}

func (s *Schema) bindTarget(field string, spec FieldSpec) (string, error) {
	if spec.Target != "" {
		return spec.Target, nil
	}
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	if t, ok := s.targets[field]; ok {
		return t, nil
	}
	s.targets[field] = field
	logger.Debug().Str("field", field).Msg("inferred join target from field name")
	return field, nil
}

// ValidateDataset checks every row, stopping at the first failure.
func (s *Schema) ValidateDataset(rows []Record) error {
	for i, row := range rows {
		if err := s.ValidateRow(row, i); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRow checks that row has exactly the schema's fields and that every
// value satisfies its spec. pos is reported in the returned *RowError.
func (s *Schema) ValidateRow(row Record, pos int) error {
	if len(row) != len(s.fields) {
		return &RowError{
			Row: pos,
			Err: fmt.Errorf("%w: has %d fields, expected %d", ErrRowShapeMismatch, len(row), len(s.fields)),
		}
	}
	for _, f := range s.fields {
		value, ok := row[f.Name]
		if !ok {
			return &RowError{Row: pos, Field: f.Name, Err: ErrMissingField}
		}
		if err := validators[f.Spec.Type](s, f.Name, f.Spec, value); err != nil {
			return &RowError{Row: pos, Field: f.Name, Err: err}
		}
	}
	return nil
}

func isList(v any) bool {
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// listItems returns the elements of a slice or array value.
func listItems(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case nil:
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func toRecords(v any) ([]Record, bool) {
	if rows, ok := v.([]Record); ok {
		return rows, true
	}
	items := listItems(v)
	rows := make([]Record, len(items))
	for i, item := range items {
		r, ok := item.(Record)
		if !ok {
			return nil, false
		}
		rows[i] = r
	}
	return rows, true
}

// UnmarshalJSON accepts a bare type ("string", 2) as shorthand for {"type": ...}.
func (f *FieldSpec) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var d DataType
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return err
		}
		*f = FieldSpec{Type: d}
		return nil
	}
	type plain FieldSpec
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: missing type", ErrUnknownDataType)
	}
	*f = FieldSpec(p)
	return nil
}

func (c *SchemaConfig) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("error in dec.Token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: schema must be an object", ErrInvalidSchema)
	}
	var fields SchemaConfig
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("error in dec.Token: %w", err)
		}
		name := tok.(string)
		if seen[name] {
			return fmt.Errorf("%w: duplicate field %s", ErrInvalidSchema, name)
		}
		seen[name] = true
		var spec FieldSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Spec: spec})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("error in dec.Token: %w", err)
	}
	*c = fields
	return nil
}

func (c SchemaConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		spec, err := json.Marshal(f.Spec)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(spec)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
