package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DataType is the closed set of field types a schema can declare.
type DataType int

const (
	Number DataType = iota + 1
	String
	Enum
	TableType
	Image
)

var dataTypeNames = map[DataType]string{
	Number:    "number",
	String:    "string",
	Enum:      "enum",
	TableType: "table",
	Image:     "image",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

func (d DataType) Valid() bool {
	_, ok := dataTypeNames[d]
	return ok
}

// ParseDataType accepts a type name in any case.
func ParseDataType(name string) (DataType, error) {
	lower := strings.ToLower(name)
	for d, n := range dataTypeNames {
		if n == lower {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownDataType, name)
}

func (d DataType) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, int(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a type name or one of the numeric tags 1..5.
func (d *DataType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		parsed, err := ParseDataType(name)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var tag int
	if err := json.Unmarshal(b, &tag); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownDataType, string(b))
	}
	if !DataType(tag).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDataType, tag)
	}
	*d = DataType(tag)
	return nil
}
