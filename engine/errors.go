package engine

import (
	"errors"
	"fmt"
)

var (
	ErrRowShapeMismatch = errors.New("unmatched field count for row")
	ErrMissingField     = errors.New("missing field")
	ErrInvalidFieldType = errors.New("invalid type in data")
	ErrNonUniqueIndex   = errors.New("non unique index")
	ErrUnknownTable     = errors.New("unknown table")
	ErrUnknownDataType  = errors.New("unknown data type")
	ErrInvalidSchema    = errors.New("invalid schema")

	ErrNotIndexed = errors.New("field is not indexed")
	ErrNotFound   = errors.New("no row found")

	ErrInvalidQuery     = errors.New("invalid query")
	ErrAlreadySet       = errors.New("query slot already set")
	ErrMixedPredicates  = errors.New("query cannot combine and with or")
	ErrJoinNotSupported = errors.New("join not supported on field")
)

// RowError locates a validation failure within a dataset.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d field %s: %s", e.Row, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
