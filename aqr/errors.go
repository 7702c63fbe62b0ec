package aqr

import "fmt"

// SchemaError reports that a constructed Query failed validation. It
// carries the offending field path so a host can surface it precisely.
type SchemaError struct {
	FieldPath string
	Message   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %s", e.FieldPath, e.Message)
}

// ValidationError is one entry returned by Validate; unlike SchemaError
// it is reported as data, never raised.
type ValidationError struct {
	FieldPath string
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.FieldPath, e.Message)
}
