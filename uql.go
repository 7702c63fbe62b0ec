// Package uql is a universal query layer: a single SQL-flavored
// language (UQL) that parses to an immutable abstract query
// representation (package aqr) and translates, on demand, to the
// native form of five backend families — relational, document,
// search, wide-column, and key-value.
//
// Parse and Validate operate on the language alone. The To* functions
// translate an already-parsed aqr.Query to a single backend's native
// form and never touch a network connection; package registry adds
// the connection-aware half (Register/Execute) on top of these same
// functions.
package uql

import (
	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/keyvalue"
	"github.com/queryfabric/uql/parser"
	"github.com/queryfabric/uql/translator"
)

// Parse turns UQL source into its abstract query representation.
func Parse(source string) (*aqr.Query, error) {
	return parser.Parse(source)
}

// Validate parses and schema-checks source, reporting problems as
// data instead of raising. It is the one operation in this package
// that never returns an error for a malformed query.
func Validate(source string) (bool, []aqr.ValidationError) {
	return parser.Validate(source)
}

// ToSQL renders q as a single SQL string for the relational family.
func ToSQL(q *aqr.Query) (string, error) {
	return translator.ToSQL(q)
}

// ToDocument renders q as an ordered aggregation pipeline for the
// document family.
func ToDocument(q *aqr.Query) ([]translator.Stage, error) {
	return translator.ToDocument(q)
}

// ToSearch renders q as a search payload (SQL endpoint or native DSL)
// for the search family.
func ToSearch(q *aqr.Query) (translator.SearchPayload, error) {
	return translator.ToSearch(q)
}

// ToWideColumn renders q as a PartiQL statement for the wide-column
// family. schema supplies the partition and sort key names that decide
// whether a key-condition query is emitted; its SecondaryIndexes are
// not consulted.
func ToWideColumn(q *aqr.Query, schema aqr.WideColumnSchema) (translator.WideColumnResult, error) {
	return translator.ToWideColumn(q, schema)
}

// ToKeyValuePlan renders q as a tagged execution plan for the
// key-value family. opts supplies the backend-specific knobs
// (addresses-are-hashes convention, secondary-index module presence,
// default scan count) the planner cannot infer from q alone.
func ToKeyValuePlan(q *aqr.Query, opts keyvalue.Options) keyvalue.Plan {
	return keyvalue.ToPlan(q, opts)
}
