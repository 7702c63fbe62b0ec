// Package aqr defines the abstract query representation (AQR): the
// single internal currency that the parser produces and every
// translator consumes. An AQR is a value — built once, never mutated,
// discarded after dispatch.
package aqr

// Operation is the top-level verb of a query. The parser produces only
// OpFind; the other values are never produced by Parse, and the
// translators render every Query as a read regardless of its Operation.
type Operation string

const (
	OpFind   Operation = "FIND"
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Op is a comparison operator usable in a Condition.
type Op string

const (
	OpEq      Op = "="
	OpNeq     Op = "!="
	OpGt      Op = ">"
	OpLt      Op = "<"
	OpGte     Op = ">="
	OpLte     Op = "<="
	OpIn      Op = "IN"
	OpNotIn   Op = "NOT IN"
	OpLike    Op = "LIKE"
	OpILike   Op = "ILIKE"
	OpBetween Op = "BETWEEN"
)

// Logical is how one Condition connects to the next in a WHERE/HAVING
// chain. Chains are flat and left-to-right; there is no grouping.
type Logical string

const (
	And Logical = "AND"
	Or  Logical = "OR"
)

// Direction is an ORDER BY sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// JoinKind is the kind of JOIN.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	FullJoin  JoinKind = "FULL"
)

// AggFunc is an aggregate function name.
type AggFunc string

const (
	Count AggFunc = "COUNT"
	Sum   AggFunc = "SUM"
	Avg   AggFunc = "AVG"
	Min   AggFunc = "MIN"
	Max   AggFunc = "MAX"
)

// BackendKind identifies which translator/capability a connection uses.
type BackendKind string

const (
	Relational BackendKind = "relational"
	Document   BackendKind = "document"
	Search     BackendKind = "search"
	WideColumn BackendKind = "wide_column"
	KeyValue   BackendKind = "key_value"
)

// Condition is one atom of a WHERE or HAVING chain: "field op value",
// joined to the NEXT condition in the slice by Logical (the final
// element's Logical is unused).
type Condition struct {
	Field   string
	Op      Op
	Value   any   // scalar for most ops
	Values  []any // IN / NOT IN
	Low     any   // BETWEEN lower bound
	High    any   // BETWEEN upper bound
	Logical Logical
}

// JoinCondition is the "lhs = rhs" half of a Join's ON clause. The
// operator is always "=" in the covered core.
type JoinCondition struct {
	Left  string
	Right string
}

// Join is one JOIN clause.
type Join struct {
	Kind  JoinKind
	Table string
	Alias string
	On    JoinCondition
}

// Order is one ORDER BY item.
type Order struct {
	Field     string
	Direction Direction
}

// Aggregate is one projected aggregate function call.
type Aggregate struct {
	Function AggFunc
	Field    string // "*" permitted only for Count
	Alias    string
}

// Query is the abstract query representation. It is built by the
// parser (or directly by a host) and is read-only thereafter.
type Query struct {
	Operation Operation

	Table    string // required, non-empty
	SubTable string // schema / database / alias / index name / logical db number

	Fields []string // nil means "all"

	Where []Condition
	Joins []Join

	GroupBy   []string
	Aggregate []Aggregate
	Having    []Condition

	OrderBy []Order

	Limit  *int
	Offset *int
}

// ResolvedAlias returns the alias an aggregate projects under: the
// explicit alias if set, "count" for COUNT(*), else the bare field name.
func (a Aggregate) ResolvedAlias() string {
	if a.Alias != "" {
		return a.Alias
	}
	if a.Function == Count && (a.Field == "" || a.Field == "*") {
		return "count"
	}
	return a.Field
}
