package aqr

import "fmt"

// Validate runs schema validation over a Query the way spec.md §4.1
// describes it: it never raises, it reports errors as data. Check
// calls Validate and turns the first failure into a *SchemaError,
// which is what the registry (after parsing) and direct-construction
// hosts use; parser.Parse itself does not call it.
func Validate(q *Query) (valid bool, errs []ValidationError) {
	if q == nil {
		return false, []ValidationError{{FieldPath: "query", Message: "query is nil"}}
	}

	if q.Table == "" {
		errs = append(errs, ValidationError{FieldPath: "table", Message: "table must not be empty"})
	}

	for i, c := range q.Where {
		errs = append(errs, validateCondition(fmt.Sprintf("where[%d]", i), c)...)
	}
	for i, c := range q.Having {
		errs = append(errs, validateCondition(fmt.Sprintf("having[%d]", i), c)...)
	}

	for i, j := range q.Joins {
		path := fmt.Sprintf("joins[%d]", i)
		if j.Table == "" {
			errs = append(errs, ValidationError{FieldPath: path + ".table", Message: "join table must not be empty"})
		}
		switch j.Kind {
		case InnerJoin, LeftJoin, RightJoin, FullJoin:
		default:
			errs = append(errs, ValidationError{FieldPath: path + ".kind", Message: fmt.Sprintf("unknown join kind %q", j.Kind)})
		}
		if j.On.Left == "" || j.On.Right == "" {
			errs = append(errs, ValidationError{FieldPath: path + ".on", Message: "join ON clause requires both sides"})
		}
	}

	for i, a := range q.Aggregate {
		path := fmt.Sprintf("aggregate[%d]", i)
		switch a.Function {
		case Count, Sum, Avg, Min, Max:
		default:
			errs = append(errs, ValidationError{FieldPath: path + ".function", Message: fmt.Sprintf("unknown aggregate function %q", a.Function)})
		}
		if a.Field == "*" && a.Function != Count {
			errs = append(errs, ValidationError{FieldPath: path + ".field", Message: "'*' is only permitted for COUNT"})
		}
	}

	for i, o := range q.OrderBy {
		path := fmt.Sprintf("order_by[%d]", i)
		if o.Field == "" {
			errs = append(errs, ValidationError{FieldPath: path + ".field", Message: "order field must not be empty"})
		}
		switch o.Direction {
		case Asc, Desc, "":
		default:
			errs = append(errs, ValidationError{FieldPath: path + ".direction", Message: fmt.Sprintf("unknown direction %q", o.Direction)})
		}
	}

	if q.Limit != nil && *q.Limit < 0 {
		errs = append(errs, ValidationError{FieldPath: "limit", Message: "limit must be non-negative"})
	}
	if q.Offset != nil && *q.Offset < 0 {
		errs = append(errs, ValidationError{FieldPath: "offset", Message: "offset must be non-negative"})
	}

	return len(errs) == 0, errs
}

func validateCondition(path string, c Condition) []ValidationError {
	var errs []ValidationError
	if c.Field == "" {
		errs = append(errs, ValidationError{FieldPath: path + ".field", Message: "condition field must not be empty"})
	}
	switch c.Op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpLike, OpILike:
		if c.Value == nil {
			errs = append(errs, ValidationError{FieldPath: path + ".value", Message: fmt.Sprintf("%s requires a scalar value", c.Op)})
		}
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			errs = append(errs, ValidationError{FieldPath: path + ".values", Message: fmt.Sprintf("%s requires at least one value", c.Op)})
		}
	case OpBetween:
		if c.Low == nil || c.High == nil {
			errs = append(errs, ValidationError{FieldPath: path + ".value", Message: "BETWEEN requires two bounds"})
		}
	default:
		errs = append(errs, ValidationError{FieldPath: path + ".op", Message: fmt.Sprintf("unknown operator %q", c.Op)})
	}
	switch c.Logical {
	case And, Or, "":
	default:
		errs = append(errs, ValidationError{FieldPath: path + ".logical", Message: fmt.Sprintf("unknown logical connective %q", c.Logical)})
	}
	return errs
}

// Check validates q and turns the first reported error, if any, into
// a *SchemaError — the form the registry's Translate/Execute (right
// after parsing) and direct AQR construction use to fail fast, per spec.md's "validated once against the schema"
// invariant.
func Check(q *Query) error {
	if valid, errs := Validate(q); !valid {
		first := errs[0]
		return &SchemaError{FieldPath: first.FieldPath, Message: first.Message}
	}
	return nil
}
