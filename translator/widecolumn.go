package translator

import (
	"fmt"
	"strings"

	"github.com/queryfabric/uql/aqr"
)

// reservedWideColumnWords is a representative subset of DynamoDB's
// reserved-word list: attribute names colliding with it must be
// substituted with an "#nN" placeholder and a name map entry, per
// spec.md §4.5.
var reservedWideColumnWords = map[string]bool{
	"name": true, "status": true, "data": true, "type": true, "size": true,
	"count": true, "date": true, "order": true, "group": true, "value": true,
	"level": true, "timestamp": true, "key": true, "region": true,
}

// WideColumnResult is the PartiQL-compatible statement produced by
// ToWideColumn together with its reserved-name substitution map.
type WideColumnResult struct {
	Statement           string
	AttributeNames      map[string]string // "#n0" -> real attribute name
	IsKeyConditionQuery bool
}

type nameAllocator struct {
	names   map[string]string
	counter int
}

func (a *nameAllocator) resolve(field string) string {
	if !reservedWideColumnWords[strings.ToLower(field)] {
		return field
	}
	if ph, ok := a.names[field]; ok {
		return ph
	}
	ph := fmt.Sprintf("#n%d", a.counter)
	a.counter++
	a.names[field] = ph
	return ph
}

// ToWideColumn produces a PartiQL-compatible SELECT statement, per
// spec.md §4.5. Aggregates, group-by, and joins are a deliberate
// correction of the source system's behavior: rather than silently
// approximate them, this backend MUST reject them outright.
func ToWideColumn(q *aqr.Query, schema aqr.WideColumnSchema) (WideColumnResult, error) {
	if len(q.Aggregate) > 0 {
		return WideColumnResult{}, &UnsupportedForBackendError{Construct: "aggregate", Backend: "wide_column"}
	}
	if len(q.GroupBy) > 0 {
		return WideColumnResult{}, &UnsupportedForBackendError{Construct: "group_by", Backend: "wide_column"}
	}
	if len(q.Joins) > 0 {
		return WideColumnResult{}, &UnsupportedForBackendError{Construct: "join", Backend: "wide_column"}
	}

	alloc := &nameAllocator{names: map[string]string{}}

	projection := "*"
	if len(q.Fields) > 0 {
		parts := make([]string, len(q.Fields))
		for i, f := range q.Fields {
			parts[i] = alloc.resolve(f)
		}
		projection = strings.Join(parts, ", ")
	}

	pkCond, skCond, remaining := splitKeyConditions(q.Where, schema)

	var whereParts []string
	isKeyQuery := pkCond != nil
	if pkCond != nil {
		keyExpr, err := emitWideColumnEquality(*pkCond, alloc)
		if err != nil {
			return WideColumnResult{}, err
		}
		whereParts = append(whereParts, keyExpr)
		if skCond != nil {
			skExpr, err := emitSortKeyCondition(*skCond, alloc)
			if err != nil {
				return WideColumnResult{}, err
			}
			whereParts = append(whereParts, skExpr)
		}
	}

	filterExpr, err := emitWideColumnFilter(remaining, alloc)
	if err != nil {
		return WideColumnResult{}, err
	}
	if filterExpr != "" {
		whereParts = append(whereParts, filterExpr)
	}

	stmt := "SELECT " + projection + " FROM " + buildFrom(q)
	if len(whereParts) > 0 {
		stmt += " WHERE " + strings.Join(whereParts, " AND ")
	}

	var names map[string]string
	if len(alloc.names) > 0 {
		names = make(map[string]string, len(alloc.names))
		for field, ph := range alloc.names {
			names[ph] = field
		}
	}
	return WideColumnResult{Statement: stmt, AttributeNames: names, IsKeyConditionQuery: isKeyQuery}, nil
}

// splitKeyConditions pulls the partition-key equality and, if present,
// a compatible sort-key refinement out of where, leaving the rest as
// filter predicates.
func splitKeyConditions(where []aqr.Condition, schema aqr.WideColumnSchema) (pk, sk *aqr.Condition, remaining []aqr.Condition) {
	for i := range where {
		c := where[i]
		switch {
		case pk == nil && schema.PartitionKey != "" && c.Field == schema.PartitionKey && c.Op == aqr.OpEq:
			cc := c
			pk = &cc
		case pk != nil && sk == nil && schema.SortKey != "" && c.Field == schema.SortKey && isSortKeyCompatible(c):
			cc := c
			sk = &cc
		default:
			remaining = append(remaining, c)
		}
	}
	if pk == nil {
		// No partition-key equality: every condition, including what
		// looked like a sort-key refinement, becomes a scan filter.
		return nil, nil, where
	}
	return pk, sk, remaining
}

func isSortKeyCompatible(c aqr.Condition) bool {
	switch c.Op {
	case aqr.OpEq, aqr.OpBetween, aqr.OpGt, aqr.OpGte, aqr.OpLt, aqr.OpLte:
		return true
	case aqr.OpLike:
		return isPrefixPattern(fmt.Sprintf("%v", c.Value))
	}
	return false
}

func isPrefixPattern(pattern string) bool {
	return strings.HasSuffix(pattern, "%") && !strings.Contains(strings.TrimSuffix(pattern, "%"), "%")
}

func emitWideColumnEquality(c aqr.Condition, alloc *nameAllocator) (string, error) {
	return fmt.Sprintf("%s = %s", alloc.resolve(c.Field), emitLiteralSQL(c.Value)), nil
}

func emitSortKeyCondition(c aqr.Condition, alloc *nameAllocator) (string, error) {
	field := alloc.resolve(c.Field)
	switch c.Op {
	case aqr.OpEq:
		return fmt.Sprintf("%s = %s", field, emitLiteralSQL(c.Value)), nil
	case aqr.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", field, emitLiteralSQL(c.Low), emitLiteralSQL(c.High)), nil
	case aqr.OpGt, aqr.OpGte, aqr.OpLt, aqr.OpLte:
		return fmt.Sprintf("%s %s %s", field, string(c.Op), emitLiteralSQL(c.Value)), nil
	case aqr.OpLike:
		prefix := strings.TrimSuffix(fmt.Sprintf("%v", c.Value), "%")
		return fmt.Sprintf("begins_with(%s, %s)", field, emitLiteralSQL(prefix)), nil
	}
	return "", &UnsupportedForBackendError{Construct: "sort-key operator " + string(c.Op), Backend: "wide_column"}
}

func emitWideColumnFilter(conditions []aqr.Condition, alloc *nameAllocator) (string, error) {
	if len(conditions) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, c := range conditions {
		if i > 0 {
			connector := conditions[i-1].Logical
			if connector == "" {
				connector = aqr.And
			}
			b.WriteString(" " + string(connector) + " ")
		}
		clause, err := emitWideColumnCondition(c, alloc)
		if err != nil {
			return "", err
		}
		b.WriteString(clause)
	}
	return b.String(), nil
}

func emitWideColumnCondition(c aqr.Condition, alloc *nameAllocator) (string, error) {
	field := alloc.resolve(c.Field)
	switch c.Op {
	case aqr.OpIn, aqr.OpNotIn:
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = emitLiteralSQL(v)
		}
		keyword := "IN"
		if c.Op == aqr.OpNotIn {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", field, keyword, strings.Join(vals, ", ")), nil
	case aqr.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", field, emitLiteralSQL(c.Low), emitLiteralSQL(c.High)), nil
	case aqr.OpLike, aqr.OpILike:
		pattern := fmt.Sprintf("%v", c.Value)
		if !isPrefixPattern(pattern) {
			return "", &UnsupportedForBackendError{Construct: "non-prefix LIKE pattern", Backend: "wide_column"}
		}
		return fmt.Sprintf("begins_with(%s, %s)", field, emitLiteralSQL(strings.TrimSuffix(pattern, "%"))), nil
	default:
		return fmt.Sprintf("%s %s %s", field, string(c.Op), emitLiteralSQL(c.Value)), nil
	}
}
