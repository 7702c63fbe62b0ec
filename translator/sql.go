// Package translator turns an AQR into each backend's native request
// shape, per spec.md §4.2-§4.6. ToSQL is the root translation: search
// calls it for its SQL-endpoint envelope, wide-column reuses its
// FROM/literal emission helpers, and the document translator builds
// its pipeline directly from the AQR without it.
package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/queryfabric/uql/aqr"
)

var joinKeyword = map[aqr.JoinKind]string{
	aqr.InnerJoin: "INNER JOIN",
	aqr.LeftJoin:  "LEFT JOIN",
	aqr.RightJoin: "RIGHT JOIN",
	aqr.FullJoin:  "FULL OUTER JOIN",
}

// ToSQL produces a single SQL string from q, per spec.md §4.2. The
// same AQR always produces byte-identical output: every building block
// below is a pure function of its input, no map iteration or other
// nondeterminism touches the assembled string.
func ToSQL(q *aqr.Query) (string, error) {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(buildSelectList(q))
	b.WriteString(" FROM ")
	b.WriteString(buildFrom(q))

	for _, j := range q.Joins {
		b.WriteString(" ")
		b.WriteString(buildJoinClause(j))
	}

	if len(q.Where) > 0 {
		where, err := buildConditionChain(q.Where)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if len(q.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.GroupBy, ", "))
	}

	if len(q.Having) > 0 {
		having, err := buildConditionChain(q.Having)
		if err != nil {
			return "", err
		}
		b.WriteString(" HAVING ")
		b.WriteString(having)
	}

	if order := buildOrderBy(q); len(order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}

	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.Limit)
	}
	if q.Offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *q.Offset)
	}

	return b.String(), nil
}

// buildSelectList implements §4.2's SELECT-list precedence: aggregates
// (group_by fields first, then each aggregate), else explicit fields,
// else "*".
func buildSelectList(q *aqr.Query) string {
	if len(q.Aggregate) > 0 {
		parts := make([]string, 0, len(q.GroupBy)+len(q.Aggregate))
		parts = append(parts, q.GroupBy...)
		for _, agg := range q.Aggregate {
			parts = append(parts, fmt.Sprintf("%s(%s) AS %s", agg.Function, aggField(agg), agg.ResolvedAlias()))
		}
		return strings.Join(parts, ", ")
	}
	if len(q.Fields) > 0 {
		return strings.Join(q.Fields, ", ")
	}
	return "*"
}

func buildFrom(q *aqr.Query) string {
	if q.SubTable != "" {
		return q.SubTable + "." + q.Table
	}
	return q.Table
}

func buildJoinClause(j aqr.Join) string {
	clause := joinKeyword[j.Kind] + " " + j.Table
	if j.Alias != "" {
		clause += " " + j.Alias
	}
	return clause + fmt.Sprintf(" ON %s = %s", j.On.Left, j.On.Right)
}

// buildConditionChain joins atoms left to right using each condition's
// Logical connective (default AND), per §4.2's WHERE rule.
func buildConditionChain(conditions []aqr.Condition) (string, error) {
	var b strings.Builder
	for i, c := range conditions {
		if i > 0 {
			connector := conditions[i-1].Logical
			if connector == "" {
				connector = aqr.And
			}
			b.WriteString(" " + string(connector) + " ")
		}
		atom, err := emitConditionSQL(c)
		if err != nil {
			return "", err
		}
		b.WriteString(atom)
	}
	return b.String(), nil
}

func emitConditionSQL(c aqr.Condition) (string, error) {
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
		return fmt.Sprintf("%s %s (%s)", c.Field, keyword, strings.Join(vals, ", ")), nil
	case aqr.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", c.Field, emitLiteralSQL(c.Low), emitLiteralSQL(c.High)), nil
	default:
		return fmt.Sprintf("%s %s %s", c.Field, string(c.Op), emitLiteralSQL(c.Value)), nil
	}
}

// emitLiteralSQL renders a Go value as a SQL literal: strings single-quoted
// with embedded quotes doubled, everything else bare.
func emitLiteralSQL(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// buildOrderBy applies the §3/§4.2 aggregate-compatibility rule: once
// either group_by or aggregate is non-empty, an order term survives
// only if its field is in group_by or matches an aggregate's alias or
// underlying field (rewritten to the aggregate expression); anything
// else is silently dropped.
func buildOrderBy(q *aqr.Query) []string {
	if len(q.GroupBy) == 0 && len(q.Aggregate) == 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			parts[i] = o.Field + " " + string(o.Direction)
		}
		return parts
	}

	inGroupBy := make(map[string]bool, len(q.GroupBy))
	for _, f := range q.GroupBy {
		inGroupBy[f] = true
	}

	var parts []string
	for _, o := range q.OrderBy {
		if inGroupBy[o.Field] {
			parts = append(parts, o.Field+" "+string(o.Direction))
			continue
		}
		if agg, ok := matchingAggregate(q.Aggregate, o.Field); ok {
			parts = append(parts, fmt.Sprintf("%s(%s) %s", agg.Function, aggField(agg), o.Direction))
		}
	}
	return parts
}

func matchingAggregate(aggs []aqr.Aggregate, field string) (aqr.Aggregate, bool) {
	for _, agg := range aggs {
		if agg.ResolvedAlias() == field || agg.Field == field {
			return agg, true
		}
	}
	return aqr.Aggregate{}, false
}

// aggField is the field text to print inside FUNC(...): "*" when an
// aggregate (only valid for COUNT) omitted it.
func aggField(agg aqr.Aggregate) string {
	if agg.Field == "" {
		return "*"
	}
	return agg.Field
}
