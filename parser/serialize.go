package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/queryfabric/uql/aqr"
)

// Serialize renders q back to UQL source, the inverse of Parse. It is
// a pure function of q (spec.md §8's translator-determinism property
// extended to serialization) and is guaranteed to round-trip exactly
// — Parse(Serialize(q)) reproduces q — for the {FIND, FIELDS, WHERE
// with =/>/<, ORDER BY, LIMIT} subset spec.md §8 names, when its
// literal values have the types Parse itself produces (string, bool,
// int64, float64). Outside that, the exact AQR isn't always
// reproduced: an int value comes back as int64, an empty ORDER BY
// direction comes back as ASC, a Logical set on the last condition is
// dropped, and an aggregate with an empty Field is written as FUNC(),
// which Parse rejects.
func Serialize(q *aqr.Query) string {
	var b strings.Builder

	b.WriteString("FIND ")
	if q.SubTable != "" {
		b.WriteString(q.SubTable)
		b.WriteString(".")
	}
	b.WriteString(q.Table)

	for _, j := range q.Joins {
		b.WriteString(" ")
		b.WriteString(serializeJoin(j))
	}

	if len(q.Fields) > 0 || len(q.Aggregate) > 0 {
		entries := make([]string, 0, len(q.Fields)+len(q.Aggregate))
		entries = append(entries, q.Fields...)
		for _, a := range q.Aggregate {
			call := string(a.Function) + "(" + a.Field + ")"
			if a.Alias != "" {
				call = a.Alias + ": " + call
			}
			entries = append(entries, call)
		}
		b.WriteString(" FIELDS ")
		b.WriteString(strings.Join(entries, ", "))
	}

	if len(q.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(serializeConditionChain(q.Where))
	}

	if len(q.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.GroupBy, ", "))
	}

	if len(q.Having) > 0 {
		b.WriteString(" HAVING ")
		b.WriteString(serializeConditionChain(q.Having))
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := o.Direction
			if dir == "" {
				dir = aqr.Asc
			}
			parts[i] = o.Field + " " + string(dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.Limit)
	}
	if q.Offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *q.Offset)
	}

	return b.String()
}

var joinKeyword = map[aqr.JoinKind]string{
	aqr.InnerJoin: "INNER JOIN",
	aqr.LeftJoin:  "LEFT JOIN",
	aqr.RightJoin: "RIGHT JOIN",
	aqr.FullJoin:  "FULL JOIN",
}

func serializeJoin(j aqr.Join) string {
	clause := joinKeyword[j.Kind] + " " + j.Table
	if j.Alias != "" {
		clause += " " + j.Alias
	}
	return clause + fmt.Sprintf(" ON %s = %s", j.On.Left, j.On.Right)
}

func serializeConditionChain(conditions []aqr.Condition) string {
	var b strings.Builder
	for i, c := range conditions {
		if i > 0 {
			connector := conditions[i-1].Logical
			if connector == "" {
				connector = aqr.And
			}
			b.WriteString(" " + string(connector) + " ")
		}
		b.WriteString(serializeCondition(c))
	}
	return b.String()
}

func serializeCondition(c aqr.Condition) string {
	switch c.Op {
	case aqr.OpIn, aqr.OpNotIn:
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = serializeLiteral(v)
		}
		keyword := "IN"
		if c.Op == aqr.OpNotIn {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", c.Field, keyword, strings.Join(vals, ", "))
	case aqr.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", c.Field, serializeLiteral(c.Low), serializeLiteral(c.High))
	default:
		return fmt.Sprintf("%s %s %s", c.Field, string(c.Op), serializeLiteral(c.Value))
	}
}

// serializeLiteral renders a Go value as a UQL literal token. Numbers
// are written without an exponent (the lexer's scanNumber only
// recognizes digits and '.'), and a float64 always carries a '.' so
// that re-lexing recovers a float64 rather than an int64.
func serializeLiteral(v any) string {
	switch val := v.(type) {
	case string:
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(val)
		return `"` + escaped + `"`
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
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}
