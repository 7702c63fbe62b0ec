package translator

import (
	"fmt"
	"strings"

	"github.com/queryfabric/uql/aqr"
)

// SearchPayload is what ToSearch produces: either an SQL-endpoint
// envelope (the common case) or a native DSL query tree when the AQR
// needs a construct outside the backend's SQL subset, per spec.md §4.4.
type SearchPayload struct {
	Envelope map[string]any // {"sql": "...", "fetch_size": n}
	DSL      map[string]any // native query DSL, set only when Envelope is nil
}

// ToSearch produces a search-backend payload from q. JOINs fall
// outside the SQL-endpoint's subset, so any AQR containing one is
// rendered as a native DSL tree instead; everything else rides the
// SQL endpoint, reusing ToSQL's emission directly.
func ToSearch(q *aqr.Query) (SearchPayload, error) {
	if len(q.Joins) == 0 {
		sql, err := ToSQL(q)
		if err != nil {
			return SearchPayload{}, err
		}
		envelope := map[string]any{"sql": sql}
		if q.Limit != nil {
			envelope["fetch_size"] = *q.Limit
		}
		return SearchPayload{Envelope: envelope}, nil
	}

	dsl, err := buildNativeDSL(q)
	if err != nil {
		return SearchPayload{}, err
	}
	return SearchPayload{DSL: dsl}, nil
}

// buildNativeDSL renders where as a bool/filter query tree and
// approximates each join as a term lookup against the joined index,
// since the search backend has no native join (spec.md §4.4's
// parent-child example of an SQL-subset escape hatch).
func buildNativeDSL(q *aqr.Query) (map[string]any, error) {
	filters := make([]map[string]any, 0, len(q.Where)+len(q.Joins))
	for _, c := range q.Where {
		clause, err := searchClause(c)
		if err != nil {
			return nil, err
		}
		filters = append(filters, clause)
	}
	for _, j := range q.Joins {
		filters = append(filters, map[string]any{
			"terms_lookup": map[string]any{
				"field": j.On.Left,
				"index": j.Table,
				"path":  j.On.Right,
			},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
	}, nil
}

func searchClause(c aqr.Condition) (map[string]any, error) {
	switch c.Op {
	case aqr.OpEq:
		return map[string]any{"term": map[string]any{c.Field: c.Value}}, nil
	case aqr.OpNeq:
		return map[string]any{"bool": map[string]any{
			"must_not": []map[string]any{{"term": map[string]any{c.Field: c.Value}}},
		}}, nil
	case aqr.OpGt:
		return rangeClause(c.Field, "gt", c.Value), nil
	case aqr.OpGte:
		return rangeClause(c.Field, "gte", c.Value), nil
	case aqr.OpLt:
		return rangeClause(c.Field, "lt", c.Value), nil
	case aqr.OpLte:
		return rangeClause(c.Field, "lte", c.Value), nil
	case aqr.OpBetween:
		return map[string]any{"range": map[string]any{c.Field: map[string]any{"gte": c.Low, "lte": c.High}}}, nil
	case aqr.OpIn:
		return map[string]any{"terms": map[string]any{c.Field: c.Values}}, nil
	case aqr.OpNotIn:
		return map[string]any{"bool": map[string]any{
			"must_not": []map[string]any{{"terms": map[string]any{c.Field: c.Values}}},
		}}, nil
	case aqr.OpLike, aqr.OpILike:
		return map[string]any{"wildcard": map[string]any{c.Field: toWildcard(fmt.Sprintf("%v", c.Value))}}, nil
	}
	return nil, &UnsupportedForBackendError{Construct: "operator " + string(c.Op), Backend: "search"}
}

func rangeClause(field, op string, value any) map[string]any {
	return map[string]any{"range": map[string]any{field: map[string]any{op: value}}}
}

// toWildcard maps SQL LIKE syntax to the backend's wildcard syntax:
// '%' to '*', '_' to '?'.
func toWildcard(pattern string) string {
	replacer := strings.NewReplacer("%", "*", "_", "?")
	return replacer.Replace(pattern)
}
