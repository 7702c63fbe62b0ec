package translator

import (
	"fmt"
	"strings"

	"github.com/queryfabric/uql/aqr"
)

// Stage is one stage of a document-backend aggregation pipeline. Kind
// names an aggregation operator ("$match", "$lookup", "$unwind",
// "$group", "$sort", "$skip", "$limit", "$project"); Spec is a
// single-entry map from Kind to the operator's body (for example
// {"$limit": 10}), bson.M-compatible: string keys, any values.
type Stage struct {
	Kind string
	Spec map[string]any
}

// ToDocument produces a document-backend aggregation pipeline from q,
// per spec.md §4.3. It builds the stages directly from q; it does not
// call ToSQL or go through an intermediate SQL string.
func ToDocument(q *aqr.Query) ([]Stage, error) {
	var pipeline []Stage

	for _, j := range q.Joins {
		stage, err := documentJoinStages(j)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, stage...)
	}

	if len(q.Where) > 0 {
		match, err := documentMatchStage(q.Where)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, Stage{Kind: "$match", Spec: map[string]any{"$match": match}})
	}

	if len(q.Aggregate) > 0 {
		pipeline = append(pipeline, documentGroupStage(q))
	}

	if len(q.Having) > 0 {
		having, err := documentMatchStage(q.Having)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, Stage{Kind: "$match", Spec: map[string]any{"$match": having}})
	}

	if len(q.OrderBy) > 0 {
		sort := map[string]any{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Direction == aqr.Desc {
				dir = -1
			}
			sort[o.Field] = dir
		}
		pipeline = append(pipeline, Stage{Kind: "$sort", Spec: map[string]any{"$sort": sort}})
	}

	if q.Offset != nil {
		pipeline = append(pipeline, Stage{Kind: "$skip", Spec: map[string]any{"$skip": *q.Offset}})
	}
	if q.Limit != nil {
		pipeline = append(pipeline, Stage{Kind: "$limit", Spec: map[string]any{"$limit": *q.Limit}})
	}

	if len(q.Fields) > 0 {
		project := map[string]any{}
		for _, f := range q.Fields {
			project[f] = 1
		}
		pipeline = append(pipeline, Stage{Kind: "$project", Spec: map[string]any{"$project": project}})
	}

	return pipeline, nil
}

// documentJoinStages rewrites one JOIN into a $lookup followed by an
// $unwind, per §4.3: preserveNullAndEmptyArrays is true for LEFT/FULL,
// false for INNER; RIGHT inverts which side is "local" vs. "foreign"
// so the lookup still reads as "join orders onto users".
func documentJoinStages(j aqr.Join) ([]Stage, error) {
	localField, foreignField := j.On.Left, j.On.Right
	fromCollection := j.Table
	as := j.Table
	if j.Alias != "" {
		as = j.Alias
	}

	preserveEmpty := j.Kind == aqr.LeftJoin || j.Kind == aqr.FullJoin

	if j.Kind == aqr.RightJoin {
		localField, foreignField = foreignField, localField
	}

	lookup := Stage{Kind: "$lookup", Spec: map[string]any{
		"$lookup": map[string]any{
			"from":         fromCollection,
			"localField":   stripQualifier(localField),
			"foreignField": stripQualifier(foreignField),
			"as":           as,
		},
	}}
	unwind := Stage{Kind: "$unwind", Spec: map[string]any{
		"$unwind": map[string]any{
			"path":                       "$" + as,
			"preserveNullAndEmptyArrays": preserveEmpty,
		},
	}}
	return []Stage{lookup, unwind}, nil
}

func stripQualifier(field string) string {
	if idx := strings.LastIndex(field, "."); idx >= 0 {
		return field[idx+1:]
	}
	return field
}

func documentMatchStage(conditions []aqr.Condition) (map[string]any, error) {
	clauses := make([]map[string]any, 0, len(conditions))
	for _, c := range conditions {
		clause, err := documentClause(c)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return combineClauses(conditions, clauses), nil
}

// combineClauses folds condition clauses left to right using each
// condition's declared connective, building nested $and/$or the way a
// flat left-to-right chain composes: ((c0 OP0 c1) OP1 c2) ...
func combineClauses(conditions []aqr.Condition, clauses []map[string]any) map[string]any {
	if len(clauses) == 0 {
		return map[string]any{}
	}
	acc := clauses[0]
	for i := 1; i < len(clauses); i++ {
		connective := conditions[i-1].Logical
		if connective == "" {
			connective = aqr.And
		}
		op := "$and"
		if connective == aqr.Or {
			op = "$or"
		}
		acc = map[string]any{op: []map[string]any{acc, clauses[i]}}
	}
	return acc
}

func documentClause(c aqr.Condition) (map[string]any, error) {
	switch c.Op {
	case aqr.OpEq:
		return map[string]any{c.Field: c.Value}, nil
	case aqr.OpNeq:
		return map[string]any{c.Field: map[string]any{"$ne": c.Value}}, nil
	case aqr.OpGt:
		return map[string]any{c.Field: map[string]any{"$gt": c.Value}}, nil
	case aqr.OpLt:
		return map[string]any{c.Field: map[string]any{"$lt": c.Value}}, nil
	case aqr.OpGte:
		return map[string]any{c.Field: map[string]any{"$gte": c.Value}}, nil
	case aqr.OpLte:
		return map[string]any{c.Field: map[string]any{"$lte": c.Value}}, nil
	case aqr.OpIn:
		return map[string]any{c.Field: map[string]any{"$in": c.Values}}, nil
	case aqr.OpNotIn:
		return map[string]any{c.Field: map[string]any{"$nin": c.Values}}, nil
	case aqr.OpBetween:
		return map[string]any{c.Field: map[string]any{"$gte": c.Low, "$lte": c.High}}, nil
	case aqr.OpLike, aqr.OpILike:
		pattern, err := likeToRegex(fmt.Sprintf("%v", c.Value))
		if err != nil {
			return nil, err
		}
		spec := map[string]any{"$regex": pattern}
		if c.Op == aqr.OpILike {
			spec["$options"] = "i"
		}
		return map[string]any{c.Field: spec}, nil
	}
	return nil, &UnsupportedForBackendError{Construct: "operator " + string(c.Op), Backend: "document"}
}

// likeToRegex maps a SQL LIKE/ILIKE pattern to a regex per §4.3: '%' to
// '.*', '_' to '.', anchoring a side when its corresponding '%' is
// absent.
func likeToRegex(pattern string) (string, error) {
	var b strings.Builder
	if !strings.HasPrefix(pattern, "%") {
		b.WriteString("^")
	}
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteRune(r)
		}
	}
	if !strings.HasSuffix(pattern, "%") {
		b.WriteString("$")
	}
	return b.String(), nil
}

func documentGroupStage(q *aqr.Query) Stage {
	id := any(nil)
	if len(q.GroupBy) > 0 {
		idFields := map[string]any{}
		for _, f := range q.GroupBy {
			idFields[f] = "$" + f
		}
		id = idFields
	}
	group := map[string]any{"_id": id}
	for _, agg := range q.Aggregate {
		group[agg.ResolvedAlias()] = documentAccumulator(agg)
	}
	return Stage{Kind: "$group", Spec: map[string]any{"$group": group}}
}

func documentAccumulator(agg aqr.Aggregate) map[string]any {
	switch agg.Function {
	case aqr.Count:
		return map[string]any{"$sum": 1}
	case aqr.Sum:
		return map[string]any{"$sum": "$" + agg.Field}
	case aqr.Avg:
		return map[string]any{"$avg": "$" + agg.Field}
	case aqr.Min:
		return map[string]any{"$min": "$" + agg.Field}
	case aqr.Max:
		return map[string]any{"$max": "$" + agg.Field}
	}
	return nil
}
