// Package reverse reconstructs an AQR FIND from native SQL text,
// grounded on the teacher's engine/reverse/postgres.go and
// engine/reverse/mysql.go: walk the native parser's own AST and fold
// it into the FIND/SELECT surface only (table, fields, where, group
// by, having, order by, limit, offset, joins). Anything outside that
// surface (DDL, DML other than SELECT, CTEs, window functions) is
// rejected with ErrNotSupported rather than approximated.
package reverse

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/queryfabric/uql/aqr"
)

// FromPostgreSQL reconstructs an AQR FIND from a single PostgreSQL
// SELECT statement.
func FromPostgreSQL(sql string) (*aqr.Query, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(tree.Stmts) == 0 {
		return nil, fmt.Errorf("%w: no statements", ErrParseError)
	}

	sel := tree.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return nil, fmt.Errorf("%w: only SELECT can be reconstructed", ErrNotSupported)
	}
	return pgConvertSelect(sel)
}

func pgConvertSelect(sel *pg_query.SelectStmt) (*aqr.Query, error) {
	if len(sel.FromClause) == 0 {
		return nil, fmt.Errorf("%w: SELECT without FROM", ErrNotSupported)
	}
	if sel.WithClause != nil {
		return nil, fmt.Errorf("%w: WITH (CTE)", ErrNotSupported)
	}
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		return nil, fmt.Errorf("%w: set operations (UNION/INTERSECT/EXCEPT)", ErrNotSupported)
	}

	table, subTable, joins, err := pgFromClause(sel.FromClause[0])
	if err != nil {
		return nil, err
	}

	q := &aqr.Query{Operation: aqr.OpFind, Table: table, SubTable: subTable, Joins: joins}

	fields, aggregates, err := pgTargetList(sel.TargetList)
	if err != nil {
		return nil, err
	}
	q.Fields = fields
	q.Aggregate = aggregates

	if sel.WhereClause != nil {
		conds, err := pgConditions(sel.WhereClause)
		if err != nil {
			return nil, fmt.Errorf("WHERE: %w", err)
		}
		q.Where = conds
	}

	for _, g := range sel.GroupClause {
		field, err := pgColumnName(g)
		if err != nil {
			return nil, fmt.Errorf("GROUP BY: %w", err)
		}
		q.GroupBy = append(q.GroupBy, field)
	}

	if sel.HavingClause != nil {
		conds, err := pgConditions(sel.HavingClause)
		if err != nil {
			return nil, fmt.Errorf("HAVING: %w", err)
		}
		q.Having = conds
	}

	for _, n := range sel.SortClause {
		sb := n.GetSortBy()
		if sb == nil {
			continue
		}
		field, err := pgColumnName(sb.Node)
		if err != nil {
			return nil, fmt.Errorf("ORDER BY: %w", err)
		}
		dir := aqr.Asc
		if sb.SortbyDir == pg_query.SortByDir_SORTBY_DESC {
			dir = aqr.Desc
		}
		q.OrderBy = append(q.OrderBy, aqr.Order{Field: field, Direction: dir})
	}

	if sel.LimitCount != nil {
		n, err := pgInt(sel.LimitCount)
		if err != nil {
			return nil, fmt.Errorf("LIMIT: %w", err)
		}
		q.Limit = &n
	}
	if sel.LimitOffset != nil {
		n, err := pgInt(sel.LimitOffset)
		if err != nil {
			return nil, fmt.Errorf("OFFSET: %w", err)
		}
		q.Offset = &n
	}

	return q, nil
}

func pgFromClause(node *pg_query.Node) (table, subTable string, joins []aqr.Join, err error) {
	if rv := node.GetRangeVar(); rv != nil {
		return rv.Relname, rv.Schemaname, nil, nil
	}
	if je := node.GetJoinExpr(); je != nil {
		return pgJoinExpr(je)
	}
	return "", "", nil, fmt.Errorf("%w: unsupported FROM item", ErrNotSupported)
}

func pgJoinExpr(je *pg_query.JoinExpr) (table, subTable string, joins []aqr.Join, err error) {
	table, subTable, innerJoins, err := pgFromClause(je.Larg)
	if err != nil {
		return "", "", nil, err
	}
	joins = append(joins, innerJoins...)

	rv := je.Rarg.GetRangeVar()
	if rv == nil {
		return "", "", nil, fmt.Errorf("%w: joined non-table expression", ErrNotSupported)
	}

	kind := aqr.InnerJoin
	switch je.Jointype {
	case pg_query.JoinType_JOIN_LEFT:
		kind = aqr.LeftJoin
	case pg_query.JoinType_JOIN_RIGHT:
		kind = aqr.RightJoin
	case pg_query.JoinType_JOIN_FULL:
		kind = aqr.FullJoin
	}

	var on aqr.JoinCondition
	if a := je.Quals.GetAExpr(); a != nil {
		left, err := pgColumnName(a.Lexpr)
		if err != nil {
			return "", "", nil, fmt.Errorf("JOIN ON: %w", err)
		}
		right, err := pgColumnName(a.Rexpr)
		if err != nil {
			return "", "", nil, fmt.Errorf("JOIN ON: %w", err)
		}
		on = aqr.JoinCondition{Left: left, Right: right}
	} else {
		return "", "", nil, fmt.Errorf("%w: JOIN without a simple ON condition", ErrNotSupported)
	}

	alias := ""
	if rv.Alias != nil {
		alias = rv.Alias.Aliasname
	}
	joins = append(joins, aqr.Join{Kind: kind, Table: rv.Relname, Alias: alias, On: on})
	return table, subTable, joins, nil
}

func pgTargetList(targets []*pg_query.Node) ([]string, []aqr.Aggregate, error) {
	var fields []string
	var aggregates []aqr.Aggregate

	for _, t := range targets {
		rt := t.GetResTarget()
		if rt == nil {
			continue
		}
		if fc := rt.Val.GetFuncCall(); fc != nil {
			agg, ok, err := pgAggregateCall(fc, rt.Name)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				aggregates = append(aggregates, agg)
				continue
			}
		}
		if ref := rt.Val.GetColumnRef(); ref != nil {
			if pgIsStar(ref) {
				continue
			}
		}
		name, err := pgColumnName(rt.Val)
		if err != nil {
			return nil, nil, fmt.Errorf("projection: %w", err)
		}
		fields = append(fields, name)
	}
	return fields, aggregates, nil
}

func pgIsStar(ref *pg_query.ColumnRef) bool {
	for _, f := range ref.Fields {
		if f.GetAStar() != nil {
			return true
		}
	}
	return false
}

var pgAggFuncs = map[string]aqr.AggFunc{
	"COUNT": aqr.Count, "SUM": aqr.Sum, "AVG": aqr.Avg, "MIN": aqr.Min, "MAX": aqr.Max,
}

func pgAggregateCall(fc *pg_query.FuncCall, alias string) (aqr.Aggregate, bool, error) {
	if fc.Over != nil {
		return aqr.Aggregate{}, false, fmt.Errorf("%w: window function", ErrNotSupported)
	}
	if len(fc.Funcname) == 0 {
		return aqr.Aggregate{}, false, nil
	}
	nameNode := fc.Funcname[len(fc.Funcname)-1].GetString_()
	if nameNode == nil {
		return aqr.Aggregate{}, false, nil
	}
	fn, ok := pgAggFuncs[strings.ToUpper(nameNode.Sval)]
	if !ok {
		return aqr.Aggregate{}, false, nil
	}

	field := "*"
	if !fc.AggStar && len(fc.Args) > 0 {
		var err error
		field, err = pgColumnName(fc.Args[0])
		if err != nil {
			return aqr.Aggregate{}, false, err
		}
	}
	return aqr.Aggregate{Function: fn, Field: field, Alias: alias}, true, nil
}

func pgColumnName(node *pg_query.Node) (string, error) {
	if node == nil {
		return "", fmt.Errorf("%w: missing expression", ErrNotSupported)
	}
	if ref := node.GetColumnRef(); ref != nil {
		var parts []string
		for _, f := range ref.Fields {
			if str := f.GetString_(); str != nil {
				parts = append(parts, str.Sval)
			}
			if f.GetAStar() != nil {
				parts = append(parts, "*")
			}
		}
		return strings.Join(parts, "."), nil
	}
	return "", fmt.Errorf("%w: non-column expression in this position", ErrNotSupported)
}

// pgConditionField resolves the left-hand side of a WHERE/HAVING
// comparison. HAVING commonly compares an aggregate call directly
// ("HAVING COUNT(*) > 5") rather than its alias, so this falls back
// to rendering the call as "FUNC(arg)" when it isn't a plain column.
func pgConditionField(node *pg_query.Node) (string, error) {
	if fc := node.GetFuncCall(); fc != nil {
		return pgFuncCallText(fc)
	}
	return pgColumnName(node)
}

func pgFuncCallText(fc *pg_query.FuncCall) (string, error) {
	if len(fc.Funcname) == 0 {
		return "", fmt.Errorf("%w: unnamed function call", ErrNotSupported)
	}
	nameNode := fc.Funcname[len(fc.Funcname)-1].GetString_()
	if nameNode == nil {
		return "", fmt.Errorf("%w: unnamed function call", ErrNotSupported)
	}
	name := strings.ToUpper(nameNode.Sval)
	if fc.AggStar {
		return name + "(*)", nil
	}
	if len(fc.Args) == 0 {
		return name + "()", nil
	}
	arg, err := pgColumnName(fc.Args[0])
	if err != nil {
		return "", err
	}
	return name + "(" + arg + ")", nil
}

func pgInt(node *pg_query.Node) (int, error) {
	if c := node.GetAConst(); c != nil {
		if iv := c.GetIval(); iv != nil {
			return int(iv.Ival), nil
		}
	}
	return 0, fmt.Errorf("%w: expected an integer literal", ErrNotSupported)
}

func pgConditions(node *pg_query.Node) ([]aqr.Condition, error) {
	if be := node.GetBoolExpr(); be != nil {
		return pgBoolExprConditions(be)
	}
	c, err := pgSingleCondition(node)
	if err != nil {
		return nil, err
	}
	return []aqr.Condition{c}, nil
}

func pgBoolExprConditions(be *pg_query.BoolExpr) ([]aqr.Condition, error) {
	if be.Boolop == pg_query.BoolExprType_NOT_EXPR {
		return nil, fmt.Errorf("%w: NOT is not representable in a flat WHERE chain", ErrNotSupported)
	}

	logic := aqr.And
	if be.Boolop == pg_query.BoolExprType_OR_EXPR {
		logic = aqr.Or
	}

	var conds []aqr.Condition
	for _, arg := range be.Args {
		if arg.GetBoolExpr() != nil {
			return nil, fmt.Errorf("%w: nested boolean grouping is not representable in a flat WHERE chain", ErrNotSupported)
		}
		c, err := pgSingleCondition(arg)
		if err != nil {
			return nil, err
		}
		if len(conds) > 0 {
			conds[len(conds)-1].Logical = logic
		}
		conds = append(conds, c)
	}
	return conds, nil
}

var pgComparisonOps = map[string]aqr.Op{
	"=": aqr.OpEq, "<>": aqr.OpNeq, "!=": aqr.OpNeq,
	">": aqr.OpGt, "<": aqr.OpLt, ">=": aqr.OpGte, "<=": aqr.OpLte,
}

func pgSingleCondition(node *pg_query.Node) (aqr.Condition, error) {
	expr := node.GetAExpr()
	if expr == nil {
		return aqr.Condition{}, fmt.Errorf("%w: only comparison expressions are supported in WHERE/HAVING", ErrNotSupported)
	}

	field, err := pgConditionField(expr.Lexpr)
	if err != nil {
		return aqr.Condition{}, err
	}

	opName := ""
	if len(expr.Name) > 0 {
		if str := expr.Name[0].GetString_(); str != nil {
			opName = str.Sval
		}
	}

	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_IN:
		values, err := pgValueList(expr.Rexpr)
		if err != nil {
			return aqr.Condition{}, err
		}
		op := aqr.OpIn
		if opName == "<>" {
			op = aqr.OpNotIn
		}
		return aqr.Condition{Field: field, Op: op, Values: values}, nil

	case pg_query.A_Expr_Kind_AEXPR_BETWEEN:
		list := expr.Rexpr.GetList()
		if list == nil || len(list.Items) != 2 {
			return aqr.Condition{}, fmt.Errorf("%w: malformed BETWEEN", ErrNotSupported)
		}
		low, err := pgLiteral(list.Items[0])
		if err != nil {
			return aqr.Condition{}, err
		}
		high, err := pgLiteral(list.Items[1])
		if err != nil {
			return aqr.Condition{}, err
		}
		return aqr.Condition{Field: field, Op: aqr.OpBetween, Low: low, High: high}, nil

	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		value, err := pgLiteral(expr.Rexpr)
		if err != nil {
			return aqr.Condition{}, err
		}
		return aqr.Condition{Field: field, Op: aqr.OpLike, Value: value}, nil

	case pg_query.A_Expr_Kind_AEXPR_ILIKE:
		value, err := pgLiteral(expr.Rexpr)
		if err != nil {
			return aqr.Condition{}, err
		}
		return aqr.Condition{Field: field, Op: aqr.OpILike, Value: value}, nil
	}

	op, ok := pgComparisonOps[opName]
	if !ok {
		return aqr.Condition{}, fmt.Errorf("%w: operator %q", ErrNotSupported, opName)
	}
	value, err := pgLiteral(expr.Rexpr)
	if err != nil {
		return aqr.Condition{}, err
	}
	return aqr.Condition{Field: field, Op: op, Value: value}, nil
}

func pgValueList(node *pg_query.Node) ([]any, error) {
	list := node.GetList()
	if list == nil {
		return nil, fmt.Errorf("%w: malformed IN list", ErrNotSupported)
	}
	values := make([]any, len(list.Items))
	for i, item := range list.Items {
		v, err := pgLiteral(item)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func pgLiteral(node *pg_query.Node) (any, error) {
	c := node.GetAConst()
	if c == nil {
		return nil, fmt.Errorf("%w: non-literal value", ErrNotSupported)
	}
	switch {
	case c.GetIval() != nil:
		return int64(c.GetIval().Ival), nil
	case c.GetFval() != nil:
		return c.GetFval().Fval, nil
	case c.GetSval() != nil:
		return c.GetSval().Sval, nil
	case c.GetBoolval() != nil:
		return c.GetBoolval().Boolval, nil
	case c.Isnull:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unrecognized literal", ErrNotSupported)
}
