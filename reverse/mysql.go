package reverse

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/opcode"
	"github.com/pingcap/tidb/parser/test_driver"
	"github.com/queryfabric/uql/aqr"
)

// FromMySQL reconstructs an AQR FIND from a single MySQL SELECT
// statement.
func FromMySQL(sql string) (*aqr.Query, error) {
	p := parser.New()
	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: empty statement", ErrParseError)
	}

	sel, ok := stmts[0].(*ast.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("%w: only SELECT can be reconstructed", ErrNotSupported)
	}
	return mysqlConvertSelect(sel)
}

func mysqlConvertSelect(sel *ast.SelectStmt) (*aqr.Query, error) {
	if sel.From == nil {
		return nil, fmt.Errorf("%w: SELECT without FROM", ErrNotSupported)
	}
	if sel.With != nil {
		return nil, fmt.Errorf("%w: WITH (CTE)", ErrNotSupported)
	}

	table, subTable, joins, err := mysqlTableRefs(sel.From.TableRefs)
	if err != nil {
		return nil, err
	}
	q := &aqr.Query{Operation: aqr.OpFind, Table: table, SubTable: subTable, Joins: joins}

	if sel.Fields != nil {
		fields, aggregates, err := mysqlFields(sel.Fields.Fields)
		if err != nil {
			return nil, fmt.Errorf("projection: %w", err)
		}
		q.Fields = fields
		q.Aggregate = aggregates
	}

	if sel.Where != nil {
		conds, err := mysqlConditions(sel.Where)
		if err != nil {
			return nil, fmt.Errorf("WHERE: %w", err)
		}
		q.Where = conds
	}

	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			name, err := mysqlColumnName(item.Expr)
			if err != nil {
				return nil, fmt.Errorf("GROUP BY: %w", err)
			}
			q.GroupBy = append(q.GroupBy, name)
		}
	}

	if sel.Having != nil {
		conds, err := mysqlConditions(sel.Having.Expr)
		if err != nil {
			return nil, fmt.Errorf("HAVING: %w", err)
		}
		q.Having = conds
	}

	if sel.OrderBy != nil {
		for _, item := range sel.OrderBy.Items {
			name, err := mysqlColumnName(item.Expr)
			if err != nil {
				return nil, fmt.Errorf("ORDER BY: %w", err)
			}
			dir := aqr.Asc
			if item.Desc {
				dir = aqr.Desc
			}
			q.OrderBy = append(q.OrderBy, aqr.Order{Field: name, Direction: dir})
		}
	}

	if sel.Limit != nil {
		if sel.Limit.Count != nil {
			n, err := mysqlInt(sel.Limit.Count)
			if err != nil {
				return nil, fmt.Errorf("LIMIT: %w", err)
			}
			q.Limit = &n
		}
		if sel.Limit.Offset != nil {
			n, err := mysqlInt(sel.Limit.Offset)
			if err != nil {
				return nil, fmt.Errorf("OFFSET: %w", err)
			}
			q.Offset = &n
		}
	}

	return q, nil
}

func mysqlTableRefs(join *ast.Join) (table, subTable string, joins []aqr.Join, err error) {
	if join == nil {
		return "", "", nil, fmt.Errorf("%w: empty FROM", ErrNotSupported)
	}

	if join.Right == nil {
		return mysqlTableSource(join.Left)
	}

	table, subTable, leftJoins, err := mysqlTableRefsNode(join.Left)
	if err != nil {
		return "", "", nil, err
	}

	rightTable, _, _, err := mysqlTableSource(join.Right)
	if err != nil {
		return "", "", nil, err
	}
	rightAlias := mysqlTableAlias(join.Right)

	kind := aqr.InnerJoin
	switch join.Tp {
	case ast.LeftJoin:
		kind = aqr.LeftJoin
	case ast.RightJoin:
		kind = aqr.RightJoin
	}

	var on aqr.JoinCondition
	if join.On != nil {
		binOp, ok := join.On.Expr.(*ast.BinaryOperationExpr)
		if !ok || binOp.Op != opcode.EQ {
			return "", "", nil, fmt.Errorf("%w: JOIN without a simple equality ON condition", ErrNotSupported)
		}
		left, err := mysqlColumnName(binOp.L)
		if err != nil {
			return "", "", nil, fmt.Errorf("JOIN ON: %w", err)
		}
		right, err := mysqlColumnName(binOp.R)
		if err != nil {
			return "", "", nil, fmt.Errorf("JOIN ON: %w", err)
		}
		on = aqr.JoinCondition{Left: left, Right: right}
	} else {
		return "", "", nil, fmt.Errorf("%w: JOIN without ON", ErrNotSupported)
	}

	joins = append(leftJoins, aqr.Join{Kind: kind, Table: rightTable, Alias: rightAlias, On: on})
	return table, subTable, joins, nil
}

func mysqlTableRefsNode(node ast.ResultSetNode) (table, subTable string, joins []aqr.Join, err error) {
	if j, ok := node.(*ast.Join); ok {
		return mysqlTableRefs(j)
	}
	return mysqlTableSource(node)
}

func mysqlTableSource(node ast.ResultSetNode) (table, subTable string, joins []aqr.Join, err error) {
	ts, ok := node.(*ast.TableSource)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: unsupported FROM item", ErrNotSupported)
	}
	tn, ok := ts.Source.(*ast.TableName)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: unsupported FROM item", ErrNotSupported)
	}
	return tn.Name.O, tn.Schema.O, nil, nil
}

func mysqlTableAlias(node ast.ResultSetNode) string {
	if ts, ok := node.(*ast.TableSource); ok {
		return ts.AsName.O
	}
	return ""
}

func mysqlFields(fields []*ast.SelectField) ([]string, []aqr.Aggregate, error) {
	var cols []string
	var aggregates []aqr.Aggregate

	for _, f := range fields {
		if f.WildCard != nil {
			continue
		}
		if aggExpr, ok := f.Expr.(*ast.AggregateFuncExpr); ok {
			fn, ok := mysqlAggFuncs[strings.ToUpper(aggExpr.F)]
			if !ok {
				return nil, nil, fmt.Errorf("%w: aggregate function %q", ErrNotSupported, aggExpr.F)
			}
			// The parser represents COUNT(*) as a call with one literal
			// argument, so a literal argument is read back as "*".
			field := "*"
			if len(aggExpr.Args) > 0 {
				if _, isLiteral := aggExpr.Args[0].(*test_driver.ValueExpr); !isLiteral {
					name, err := mysqlColumnName(aggExpr.Args[0])
					if err != nil {
						return nil, nil, err
					}
					field = name
				}
			}
			aggregates = append(aggregates, aqr.Aggregate{Function: fn, Field: field, Alias: f.AsName.O})
			continue
		}
		name, err := mysqlColumnName(f.Expr)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, name)
	}
	return cols, aggregates, nil
}

var mysqlAggFuncs = map[string]aqr.AggFunc{
	"COUNT": aqr.Count, "SUM": aqr.Sum, "AVG": aqr.Avg, "MIN": aqr.Min, "MAX": aqr.Max,
}

func mysqlColumnName(expr ast.ExprNode) (string, error) {
	col, ok := expr.(*ast.ColumnNameExpr)
	if !ok {
		return "", fmt.Errorf("%w: non-column expression in this position", ErrNotSupported)
	}
	if col.Name.Table.O != "" {
		return col.Name.Table.O + "." + col.Name.Name.O, nil
	}
	return col.Name.Name.O, nil
}

// mysqlConditionField resolves the left-hand side of a WHERE/HAVING
// comparison. HAVING commonly compares an aggregate call directly
// ("HAVING COUNT(*) > 5") rather than its alias, so this falls back
// to rendering the call as "FUNC(arg)" when it isn't a plain column.
func mysqlConditionField(expr ast.ExprNode) (string, error) {
	if agg, ok := expr.(*ast.AggregateFuncExpr); ok {
		name := strings.ToUpper(agg.F)
		if len(agg.Args) == 0 {
			return name + "(*)", nil
		}
		if _, isLiteral := agg.Args[0].(*test_driver.ValueExpr); isLiteral {
			return name + "(*)", nil
		}
		arg, err := mysqlColumnName(agg.Args[0])
		if err != nil {
			return "", err
		}
		return name + "(" + arg + ")", nil
	}
	return mysqlColumnName(expr)
}

func mysqlInt(expr ast.ExprNode) (int, error) {
	val, ok := expr.(*test_driver.ValueExpr)
	if !ok {
		return 0, fmt.Errorf("%w: expected an integer literal", ErrNotSupported)
	}
	return int(val.GetInt64()), nil
}

func mysqlConditions(expr ast.ExprNode) ([]aqr.Condition, error) {
	if bin, ok := expr.(*ast.BinaryOperationExpr); ok {
		switch bin.Op {
		case opcode.LogicAnd, opcode.LogicOr:
			left, err := mysqlConditions(bin.L)
			if err != nil {
				return nil, err
			}
			right, err := mysqlConditions(bin.R)
			if err != nil {
				return nil, err
			}
			logic := aqr.And
			if bin.Op == opcode.LogicOr {
				logic = aqr.Or
			}
			if len(left) > 0 {
				left[len(left)-1].Logical = logic
			}
			return append(left, right...), nil
		}
	}

	c, err := mysqlSingleCondition(expr)
	if err != nil {
		return nil, err
	}
	return []aqr.Condition{c}, nil
}

var mysqlComparisonOps = map[opcode.Op]aqr.Op{
	opcode.EQ: aqr.OpEq, opcode.NE: aqr.OpNeq,
	opcode.LT: aqr.OpLt, opcode.GT: aqr.OpGt,
	opcode.LE: aqr.OpLte, opcode.GE: aqr.OpGte,
}

func mysqlSingleCondition(expr ast.ExprNode) (aqr.Condition, error) {
	switch e := expr.(type) {
	case *ast.BinaryOperationExpr:
		op, ok := mysqlComparisonOps[e.Op]
		if !ok {
			return aqr.Condition{}, fmt.Errorf("%w: operator %q", ErrNotSupported, e.Op.String())
		}
		field, err := mysqlConditionField(e.L)
		if err != nil {
			return aqr.Condition{}, err
		}
		value, err := mysqlLiteral(e.R)
		if err != nil {
			return aqr.Condition{}, err
		}
		return aqr.Condition{Field: field, Op: op, Value: value}, nil

	case *ast.PatternInExpr:
		if e.Not {
			return mysqlInCondition(e, aqr.OpNotIn)
		}
		return mysqlInCondition(e, aqr.OpIn)

	case *ast.PatternLikeOrIlikeExpr:
		field, err := mysqlColumnName(e.Expr)
		if err != nil {
			return aqr.Condition{}, err
		}
		value, err := mysqlLiteral(e.Pattern)
		if err != nil {
			return aqr.Condition{}, err
		}
		op := aqr.OpLike
		if e.Not {
			return aqr.Condition{}, fmt.Errorf("%w: NOT LIKE", ErrNotSupported)
		}
		return aqr.Condition{Field: field, Op: op, Value: value}, nil

	case *ast.BetweenExpr:
		if e.Not {
			return aqr.Condition{}, fmt.Errorf("%w: NOT BETWEEN", ErrNotSupported)
		}
		field, err := mysqlColumnName(e.Expr)
		if err != nil {
			return aqr.Condition{}, err
		}
		low, err := mysqlLiteral(e.Left)
		if err != nil {
			return aqr.Condition{}, err
		}
		high, err := mysqlLiteral(e.Right)
		if err != nil {
			return aqr.Condition{}, err
		}
		return aqr.Condition{Field: field, Op: aqr.OpBetween, Low: low, High: high}, nil

	case *ast.ParenthesesExpr:
		return mysqlSingleCondition(e.Expr)
	}

	return aqr.Condition{}, fmt.Errorf("%w: unsupported condition type %T", ErrNotSupported, expr)
}

func mysqlInCondition(e *ast.PatternInExpr, op aqr.Op) (aqr.Condition, error) {
	field, err := mysqlColumnName(e.Expr)
	if err != nil {
		return aqr.Condition{}, err
	}
	values := make([]any, len(e.List))
	for i, v := range e.List {
		val, err := mysqlLiteral(v)
		if err != nil {
			return aqr.Condition{}, err
		}
		values[i] = val
	}
	return aqr.Condition{Field: field, Op: op, Values: values}, nil
}

func mysqlLiteral(expr ast.ExprNode) (any, error) {
	val, ok := expr.(*test_driver.ValueExpr)
	if !ok {
		return nil, fmt.Errorf("%w: non-literal value", ErrNotSupported)
	}
	d := val.Datum
	switch d.Kind() {
	case test_driver.KindInt64:
		return d.GetInt64(), nil
	case test_driver.KindUint64:
		return d.GetUint64(), nil
	case test_driver.KindFloat64:
		return d.GetFloat64(), nil
	case test_driver.KindString:
		return d.GetString(), nil
	case test_driver.KindBytes:
		return string(d.GetBytes()), nil
	case test_driver.KindNull:
		return nil, nil
	default:
		return fmt.Sprintf("%v", d.GetValue()), nil
	}
}
