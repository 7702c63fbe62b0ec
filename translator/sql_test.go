package translator

import (
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSQL_BasicSelectStar(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestToSQL_ProjectionAndSubTable(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		SubTable: "public",
		Table:    "users",
		Fields:   []string{"id", "name"},
		Where:    []aqr.Condition{{Field: "id", Op: aqr.OpEq, Value: int64(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM public.users WHERE id = 1", sql)
}

func TestToSQL_StringLiteralQuotingAndDoubling(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "name", Op: aqr.OpEq, Value: "O'Brien"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM users WHERE name = 'O''Brien'`, sql)
}

func TestToSQL_InAndNotInLists(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "status", Op: aqr.OpNotIn, Values: []any{"banned", "pending"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM users WHERE status NOT IN ('banned', 'pending')`, sql)
}

func TestToSQL_Between(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "age", Op: aqr.OpBetween, Low: int64(18), High: int64(65)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE age BETWEEN 18 AND 65", sql)
}

func TestToSQL_WhereChainUsesDeclaredConnectives(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{
			{Field: "status", Op: aqr.OpEq, Value: "active", Logical: aqr.And},
			{Field: "age", Op: aqr.OpGte, Value: int64(18), Logical: aqr.Or},
			{Field: "vip", Op: aqr.OpEq, Value: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE status = 'active' AND age >= 18 OR vip = true", sql)
}

func TestToSQL_JoinEmitsFullOuterAndAlias(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Joins: []aqr.Join{{
			Kind: aqr.FullJoin, Table: "orders", Alias: "o",
			On: aqr.JoinCondition{Left: "users.id", Right: "o.user_id"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users FULL OUTER JOIN orders o ON users.id = o.user_id", sql)
}

func TestToSQL_AggregateGroupByAndCompatibleOrderBy(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table:     "orders",
		GroupBy:   []string{"region"},
		Aggregate: []aqr.Aggregate{{Function: aqr.Sum, Field: "amount", Alias: "total"}},
		OrderBy:   []aqr.Order{{Field: "total", Direction: aqr.Desc}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT region, SUM(amount) AS total FROM orders GROUP BY region ORDER BY SUM(amount) DESC", sql)
}

func TestToSQL_IncompatibleOrderByDropped(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table:     "orders",
		GroupBy:   []string{"region"},
		Aggregate: []aqr.Aggregate{{Function: aqr.Count}},
		OrderBy: []aqr.Order{
			{Field: "region", Direction: aqr.Asc},
			{Field: "unrelated_field", Direction: aqr.Desc},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT region, COUNT(*) AS count FROM orders GROUP BY region ORDER BY region ASC", sql)
}

func TestToSQL_EndToEndAggregationScenario(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table:   "orders",
		GroupBy: []string{"status"},
		Aggregate: []aqr.Aggregate{
			{Function: aqr.Count, Field: "*", Alias: "count"},
			{Function: aqr.Sum, Field: "amount", Alias: "total"},
		},
		OrderBy: []aqr.Order{{Field: "total", Direction: aqr.Desc}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT status, COUNT(*) AS count, SUM(amount) AS total FROM orders GROUP BY status ORDER BY SUM(amount) DESC", sql)
}

func TestToSQL_NotInThenInPrecedence(t *testing.T) {
	sql, err := ToSQL(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{
			{Field: "role", Op: aqr.OpNotIn, Values: []any{"admin", "super_admin"}, Logical: aqr.And},
			{Field: "status", Op: aqr.OpIn, Values: []any{"active", "pending"}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "role NOT IN ('admin', 'super_admin') AND status IN ('active', 'pending')")
}

func TestToSQL_LimitAndOffset(t *testing.T) {
	limit, offset := 5, 10
	sql, err := ToSQL(&aqr.Query{Table: "users", Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users LIMIT 5 OFFSET 10", sql)
}

func TestToSQL_Deterministic(t *testing.T) {
	q := &aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "status", Op: aqr.OpEq, Value: "active"}},
	}
	first, err := ToSQL(q)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ToSQL(q)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
