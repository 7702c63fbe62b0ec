package reverse

import (
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPostgreSQL_BasicSelect(t *testing.T) {
	q, err := FromPostgreSQL(`SELECT id, name FROM users WHERE status = 'active' LIMIT 10`)
	require.NoError(t, err)
	assert.Equal(t, "users", q.Table)
	assert.Equal(t, []string{"id", "name"}, q.Fields)
	require.Len(t, q.Where, 1)
	assert.Equal(t, aqr.Condition{Field: "status", Op: aqr.OpEq, Value: "active"}, q.Where[0])
	require.NotNil(t, q.Limit)
	assert.Equal(t, 10, *q.Limit)
}

func TestFromPostgreSQL_JoinAndOrderBy(t *testing.T) {
	q, err := FromPostgreSQL(`
		SELECT orders.id, customers.name
		FROM orders
		JOIN customers ON orders.customer_id = customers.id
		ORDER BY orders.id DESC
	`)
	require.NoError(t, err)
	assert.Equal(t, "orders", q.Table)
	require.Len(t, q.Joins, 1)
	assert.Equal(t, aqr.InnerJoin, q.Joins[0].Kind)
	assert.Equal(t, "customers", q.Joins[0].Table)
	assert.Equal(t, aqr.JoinCondition{Left: "orders.customer_id", Right: "customers.id"}, q.Joins[0].On)
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, aqr.Desc, q.OrderBy[0].Direction)
}

func TestFromPostgreSQL_GroupByHavingAggregate(t *testing.T) {
	q, err := FromPostgreSQL(`
		SELECT status, COUNT(*) AS total
		FROM orders
		GROUP BY status
		HAVING COUNT(*) > 5
	`)
	require.NoError(t, err)
	require.Len(t, q.Aggregate, 1)
	assert.Equal(t, aqr.Count, q.Aggregate[0].Function)
	assert.Equal(t, "total", q.Aggregate[0].Alias)
	assert.Equal(t, []string{"status"}, q.GroupBy)
	require.Len(t, q.Having, 1)
	assert.Equal(t, aqr.OpGt, q.Having[0].Op)
}

func TestFromPostgreSQL_InBetweenLike(t *testing.T) {
	q, err := FromPostgreSQL(`
		SELECT id FROM products
		WHERE category IN ('a', 'b')
		AND price BETWEEN 10 AND 20
		AND name LIKE 'foo%'
	`)
	require.NoError(t, err)
	require.Len(t, q.Where, 3)
	assert.Equal(t, aqr.OpIn, q.Where[0].Op)
	assert.Equal(t, []any{"a", "b"}, q.Where[0].Values)
	assert.Equal(t, aqr.OpBetween, q.Where[1].Op)
	assert.Equal(t, aqr.OpLike, q.Where[2].Op)
}

func TestFromPostgreSQL_RejectsNonSelect(t *testing.T) {
	_, err := FromPostgreSQL(`DELETE FROM users WHERE id = 1`)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestFromPostgreSQL_RejectsNestedBooleanGrouping(t *testing.T) {
	_, err := FromPostgreSQL(`SELECT id FROM users WHERE (a = 1 OR b = 2) AND c = 3`)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestFromPostgreSQL_RejectsMalformedSQL(t *testing.T) {
	_, err := FromPostgreSQL(`SELEC * FORM users`)
	assert.ErrorIs(t, err, ErrParseError)
}
