package translator

import (
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaFor(pk, sk string) aqr.WideColumnSchema {
	return aqr.WideColumnSchema{PartitionKey: pk, SortKey: sk}
}

func TestToWideColumn_PartitionKeyEqualityIsKeyCondition(t *testing.T) {
	q := &aqr.Query{
		Table: "orders",
		Where: []aqr.Condition{{Field: "customer_id", Op: aqr.OpEq, Value: "c1"}},
	}
	res, err := ToWideColumn(q, schemaFor("customer_id", "order_id"))
	require.NoError(t, err)
	assert.True(t, res.IsKeyConditionQuery)
	assert.Equal(t, "SELECT * FROM orders WHERE customer_id = 'c1'", res.Statement)
}

func TestToWideColumn_SortKeyPrefixBecomesBeginsWith(t *testing.T) {
	q := &aqr.Query{
		Table: "orders",
		Where: []aqr.Condition{
			{Field: "customer_id", Op: aqr.OpEq, Value: "c1"},
			{Field: "order_id", Op: aqr.OpLike, Value: "2026-%"},
		},
	}
	res, err := ToWideColumn(q, schemaFor("customer_id", "order_id"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE customer_id = 'c1' AND begins_with(order_id, '2026-')", res.Statement)
}

func TestToWideColumn_NoPartitionKeyEqualityFallsBackToScan(t *testing.T) {
	q := &aqr.Query{
		Table: "orders",
		Where: []aqr.Condition{{Field: "status", Op: aqr.OpEq, Value: "shipped"}},
	}
	res, err := ToWideColumn(q, schemaFor("customer_id", "order_id"))
	require.NoError(t, err)
	assert.False(t, res.IsKeyConditionQuery)
	assert.Contains(t, res.Statement, "WHERE #n0 = 'shipped'")
	assert.Equal(t, "status", res.AttributeNames["#n0"])
}

func TestToWideColumn_AggregateRaisesUnsupported(t *testing.T) {
	q := &aqr.Query{Table: "orders", Aggregate: []aqr.Aggregate{{Function: aqr.Count}}}
	_, err := ToWideColumn(q, schemaFor("customer_id", ""))
	require.Error(t, err)
	var unsupported *UnsupportedForBackendError
	require.ErrorAs(t, err, &unsupported)
}

func TestToWideColumn_JoinRaisesUnsupported(t *testing.T) {
	q := &aqr.Query{
		Table: "orders",
		Joins: []aqr.Join{{Kind: aqr.InnerJoin, Table: "customers", On: aqr.JoinCondition{Left: "a", Right: "b"}}},
	}
	_, err := ToWideColumn(q, schemaFor("customer_id", ""))
	require.Error(t, err)
	var unsupported *UnsupportedForBackendError
	require.ErrorAs(t, err, &unsupported)
}

func TestToWideColumn_GroupByRaisesUnsupported(t *testing.T) {
	q := &aqr.Query{Table: "orders", GroupBy: []string{"region"}}
	_, err := ToWideColumn(q, schemaFor("customer_id", ""))
	require.Error(t, err)
	var unsupported *UnsupportedForBackendError
	require.ErrorAs(t, err, &unsupported)
}
