package parser

import (
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSerialize_RoundTripsThroughParse checks spec.md §8's testable
// property Parse(Serialize(q)) = q over the {FIND, FIELDS, WHERE
// =/>/<, ORDER BY, LIMIT} subset.
func TestSerialize_RoundTripsThroughParse(t *testing.T) {
	limit := 5
	cases := []*aqr.Query{
		{
			Operation: aqr.OpFind,
			Table:     "users",
			Where:     []aqr.Condition{{Field: "status", Op: aqr.OpEq, Value: "active"}},
			OrderBy:   []aqr.Order{{Field: "created_at", Direction: aqr.Desc}},
			Limit:     &limit,
		},
		{
			Operation: aqr.OpFind,
			Table:     "orders",
			Fields:    []string{"id", "total"},
			Where: []aqr.Condition{
				{Field: "total", Op: aqr.OpGt, Value: int64(100), Logical: aqr.And},
				{Field: "total", Op: aqr.OpLt, Value: int64(1000)},
			},
		},
		{
			Operation: aqr.OpFind,
			Table:     "products",
			Where:     []aqr.Condition{{Field: "price", Op: aqr.OpEq, Value: 19.99}},
			OrderBy:   []aqr.Order{{Field: "name", Direction: aqr.Asc}},
		},
	}

	for _, q := range cases {
		uql := Serialize(q)
		got, err := Parse(uql)
		require.NoError(t, err, "serialized UQL: %s", uql)
		assert.Equal(t, q, got, "serialized UQL: %s", uql)
	}
}

func TestSerialize_EscapesStringLiterals(t *testing.T) {
	q := &aqr.Query{
		Operation: aqr.OpFind,
		Table:     "notes",
		Where:     []aqr.Condition{{Field: "body", Op: aqr.OpEq, Value: `say "hi"\bye`}},
	}
	uql := Serialize(q)
	got, err := Parse(uql)
	require.NoError(t, err, "serialized UQL: %s", uql)
	assert.Equal(t, q, got)
}

func TestSerialize_NotInListRoundTrips(t *testing.T) {
	q := &aqr.Query{
		Operation: aqr.OpFind,
		Table:     "users",
		Where:     []aqr.Condition{{Field: "role", Op: aqr.OpNotIn, Values: []any{"admin", "super_admin"}}},
	}
	uql := Serialize(q)
	got, err := Parse(uql)
	require.NoError(t, err, "serialized UQL: %s", uql)
	assert.Equal(t, q, got)
}
