package keyvalue

import (
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/stretchr/testify/assert"
)

func TestToPlan_DirectGetOnConcreteKeyNoWhere(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "user:42"}, Options{})
	assert.Equal(t, DirectGet, plan.Kind)
	assert.Equal(t, "user:42", plan.Key)
}

func TestToPlan_HashGetAllWhenAddressesHash(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "user:42"}, Options{AddressesHash: true})
	assert.Equal(t, HashGetAll, plan.Kind)
	assert.Equal(t, "user:42", plan.Key)
}

func TestToPlan_NamespaceScanSingularizesCollectionName(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "users"}, Options{ScanCount: 100})
	assert.Equal(t, NamespaceScan, plan.Kind)
	assert.Equal(t, "user:*", plan.Pattern)
	assert.Equal(t, 100, plan.Count)
}

func TestToPlan_NamespaceScanSingularizesIesSuffix(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "categories"}, Options{})
	assert.Equal(t, "category:*", plan.Pattern)
}

func TestToPlan_ScanFilterWhenWherePresent(t *testing.T) {
	plan := ToPlan(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "status", Op: aqr.OpEq, Value: "active"}},
	}, Options{})
	assert.Equal(t, ScanFilter, plan.Kind)
	assert.Equal(t, "user:*", plan.Pattern)
	assert.Equal(t, []Filter{{Field: "status", Op: aqr.OpEq, Value: "active"}}, plan.Filters)
}

func TestToPlan_ScanFilterCountComesFromQueryLimit(t *testing.T) {
	// spec.md §8 scenario 1: FIND users WHERE status = "active" ORDER BY
	// created_at DESC LIMIT 5 -> ScanFilter(pattern="user:*", count=5).
	limit := 5
	plan := ToPlan(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "status", Op: aqr.OpEq, Value: "active"}},
		OrderBy: []aqr.Order{{Field: "created_at", Direction: aqr.Desc}},
		Limit: &limit,
	}, Options{ScanCount: 100})
	assert.Equal(t, ScanFilter, plan.Kind)
	assert.Equal(t, "user:*", plan.Pattern)
	assert.Equal(t, 5, plan.Count)
	assert.Equal(t, []Filter{{Field: "status", Op: aqr.OpEq, Value: "active"}}, plan.Filters)
}

func TestToPlan_NamespaceScanCountFallsBackToOptionsWithoutLimit(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "users"}, Options{ScanCount: 100})
	assert.Equal(t, NamespaceScan, plan.Kind)
	assert.Equal(t, 100, plan.Count)
}

func TestToPlan_SecondaryIndexSearchWhenModuleAndRangePredicate(t *testing.T) {
	limit := 20
	plan := ToPlan(&aqr.Query{
		Table: "users",
		Where: []aqr.Condition{{Field: "age", Op: aqr.OpGte, Value: int64(18)}},
		Limit: &limit,
	}, Options{HasSearchModule: true})
	assert.Equal(t, SecondaryIndexSearch, plan.Kind)
	assert.Equal(t, "users", plan.Index)
	assert.Equal(t, &limit, plan.Limit)
}

func TestToPlan_FallsBackToDirectGetWhenNoVariantApplies(t *testing.T) {
	plan := ToPlan(&aqr.Query{Table: "user:42", Where: []aqr.Condition{{Field: "x", Op: aqr.OpEq, Value: 1}}}, Options{})
	assert.Equal(t, DirectGet, plan.Kind)
	assert.Equal(t, "user:42", plan.Key)
}
