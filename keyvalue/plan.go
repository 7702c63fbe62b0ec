// Package keyvalue turns an AQR into a command plan a key-value runtime
// can execute directly, per spec.md §4.6. Unlike the SQL-shaped
// translators, there is no intermediate request string: the plan is a
// tagged variant the host dispatches on.
package keyvalue

import (
	"fmt"
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/internal/shape"
)

// Kind tags which plan variant ToPlan produced.
type Kind string

const (
	DirectGet            Kind = "DIRECT_GET"
	HashGetAll           Kind = "HASH_GET_ALL"
	NamespaceScan        Kind = "NAMESPACE_SCAN"
	ScanFilter           Kind = "SCAN_FILTER"
	SecondaryIndexSearch Kind = "SECONDARY_INDEX_SEARCH"
)

// Filter is one client-side predicate applied after a ScanFilter scan
// returns, per spec.md §4.6.
type Filter struct {
	Field string
	Op    aqr.Op
	Value any
}

// Plan is the tagged command a key-value runtime executes. Only the
// fields relevant to Kind are populated.
type Plan struct {
	Kind Kind

	Key string // DirectGet, HashGetAll

	Pattern string // NamespaceScan, ScanFilter
	Count   int    // NamespaceScan, ScanFilter: scan COUNT hint
	Filters []Filter

	Index string     // SecondaryIndexSearch
	Expr  string      // SecondaryIndexSearch: module query syntax
	Sort  *aqr.Order // SecondaryIndexSearch
	Limit *int       // SecondaryIndexSearch
}

// Options supplies the facts about the backend that the AQR alone
// cannot express: whether table already names a hash key, and whether
// the runtime advertises a secondary-search module.
type Options struct {
	AddressesHash   bool
	HasSearchModule bool
	ScanCount       int
}

// ToPlan selects a plan variant for q, per spec.md §4.6's precedence.
func ToPlan(q *aqr.Query, opts Options) Plan {
	concreteKey := strings.Contains(q.Table, ":")

	if concreteKey && len(q.Where) == 0 {
		if opts.AddressesHash {
			return Plan{Kind: HashGetAll, Key: q.Table}
		}
		return Plan{Kind: DirectGet, Key: q.Table}
	}

	if opts.HasSearchModule && hasSearchablePredicate(q.Where) {
		return Plan{
			Kind:  SecondaryIndexSearch,
			Index: q.Table,
			Expr:  buildSearchExpr(q.Where),
			Sort:  firstOrder(q.OrderBy),
			Limit: q.Limit,
		}
	}

	if !concreteKey && len(q.Where) == 0 {
		return Plan{Kind: NamespaceScan, Pattern: shape.Singularize(q.Table) + ":*", Count: scanCount(q, opts)}
	}

	if !concreteKey && len(q.Where) > 0 {
		return Plan{
			Kind:    ScanFilter,
			Pattern: shape.Singularize(q.Table) + ":*",
			Count:   scanCount(q, opts),
			Filters: toFilters(q.Where),
		}
	}

	return Plan{Kind: DirectGet, Key: q.Table}
}

// scanCount derives the scan COUNT hint from the query's own LIMIT
// when the caller gave one (spec.md §8 scenario 1: "LIMIT 5" must
// drive the scan's count, not an unrelated caller default), falling
// back to opts.ScanCount only when the query has no LIMIT.
func scanCount(q *aqr.Query, opts Options) int {
	if q.Limit != nil {
		return *q.Limit
	}
	return opts.ScanCount
}

func hasSearchablePredicate(conditions []aqr.Condition) bool {
	for _, c := range conditions {
		switch c.Op {
		case aqr.OpLike, aqr.OpILike, aqr.OpGt, aqr.OpGte, aqr.OpLt, aqr.OpLte, aqr.OpBetween:
			return true
		}
	}
	return false
}

func toFilters(conditions []aqr.Condition) []Filter {
	out := make([]Filter, len(conditions))
	for i, c := range conditions {
		out[i] = Filter{Field: c.Field, Op: c.Op, Value: c.Value}
	}
	return out
}

func firstOrder(orders []aqr.Order) *aqr.Order {
	if len(orders) == 0 {
		return nil
	}
	o := orders[0]
	return &o
}

// buildSearchExpr renders where as a simple "field:op:value field:op:value"
// query string. The exact module syntax (e.g. RediSearch) is an
// external collaborator's concern; this is a neutral intermediate the
// adapter translates further.
func buildSearchExpr(conditions []aqr.Condition) string {
	var parts []string
	for _, c := range conditions {
		parts = append(parts, c.Field+":"+string(c.Op)+":"+toText(c.Value))
	}
	return strings.Join(parts, " ")
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
