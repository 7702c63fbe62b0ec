package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/keyvalue"
	"github.com/queryfabric/uql/registry"
	"github.com/redis/go-redis/v9"
)

// RedisAdapter implements registry.KeyValueCapability over a hash-per-key
// Redis layout, the way the teacher's client.go drives HGETALL/SCAN/KEYS.
type RedisAdapter struct {
	RDB *redis.Client
}

func WrapRedis(rdb *redis.Client) *RedisAdapter {
	return &RedisAdapter{RDB: rdb}
}

func (a *RedisAdapter) DirectGet(ctx context.Context, key string) (registry.Row, error) {
	hash, err := a.RDB.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall error: %w", err)
	}
	return stringMapToRow(hash), nil
}

func (a *RedisAdapter) HashGetAll(ctx context.Context, key string) (registry.Row, error) {
	return a.DirectGet(ctx, key)
}

func (a *RedisAdapter) NamespaceScan(ctx context.Context, pattern string, count int) ([]registry.Row, error) {
	return a.ScanFilter(ctx, pattern, count, nil)
}

func (a *RedisAdapter) ScanFilter(ctx context.Context, pattern string, count int, filters []keyvalue.Filter) ([]registry.Row, error) {
	if count <= 0 {
		count = 100
	}

	var results []registry.Row
	var cursor uint64
	for {
		keys, next, err := a.RDB.Scan(ctx, cursor, pattern, int64(count)).Result()
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		for _, k := range keys {
			hash, err := a.RDB.HGetAll(ctx, k).Result()
			if err != nil || len(hash) == 0 {
				continue
			}
			if matchesFilters(hash, filters) {
				results = append(results, stringMapToRow(hash))
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return results, nil
}

func (a *RedisAdapter) SecondaryIndexSearch(ctx context.Context, index, expr string, sort *registry.SortHint, limit *int) ([]registry.Row, error) {
	args := []any{"FT.SEARCH", index, expr}
	if sort != nil {
		args = append(args, "SORTBY", sort.Field, strings.ToUpper(sort.Direction))
	}
	if limit != nil {
		args = append(args, "LIMIT", 0, *limit)
	}

	reply, err := a.RDB.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("ft.search error: %w", err)
	}
	return parseFTSearchReply(reply), nil
}

// parseFTSearchReply decodes RediSearch's FT.SEARCH reply shape:
// [total, docID1, [field1, value1, ...], docID2, [field2, value2, ...], ...].
func parseFTSearchReply(reply any) []registry.Row {
	items, ok := reply.([]any)
	if !ok || len(items) < 1 {
		return nil
	}

	var results []registry.Row
	for i := 1; i+1 < len(items); i += 2 {
		fields, ok := items[i+1].([]any)
		if !ok {
			continue
		}
		row := registry.Row{}
		for j := 0; j+1 < len(fields); j += 2 {
			k := fmt.Sprint(fields[j])
			row[k] = fields[j+1]
		}
		results = append(results, row)
	}
	return results
}

func stringMapToRow(m map[string]string) registry.Row {
	row := make(registry.Row, len(m))
	for k, v := range m {
		row[k] = v
	}
	return row
}

func matchesFilters(hash map[string]string, filters []keyvalue.Filter) bool {
	for _, f := range filters {
		actual, exists := hash[f.Field]
		if !exists {
			if f.Op == aqr.OpNeq {
				continue
			}
			return false
		}
		if !matchFilter(actual, f) {
			return false
		}
	}
	return true
}

func matchFilter(actual string, f keyvalue.Filter) bool {
	expected := fmt.Sprint(f.Value)
	switch f.Op {
	case aqr.OpEq:
		return actual == expected
	case aqr.OpNeq:
		return actual != expected
	case aqr.OpGt:
		return compareNumeric(actual, expected) > 0
	case aqr.OpGte:
		return compareNumeric(actual, expected) >= 0
	case aqr.OpLt:
		return compareNumeric(actual, expected) < 0
	case aqr.OpLte:
		return compareNumeric(actual, expected) <= 0
	case aqr.OpLike:
		return matchLike(actual, expected, true)
	case aqr.OpILike:
		return matchLike(actual, expected, false)
	}
	return actual == expected
}

func matchLike(actual, pattern string, caseSensitive bool) bool {
	if !caseSensitive {
		actual = strings.ToLower(actual)
		pattern = strings.ToLower(pattern)
	}
	switch {
	case pattern == "%":
		return true
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%") && len(pattern) > 1:
		return strings.Contains(actual, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "%"):
		return strings.HasSuffix(actual, pattern[1:])
	case strings.HasSuffix(pattern, "%"):
		return strings.HasPrefix(actual, pattern[:len(pattern)-1])
	default:
		return actual == pattern
	}
}

func compareNumeric(a, b string) int {
	aNum, errA := strconv.ParseFloat(a, 64)
	bNum, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case aNum < bNum:
		return -1
	case aNum > bNum:
		return 1
	default:
		return 0
	}
}
