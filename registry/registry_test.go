package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/keyvalue"
	"github.com/queryfabric/uql/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelational struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRelational) ExecuteSQL(ctx context.Context, sql string) ([]Row, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return []Row{{"sql": sql}}, nil
}

func relationalConn(id string, cap *fakeRelational) (Capability, aqr.ConnectionDescriptor) {
	return Capability{Relational: cap}, aqr.ConnectionDescriptor{ID: id, Kind: aqr.Relational}
}

func TestRegistry_ExecuteDispatchesAndUpdatesLastUsed(t *testing.T) {
	r := New()
	cap, desc := relationalConn("db1", &fakeRelational{})
	r.Register("db1", cap, desc, nil)

	res, err := r.Execute(context.Background(), "db1", `FIND users WHERE id = 1`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "SELECT * FROM users WHERE id = 1", res.TranslatedQuery)

	r.mu.Lock()
	lastUsed := r.entries["db1"].LastUsed
	r.mu.Unlock()
	assert.False(t, lastUsed.IsZero())
}

func TestRegistry_ExecuteUnknownConnection(t *testing.T) {
	r := New()
	_, err := r.Execute(context.Background(), "ghost", `FIND users`)
	require.Error(t, err)
	var unknown *UnknownConnectionError
	require.ErrorAs(t, err, &unknown)
}

func TestRegistry_WideColumnAggregateRaisesUnsupportedBeforeDispatch(t *testing.T) {
	r := New()
	r.Register("wc1", Capability{WideColumn: nil}, aqr.ConnectionDescriptor{
		ID:   "wc1",
		Kind: aqr.WideColumn,
		WideColumn: &aqr.WideColumnSchema{PartitionKey: "id"},
	}, nil)

	_, err := r.Execute(context.Background(), "wc1", `FIND orders FIELDS total: SUM(amount) GROUP BY status`)
	require.Error(t, err)
	var unsupported *translator.UnsupportedForBackendError
	require.ErrorAs(t, err, &unsupported)
}

type fakeKeyValue struct {
	hashGetAllCalls           int
	secondaryIndexSearchCalls int
	lastScanFilterCount       int
}

func (f *fakeKeyValue) DirectGet(ctx context.Context, key string) (Row, error) {
	return Row{"key": key}, nil
}

func (f *fakeKeyValue) HashGetAll(ctx context.Context, key string) (Row, error) {
	f.hashGetAllCalls++
	return Row{"key": key}, nil
}

func (f *fakeKeyValue) NamespaceScan(ctx context.Context, pattern string, count int) ([]Row, error) {
	return nil, nil
}

func (f *fakeKeyValue) ScanFilter(ctx context.Context, pattern string, count int, filters []keyvalue.Filter) ([]Row, error) {
	f.lastScanFilterCount = count
	return nil, nil
}

func (f *fakeKeyValue) SecondaryIndexSearch(ctx context.Context, index, expr string, sort *SortHint, limit *int) ([]Row, error) {
	f.secondaryIndexSearchCalls++
	return nil, nil
}

func TestRegistry_DescriptorKeyValueOptionsReachHashGetAll(t *testing.T) {
	r := New()
	kv := &fakeKeyValue{}
	r.Register("kv1", Capability{KeyValue: kv}, aqr.ConnectionDescriptor{
		ID:       "kv1",
		Kind:     aqr.KeyValue,
		KeyValue: &aqr.KeyValueOptions{AddressesHash: true},
	}, nil)

	_, err := r.Execute(context.Background(), "kv1", `FIND user:42`)
	require.NoError(t, err)
	assert.Equal(t, 1, kv.hashGetAllCalls)
}

func TestRegistry_DescriptorKeyValueOptionsReachSecondaryIndexSearch(t *testing.T) {
	r := New()
	kv := &fakeKeyValue{}
	r.Register("kv1", Capability{KeyValue: kv}, aqr.ConnectionDescriptor{
		ID:       "kv1",
		Kind:     aqr.KeyValue,
		KeyValue: &aqr.KeyValueOptions{HasSearchModule: true},
	}, nil)

	_, err := r.Execute(context.Background(), "kv1", `FIND users WHERE age >= 18`)
	require.NoError(t, err)
	assert.Equal(t, 1, kv.secondaryIndexSearchCalls)
}

func TestRegistry_ScanFilterCountComesFromQueryLimitThroughExecute(t *testing.T) {
	r := New()
	kv := &fakeKeyValue{}
	r.Register("kv1", Capability{KeyValue: kv}, aqr.ConnectionDescriptor{
		ID:       "kv1",
		Kind:     aqr.KeyValue,
		KeyValue: &aqr.KeyValueOptions{ScanCount: 100},
	}, nil)

	_, err := r.Execute(context.Background(), "kv1", `FIND users WHERE status = "active" ORDER BY created_at DESC LIMIT 5`)
	require.NoError(t, err)
	assert.Equal(t, 5, kv.lastScanFilterCount)
}

func TestRegistry_ConcurrentRegisterUnregisterExecuteIsAtomic(t *testing.T) {
	r := New()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i%5)
			cap, desc := relationalConn(id, &fakeRelational{})
			r.Register(id, cap, desc, nil)
			_, _ = r.Execute(context.Background(), id, `FIND users`)
			_ = r.Unregister(id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, r.List())
}

func TestRegistry_ListPreservesRegistrationOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"a", "b", "c"} {
		cap, desc := relationalConn(id, &fakeRelational{})
		r.Register(id, cap, desc, nil)
	}
	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestRegistry_UnregisterClosesHandleExactlyOnce(t *testing.T) {
	r := New()
	cap, desc := relationalConn("db1", &fakeRelational{})
	closer := &closeRecorder{}
	r.Register("db1", cap, desc, closer)

	require.NoError(t, r.Unregister("db1"))
	assert.Equal(t, 1, closer.closed)

	err := r.Unregister("db1")
	require.Error(t, err)
	var unknown *UnknownConnectionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 1, closer.closed)
}

func TestRegistry_ExecuteForwardsCancellation(t *testing.T) {
	r := New()
	cap, desc := relationalConn("db1", &fakeRelational{})
	r.Register("db1", cap, desc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, "db1", `FIND users`)
	require.Error(t, err)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, execErr.Cancelled)

	r.mu.Lock()
	lastUsed := r.entries["db1"].LastUsed
	r.mu.Unlock()
	assert.False(t, lastUsed.IsZero())
}
