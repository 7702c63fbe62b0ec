package registry

import (
	"context"
	"sync"
	"time"

	"github.com/queryfabric/uql/aqr"
	"github.com/queryfabric/uql/keyvalue"
	"github.com/queryfabric/uql/parser"
	"github.com/queryfabric/uql/translator"
)

// Closer is implemented by a client handle that owns a resource the
// host wants released on Unregister/Cleanup. The registry invokes it
// exactly once.
type Closer interface {
	Close() error
}

// ActiveConnection is a registered backend handle together with its
// descriptor and bookkeeping, per spec.md §3.
type ActiveConnection struct {
	Descriptor aqr.ConnectionDescriptor
	Capability Capability
	Closer     Closer // optional

	LastUsed time.Time
	Healthy  bool
}

// Result is what Execute returns, per spec.md §3's "Query result".
type Result struct {
	Rows            []Row
	Count           int
	TranslatedQuery any
	OriginalQuery   string
}

// Registry is the mutex-guarded connection map described in spec.md
// §4.7/§5. The critical section covers only the map lookup and
// last_used bookkeeping; all backend I/O happens after the lock is
// released.
type Registry struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*ActiveConnection
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: map[string]*ActiveConnection{}}
}

// Register inserts or replaces the entry for id. It performs no
// network operation; overwriting an entry discards its previous
// last_used.
func (r *Registry) Register(id string, capability Capability, descriptor aqr.ConnectionDescriptor, closer Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = &ActiveConnection{
		Descriptor: descriptor,
		Capability: capability,
		Closer:     closer,
		Healthy:    true,
	}
}

// Unregister removes id's entry, closing its handle exactly once if
// it exposes one. In-flight executions using the old handle reference
// are not aborted; they complete or fail naturally.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		for i, existing := range r.order {
			if existing == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return &UnknownConnectionError{ID: id}
	}
	if entry.Closer != nil {
		return entry.Closer.Close()
	}
	return nil
}

// List returns current descriptors in registration order.
func (r *Registry) List() []aqr.ConnectionDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]aqr.ConnectionDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Descriptor)
	}
	return out
}

// IsHealthy reports the internal healthy flag; no network probe.
func (r *Registry) IsHealthy(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return false, &UnknownConnectionError{ID: id}
	}
	return entry.Healthy, nil
}

// Cleanup unregisters every connection.
func (r *Registry) Cleanup() error {
	r.mu.Lock()
	ids := append([]string(nil), r.order...)
	r.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := r.Unregister(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Translate parses uql once and routes to the translator matching
// targetKind, without executing anything. schema and kvOpts are only
// consulted for the wide-column and key-value kinds respectively.
func Translate(uql string, targetKind aqr.BackendKind, schema aqr.WideColumnSchema, kvOpts aqr.KeyValueOptions) (any, error) {
	q, err := parser.Parse(uql)
	if err != nil {
		return nil, err
	}
	if err := aqr.Check(q); err != nil {
		return nil, err
	}
	return translate(q, targetKind, schema, kvOpts)
}

func translate(q *aqr.Query, kind aqr.BackendKind, schema aqr.WideColumnSchema, kvOpts aqr.KeyValueOptions) (any, error) {
	switch kind {
	case aqr.Relational:
		return translator.ToSQL(q)
	case aqr.Document:
		return translator.ToDocument(q)
	case aqr.Search:
		return translator.ToSearch(q)
	case aqr.WideColumn:
		return translator.ToWideColumn(q, schema)
	case aqr.KeyValue:
		return keyvalue.ToPlan(q, keyvalue.Options{
			AddressesHash:   kvOpts.AddressesHash,
			HasSearchModule: kvOpts.HasSearchModule,
			ScanCount:       kvOpts.ScanCount,
		}), nil
	}
	return nil, &UnsupportedBackendKindError{Kind: kind}
}

// Execute parses uql, translates it against id's registered kind,
// dispatches to the backend, normalizes the result, and updates
// last_used. ctx's cancellation is forwarded to the backend call; if
// it fires in flight, the call is abandoned and ExecutionError wraps
// context.Canceled with Cancelled set, but last_used is still updated.
func (r *Registry) Execute(ctx context.Context, id string, uql string) (Result, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok {
		entry.LastUsed = time.Now()
	}
	r.mu.Unlock()

	if !ok {
		return Result{}, &UnknownConnectionError{ID: id}
	}

	q, err := parser.Parse(uql)
	if err != nil {
		return Result{}, err
	}
	if err := aqr.Check(q); err != nil {
		return Result{}, err
	}

	var schema aqr.WideColumnSchema
	if entry.Descriptor.WideColumn != nil {
		schema = *entry.Descriptor.WideColumn
	}
	var kvOpts aqr.KeyValueOptions
	if entry.Descriptor.KeyValue != nil {
		kvOpts = *entry.Descriptor.KeyValue
	}
	translated, err := translate(q, entry.Descriptor.Kind, schema, kvOpts)
	if err != nil {
		return Result{}, err
	}

	rows, err := dispatch(ctx, entry, q, translated)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &ExecutionError{Cause: ctx.Err(), Cancelled: true}
		}
		return Result{}, &ExecutionError{Cause: err}
	}

	return Result{Rows: rows, Count: len(rows), TranslatedQuery: translated, OriginalQuery: uql}, nil
}

func dispatch(ctx context.Context, entry *ActiveConnection, q *aqr.Query, translated any) ([]Row, error) {
	switch entry.Descriptor.Kind {
	case aqr.Relational:
		return entry.Capability.Relational.ExecuteSQL(ctx, translated.(string))
	case aqr.Document:
		return entry.Capability.Document.RunPipeline(ctx, q.Table, translated.([]translator.Stage))
	case aqr.Search:
		return entry.Capability.Search.PostSQL(ctx, q.Table, translated.(translator.SearchPayload))
	case aqr.WideColumn:
		wc := translated.(translator.WideColumnResult)
		return entry.Capability.WideColumn.ExecutePartiQL(ctx, wc.Statement, wc.AttributeNames)
	case aqr.KeyValue:
		return dispatchKeyValue(ctx, entry.Capability.KeyValue, translated.(keyvalue.Plan))
	}
	return nil, &UnsupportedBackendKindError{Kind: entry.Descriptor.Kind}
}

func dispatchKeyValue(ctx context.Context, kv KeyValueCapability, plan keyvalue.Plan) ([]Row, error) {
	switch plan.Kind {
	case keyvalue.DirectGet:
		row, err := kv.DirectGet(ctx, plan.Key)
		if err != nil {
			return nil, err
		}
		return []Row{row}, nil
	case keyvalue.HashGetAll:
		row, err := kv.HashGetAll(ctx, plan.Key)
		if err != nil {
			return nil, err
		}
		return []Row{row}, nil
	case keyvalue.NamespaceScan:
		return kv.NamespaceScan(ctx, plan.Pattern, plan.Count)
	case keyvalue.ScanFilter:
		return kv.ScanFilter(ctx, plan.Pattern, plan.Count, plan.Filters)
	case keyvalue.SecondaryIndexSearch:
		var sort *SortHint
		if plan.Sort != nil {
			sort = &SortHint{Field: plan.Sort.Field, Direction: string(plan.Sort.Direction)}
		}
		return kv.SecondaryIndexSearch(ctx, plan.Index, plan.Expr, sort, plan.Limit)
	}
	return nil, &UnsupportedBackendKindError{Kind: aqr.KeyValue}
}
