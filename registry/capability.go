// Package registry holds externally supplied backend client handles
// and dispatches a parsed UQL query to the one matching a connection's
// kind, per spec.md §4.7. It never opens a socket itself: every
// capability below wraps a handle the host already owns.
package registry

import (
	"context"

	"github.com/queryfabric/uql/keyvalue"
	"github.com/queryfabric/uql/translator"
)

// Row is one backend-agnostic result record.
type Row map[string]any

// RelationalCapability executes a single SQL string, per spec.md §9's
// narrow-capability design note.
type RelationalCapability interface {
	ExecuteSQL(ctx context.Context, sql string) ([]Row, error)
}

// DocumentCapability runs a pipeline against a named collection.
type DocumentCapability interface {
	RunPipeline(ctx context.Context, collection string, pipeline []translator.Stage) ([]Row, error)
}

// SearchCapability posts a SQL-endpoint or native-DSL payload to an index.
type SearchCapability interface {
	PostSQL(ctx context.Context, index string, payload translator.SearchPayload) ([]Row, error)
}

// WideColumnCapability executes a PartiQL statement with its reserved
// name-placeholder map.
type WideColumnCapability interface {
	ExecutePartiQL(ctx context.Context, statement string, names map[string]string) ([]Row, error)
}

// KeyValueCapability exposes one method per plan tag (spec.md §9): the
// dispatcher MUST call only the method matching the plan it built.
type KeyValueCapability interface {
	DirectGet(ctx context.Context, key string) (Row, error)
	HashGetAll(ctx context.Context, key string) (Row, error)
	NamespaceScan(ctx context.Context, pattern string, count int) ([]Row, error)
	ScanFilter(ctx context.Context, pattern string, count int, filters []keyvalue.Filter) ([]Row, error)
	SecondaryIndexSearch(ctx context.Context, index, expr string, sort *SortHint, limit *int) ([]Row, error)
}

// SortHint carries an ORDER BY item through to a key-value search
// module, which has its own sort syntax unrelated to SQL's.
type SortHint struct {
	Field     string
	Direction string
}

// Capability is the variant the registry stores per connection: one
// populated interface depending on the descriptor's BackendKind.
type Capability struct {
	Relational RelationalCapability
	Document   DocumentCapability
	Search     SearchCapability
	WideColumn WideColumnCapability
	KeyValue   KeyValueCapability
}
