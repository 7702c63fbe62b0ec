package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/queryfabric/uql/registry"
	"github.com/queryfabric/uql/translator"
)

// ElasticsearchAdapter posts a translator.SearchPayload to either the
// SQL endpoint (the common case, per spec.md §4.4) or the native
// Search DSL when the payload carries a join fallback tree.
type ElasticsearchAdapter struct {
	ES *elasticsearch.Client
}

func WrapElasticsearch(es *elasticsearch.Client) *ElasticsearchAdapter {
	return &ElasticsearchAdapter{ES: es}
}

func (a *ElasticsearchAdapter) PostSQL(ctx context.Context, index string, payload translator.SearchPayload) ([]registry.Row, error) {
	if payload.Envelope != nil {
		return a.runSQL(ctx, payload.Envelope)
	}
	return a.runSearch(ctx, index, payload.DSL)
}

func (a *ElasticsearchAdapter) runSQL(ctx context.Context, envelope map[string]any) ([]registry.Row, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode sql envelope: %w", err)
	}

	res, err := esapi.SQLQueryRequest{Body: bytes.NewReader(body)}.Do(ctx, a.ES)
	if err != nil {
		return nil, fmt.Errorf("sql query error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("sql query failed: %s", res.Status())
	}

	var decoded struct {
		Columns []struct {
			Name string `json:"name"`
		} `json:"columns"`
		Rows [][]any `json:"rows"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode sql response: %w", err)
	}

	results := make([]registry.Row, 0, len(decoded.Rows))
	for _, r := range decoded.Rows {
		row := registry.Row{}
		for i, col := range decoded.Columns {
			if i < len(r) {
				row[col.Name] = r[i]
			}
		}
		results = append(results, row)
	}
	return results, nil
}

func (a *ElasticsearchAdapter) runSearch(ctx context.Context, index string, dsl map[string]any) ([]registry.Row, error) {
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, fmt.Errorf("encode search dsl: %w", err)
	}

	res, err := esapi.SearchRequest{Index: []string{index}, Body: bytes.NewReader(body)}.Do(ctx, a.ES)
	if err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var decoded struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]registry.Row, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		results = append(results, registry.Row(h.Source))
	}
	return results, nil
}
