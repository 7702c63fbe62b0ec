// Package adapters wraps real backend client handles from the
// ecosystem libraries (database/sql drivers, mongo-driver, go-redis,
// go-elasticsearch, aws-sdk-go-v2's dynamodb client) so each satisfies
// a registry capability interface, the way the teacher's client.go
// wraps *sql.DB/*mongo.Database/*redis.Client behind one Client type.
package adapters

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/queryfabric/uql/registry"
)

// SQLAdapter executes relational UQL translations against a
// database/sql handle, covering both the PostgreSQL and MySQL
// families since both drivers share this interface.
type SQLAdapter struct {
	DB *sql.DB
}

// WrapSQL mirrors the teacher's WrapSQL constructor.
func WrapSQL(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{DB: db}
}

func (a *SQLAdapter) ExecuteSQL(ctx context.Context, query string) ([]registry.Row, error) {
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

func rowsToMaps(rows *sql.Rows) ([]registry.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []registry.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(registry.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
