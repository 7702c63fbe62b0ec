package adapters

import (
	"context"
	"fmt"

	"github.com/queryfabric/uql/registry"
	"github.com/queryfabric/uql/translator"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAdapter runs an aggregation pipeline built by
// translator.ToDocument against a mongo-driver database handle.
type MongoAdapter struct {
	DB *mongo.Database
}

func WrapMongo(db *mongo.Database) *MongoAdapter {
	return &MongoAdapter{DB: db}
}

func (a *MongoAdapter) RunPipeline(ctx context.Context, collection string, pipeline []translator.Stage) ([]registry.Row, error) {
	bsonPipeline := make(bson.A, len(pipeline))
	for i, stage := range pipeline {
		bsonPipeline[i] = bson.D{{Key: stage.Kind, Value: toBSON(stage.Spec[stage.Kind])}}
	}

	cursor, err := a.DB.Collection(collection).Aggregate(ctx, bsonPipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}
	defer cursor.Close(ctx)

	var results []registry.Row
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		results = append(results, registry.Row(doc))
	}
	return results, cursor.Err()
}

// toBSON recursively converts the map[string]any spec produced by the
// document translator into bson-friendly types. The translator never
// emits values mongo-driver can't already marshal (strings, numbers,
// bools, nested maps/slices), so this only needs to walk containers.
func toBSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := bson.M{}
		for k, inner := range val {
			out[k] = toBSON(inner)
		}
		return out
	case []any:
		out := make(bson.A, len(val))
		for i, inner := range val {
			out[i] = toBSON(inner)
		}
		return out
	default:
		return val
	}
}
