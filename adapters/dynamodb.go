package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/queryfabric/uql/registry"
)

// DynamoDBAdapter executes the PartiQL statement produced by
// translator.ToWideColumn. DynamoDB's ExecuteStatement has no
// placeholder-name mechanism, so the "#nN" reserved-word markers the
// translator allocates are substituted with PartiQL's own
// double-quoted escaped-identifier syntax before the call.
type DynamoDBAdapter struct {
	Client *dynamodb.Client
}

func WrapDynamoDB(client *dynamodb.Client) *DynamoDBAdapter {
	return &DynamoDBAdapter{Client: client}
}

func (a *DynamoDBAdapter) ExecutePartiQL(ctx context.Context, statement string, names map[string]string) ([]registry.Row, error) {
	resolved := resolvePlaceholders(statement, names)

	out, err := a.Client.ExecuteStatement(ctx, &dynamodb.ExecuteStatementInput{
		Statement: aws.String(resolved),
	})
	if err != nil {
		return nil, fmt.Errorf("executestatement error: %w", err)
	}

	results := make([]registry.Row, 0, len(out.Items))
	for _, item := range out.Items {
		results = append(results, attributeValueMapToRow(item))
	}
	return results, nil
}

func resolvePlaceholders(statement string, names map[string]string) string {
	for placeholder, real := range names {
		statement = strings.ReplaceAll(statement, placeholder, `"`+real+`"`)
	}
	return statement
}

func attributeValueMapToRow(item map[string]types.AttributeValue) registry.Row {
	row := make(registry.Row, len(item))
	for k, v := range item {
		row[k] = attributeValueToAny(v)
	}
	return row
}

func attributeValueToAny(v types.AttributeValue) any {
	switch val := v.(type) {
	case *types.AttributeValueMemberS:
		return val.Value
	case *types.AttributeValueMemberN:
		return val.Value
	case *types.AttributeValueMemberBOOL:
		return val.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberL:
		list := make([]any, len(val.Value))
		for i, item := range val.Value {
			list[i] = attributeValueToAny(item)
		}
		return list
	case *types.AttributeValueMemberM:
		return attributeValueMapToRow(val.Value)
	case *types.AttributeValueMemberSS:
		return val.Value
	case *types.AttributeValueMemberNS:
		return val.Value
	default:
		return nil
	}
}
