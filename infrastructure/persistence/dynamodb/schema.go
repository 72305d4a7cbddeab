package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
)

// TableAdminAPI is the subset of the DynamoDB client used to provision the
// content table.
type TableAdminAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateTableInput describes the content table: string PK/SK plus the
// secondary indexes declared in table.Indexes, billed on demand.
func CreateTableInput(tableName string) *dynamodb.CreateTableInput {
	attrs := map[string]struct{}{table.AttrPK: {}, table.AttrSK: {}}
	var gsis []types.GlobalSecondaryIndex

	for _, idx := range table.Indexes {
		schema := []types.KeySchemaElement{
			{AttributeName: aws.String(idx.HashAttr), KeyType: types.KeyTypeHash},
		}
		attrs[idx.HashAttr] = struct{}{}
		if idx.RangeAttr != "" {
			schema = append(schema, types.KeySchemaElement{
				AttributeName: aws.String(idx.RangeAttr), KeyType: types.KeyTypeRange,
			})
			attrs[idx.RangeAttr] = struct{}{}
		}
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName:  aws.String(idx.Name),
			KeySchema:  schema,
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	// Deterministic order keeps the request stable across runs.
	names := []string{table.AttrPK, table.AttrSK, table.AttrEntityType, table.AttrCreatedAt, table.AttrTopicID, table.AttrEmail}
	var defs []types.AttributeDefinition
	for _, name := range names {
		if _, ok := attrs[name]; ok {
			defs = append(defs, types.AttributeDefinition{
				AttributeName: aws.String(name),
				AttributeType: types.ScalarAttributeTypeS,
			})
		}
	}

	return &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(table.AttrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(table.AttrSK), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions:   defs,
		GlobalSecondaryIndexes: gsis,
		BillingMode:            types.BillingModePayPerRequest,
	}
}

// EnsureTable creates the content table if it does not exist and waits for
// it to become active. It reports whether the table was created.
func EnsureTable(ctx context.Context, client TableAdminAPI, tableName string, logger *zap.Logger) (bool, error) {
	_, err := client.CreateTable(ctx, CreateTableInput(tableName))

	var inUse *types.ResourceInUseException
	switch {
	case errors.As(err, &inUse):
		logger.Info("Table already exists", zap.String("tableName", tableName))
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	logger.Info("Table created, waiting for it to become active", zap.String("tableName", tableName))

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, 2*time.Minute); err != nil {
		return true, fmt.Errorf("table %s did not become active: %w", tableName, err)
	}
	return true, nil
}
