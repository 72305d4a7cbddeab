package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.TransactWriteItemsOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func sv(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func TestGet_NotFound(t *testing.T) {
	// Arrange
	client := new(MockDynamoDB)
	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return aws.ToString(in.TableName) == "content" && aws.ToBool(in.ConsistentRead)
	})).Return(&dynamodb.GetItemOutput{}, nil)
	tbl := NewTable(client, "content", zap.NewNop())

	// Act
	_, err := tbl.Get(context.Background(), table.Key{PK: "TOPIC#t1", SK: "METADATA"})

	// Assert
	assert.ErrorIs(t, err, table.ErrNotFound)
	client.AssertExpectations(t)
}

func TestPut_ConditionFailedIsNotRetried(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil
	})).Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}).Once()
	tbl := NewTable(client, "content", zap.NewNop(), WithRetryConfig(fastRetry()))

	err := tbl.Put(context.Background(), table.PutRequest{
		Item:        table.Key{PK: "USER#u1", SK: "METADATA"}.Attributes(),
		IfNotExists: true,
	})

	assert.ErrorIs(t, err, table.ErrConditionFailed)
	client.AssertNumberOfCalls(t, "PutItem", 1)
}

func TestPutCondition(t *testing.T) {
	version := int64(3)
	tests := []struct {
		name  string
		req   table.PutRequest
		funcs []string
		attrs []string
	}{
		{"if not exists", table.PutRequest{IfNotExists: true}, []string{"attribute_not_exists"}, []string{table.AttrPK}},
		{"unversioned", table.PutRequest{IfUnversioned: true}, []string{"attribute_exists", "attribute_not_exists"}, []string{table.AttrPK, table.AttrVersion}},
		{"version", table.PutRequest{IfVersion: &version}, []string{"="}, []string{table.AttrVersion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, ok, err := putCondition(tt.req)
			require.NoError(t, err)
			require.True(t, ok)

			cond := aws.ToString(expr.Condition())
			for _, fn := range tt.funcs {
				assert.Contains(t, cond, fn)
			}
			var names []string
			for _, n := range expr.Names() {
				names = append(names, n)
			}
			assert.ElementsMatch(t, tt.attrs, names)
		})
	}

	_, ok, err := putCondition(table.PutRequest{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactPut_CancellationReasonMapsToConditionFailed(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 2
	})).Return(nil, &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	})
	tbl := NewTable(client, "content", zap.NewNop())

	err := tbl.TransactPut(context.Background(),
		table.PutRequest{Item: table.Key{PK: "USER#u1", SK: "METADATA"}.Attributes(), IfNotExists: true},
		table.PutRequest{Item: table.Key{PK: "EMAIL#a@b.c", SK: "EMAIL"}.Attributes(), IfNotExists: true},
	)

	assert.ErrorIs(t, err, table.ErrConditionFailed)
}

func TestScan_FollowsPagination(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{{"PK": sv("USER#u1")}},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": sv("USER#u1"), "SK": sv("PROGRESS#e1")},
	}, nil).Once()
	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{{"PK": sv("USER#u2")}},
	}, nil).Once()
	tbl := NewTable(client, "content", zap.NewNop())

	items, err := tbl.Scan(context.Background(), table.Eq("entity_type", "user_progress"))

	require.NoError(t, err)
	assert.Len(t, items, 2)
	client.AssertExpectations(t)
}

func TestScan_PageFailureDiscardsPartialResult(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{{"PK": sv("USER#u1")}},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": sv("USER#u1"), "SK": sv("PROGRESS#e1")},
	}, nil).Once()
	client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(nil, errors.New("connection reset"))
	tbl := NewTable(client, "content", zap.NewNop(), WithRetryConfig(fastRetry()))

	items, err := tbl.Scan(context.Background())

	assert.Nil(t, items)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestQuery_RetriesThrottling(t *testing.T) {
	client := new(MockDynamoDB)
	client.On("Query", mock.Anything, mock.Anything).
		Return(nil, &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}).Once()
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == table.IndexTopicSK
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{{"SK": sv("LEVEL#l1")}},
	}, nil).Once()
	tbl := NewTable(client, "content", zap.NewNop(), WithRetryConfig(fastRetry()))

	items, err := tbl.Query(context.Background(), table.IndexQuery(table.IndexTopicSK, "t1", "LEVEL#"))

	require.NoError(t, err)
	assert.Len(t, items, 1)
	client.AssertNumberOfCalls(t, "Query", 2)
}

func TestQuery_UnknownIndex(t *testing.T) {
	tbl := NewTable(new(MockDynamoDB), "content", zap.NewNop())

	_, err := tbl.Query(context.Background(), table.IndexQuery("missing-index", "x", ""))

	assert.ErrorIs(t, err, table.ErrUnknownIndex)
}

func TestCreateTableInputDeclaresIndexes(t *testing.T) {
	in := CreateTableInput("content")

	require.Len(t, in.GlobalSecondaryIndexes, len(table.Indexes))
	names := make([]string, 0, len(in.GlobalSecondaryIndexes))
	for _, gsi := range in.GlobalSecondaryIndexes {
		names = append(names, aws.ToString(gsi.IndexName))
	}
	assert.ElementsMatch(t, []string{table.IndexEntityType, table.IndexTopicSK, table.IndexEmail}, names)
	assert.Len(t, in.AttributeDefinitions, 6)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&types.InternalServerError{}))
	assert.True(t, IsRetryableError(&types.RequestLimitExceeded{}))
	assert.False(t, IsRetryableError(&types.ConditionalCheckFailedException{}))
	assert.False(t, IsRetryableError(errors.New("boom")))
	assert.False(t, IsRetryableError(nil))
}
