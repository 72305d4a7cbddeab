package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/observability"
)

// DynamoDBAPI is the subset of the DynamoDB client the table driver uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Table implements table.Table on a DynamoDB table. Every call is retried on
// transient errors and passes through an optional circuit breaker.
type Table struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
	retry     RetryConfig
	breaker   *CircuitBreaker
	metrics   *observability.Collector
	tracer    *observability.Tracer
}

var _ table.Table = (*Table)(nil)

// Option customizes a Table.
type Option func(*Table)

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(t *Table) { t.retry = cfg }
}

// WithCircuitBreaker routes calls through b.
func WithCircuitBreaker(b *CircuitBreaker) Option {
	return func(t *Table) { t.breaker = b }
}

// WithMetrics records per-operation metrics.
func WithMetrics(m *observability.Collector) Option {
	return func(t *Table) { t.metrics = m }
}

// WithTracer wraps calls in X-Ray subsegments.
func WithTracer(tr *observability.Tracer) Option {
	return func(t *Table) { t.tracer = tr }
}

// NewTable creates a DynamoDB-backed table.
func NewTable(client DynamoDBAPI, tableName string, logger *zap.Logger, opts ...Option) *Table {
	t := &Table{
		client:    client,
		tableName: tableName,
		logger:    logger,
		retry:     DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get fetches one item with a strongly consistent read.
func (t *Table) Get(ctx context.Context, key table.Key) (table.Item, error) {
	var out *dynamodb.GetItemOutput
	err := t.call(ctx, "GetItem", func(ctx context.Context) error {
		var err error
		out, err = t.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(t.tableName),
			Key:            key.Attributes(),
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, table.ErrNotFound
	}
	return out.Item, nil
}

// Put writes a full item.
func (t *Table) Put(ctx context.Context, req table.PutRequest) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      req.Item,
	}

	cond, hasCond, err := putCondition(req)
	if err != nil {
		return err
	}
	if hasCond {
		input.ConditionExpression = cond.Condition()
		input.ExpressionAttributeNames = cond.Names()
		input.ExpressionAttributeValues = cond.Values()
	}

	return t.call(ctx, "PutItem", func(ctx context.Context) error {
		_, err := t.client.PutItem(ctx, input)
		return err
	})
}

// TransactPut writes all items atomically. DynamoDB caps a transaction at
// 100 items.
func (t *Table) TransactPut(ctx context.Context, reqs ...table.PutRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(reqs))
	for _, req := range reqs {
		put := &types.Put{
			TableName: aws.String(t.tableName),
			Item:      req.Item,
		}
		cond, hasCond, err := putCondition(req)
		if err != nil {
			return err
		}
		if hasCond {
			put.ConditionExpression = cond.Condition()
			put.ExpressionAttributeNames = cond.Names()
			put.ExpressionAttributeValues = cond.Values()
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	return t.call(ctx, "TransactWriteItems", func(ctx context.Context) error {
		_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		return err
	})
}

// Delete removes an item. Deleting a missing item is not an error.
func (t *Table) Delete(ctx context.Context, key table.Key) error {
	return t.call(ctx, "DeleteItem", func(ctx context.Context) error {
		_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(t.tableName),
			Key:       key.Attributes(),
		})
		return err
	})
}

// Query reads every page of a key-condition query.
func (t *Table) Query(ctx context.Context, q table.Query) ([]table.Item, error) {
	hashAttr, rangeAttr, err := q.KeyAttributes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, q.IndexName)
	}

	keyCond := expression.Key(hashAttr).Equal(expression.Value(q.HashValue))
	if q.RangePrefix != "" && rangeAttr != "" {
		keyCond = keyCond.And(expression.Key(rangeAttr).BeginsWith(q.RangePrefix))
	}
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter, ok := filterCondition(q.Filters); ok {
		builder = builder.WithFilter(filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if q.IndexName != "" {
		input.IndexName = aws.String(q.IndexName)
	}

	var items []table.Item
	for page := 1; ; page++ {
		var out *dynamodb.QueryOutput
		err := t.call(ctx, "Query", func(ctx context.Context) error {
			var err error
			out, err = t.client.Query(ctx, input)
			return err
		})
		if err != nil {
			t.logger.Error("Query page failed, discarding partial result",
				zap.String("index", q.IndexName),
				zap.String("hashValue", q.HashValue),
				zap.Int("page", page),
				zap.Int("itemsSoFar", len(items)),
			)
			return nil, err
		}
		items = append(items, out.Items...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}

// Scan reads every page of a filtered table scan.
func (t *Table) Scan(ctx context.Context, filters ...table.Filter) ([]table.Item, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(t.tableName),
	}
	if filter, ok := filterCondition(filters); ok {
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build scan expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []table.Item
	for page := 1; ; page++ {
		var out *dynamodb.ScanOutput
		err := t.call(ctx, "Scan", func(ctx context.Context) error {
			var err error
			out, err = t.client.Scan(ctx, input)
			return err
		})
		if err != nil {
			t.logger.Error("Scan page failed, discarding partial result",
				zap.Int("page", page),
				zap.Int("itemsSoFar", len(items)),
			)
			return nil, err
		}
		items = append(items, out.Items...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	t.logger.Debug("Scan completed",
		zap.String("tableName", t.tableName),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// Ping checks that the table exists and is reachable.
func (t *Table) Ping(ctx context.Context) error {
	return t.call(ctx, "DescribeTable", func(ctx context.Context) error {
		_, err := t.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(t.tableName),
		})
		return err
	})
}

// call runs one API request with tracing, breaker, retry and metrics, and
// maps the outcome onto the table error vocabulary.
func (t *Table) call(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()

	err := t.tracer.TraceFunction(ctx, "dynamodb."+op, func(ctx context.Context) error {
		return RetryWithBackoff(ctx, t.retry, func() error {
			return t.breaker.Execute(func() error {
				return conditionError(fn(ctx))
			})
		})
	})

	t.metrics.RecordStoreOperation(op, time.Since(start), err)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, table.ErrConditionFailed):
		return table.ErrConditionFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	t.logger.Error("DynamoDB operation failed",
		zap.String("operation", op),
		zap.String("tableName", t.tableName),
		zap.Bool("breakerOpen", IsOpen(err)),
		zap.Error(err),
	)
	return apperrors.NewStoreUnavailableError(op, err)
}

// conditionError folds both flavors of rejected condition into
// table.ErrConditionFailed.
func conditionError(err error) error {
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return table.ErrConditionFailed
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return table.ErrConditionFailed
			}
		}
	}
	return err
}

func putCondition(req table.PutRequest) (expression.Expression, bool, error) {
	var cond expression.ConditionBuilder
	switch {
	case req.IfNotExists:
		cond = expression.AttributeNotExists(expression.Name(table.AttrPK))
	case req.IfUnversioned:
		cond = expression.AttributeExists(expression.Name(table.AttrPK)).
			And(expression.AttributeNotExists(expression.Name(table.AttrVersion)))
	case req.IfVersion != nil:
		cond = expression.Name(table.AttrVersion).Equal(expression.Value(*req.IfVersion))
	default:
		return expression.Expression{}, false, nil
	}

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("failed to build condition: %w", err)
	}
	return expr, true, nil
}

func filterCondition(filters []table.Filter) (expression.ConditionBuilder, bool) {
	if len(filters) == 0 {
		return expression.ConditionBuilder{}, false
	}

	cond := expression.Name(filters[0].Attr).Equal(expression.Value(filters[0].Value))
	for _, f := range filters[1:] {
		cond = cond.And(expression.Name(f.Attr).Equal(expression.Value(f.Value)))
	}
	return cond, true
}
