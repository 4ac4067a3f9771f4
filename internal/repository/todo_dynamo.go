package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/kter/serverless-sample/internal/model"
)

// ErrThrottled is returned when DynamoDB rejects a call for capacity reasons.
var ErrThrottled = errors.New("store throttled")

// DynamoAPI is the subset of *dynamodb.Client used by DynamoTodoRepository.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type DynamoTodoRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoTodo(client DynamoAPI, table string) *DynamoTodoRepository {
	return &DynamoTodoRepository{client: client, table: table}
}

func (r *DynamoTodoRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (r *DynamoTodoRepository) Get(ctx context.Context, id string) (model.Todo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Todo{}, mapDynamoError("get item", err)
	}
	if len(out.Item) == 0 {
		return model.Todo{}, ErrNotFound
	}
	return decodeTodo(out.Item)
}

func (r *DynamoTodoRepository) Put(ctx context.Context, todo model.Todo) error {
	av, err := attributevalue.MarshalMap(newTodoItem(todo))
	if err != nil {
		return fmt.Errorf("failed to marshal todo: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	if err != nil {
		return mapDynamoError("put item", err)
	}
	return nil
}

// Update sets only the completed attribute. The attribute_exists condition
// makes a missing id fail instead of upserting a partial item.
func (r *DynamoTodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	completed, err := attributevalue.Marshal(completedFlag(patch.Completed))
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to marshal patch: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.table),
		Key:                 r.key(id),
		UpdateExpression:    aws.String("SET #completed = :completed"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#completed": "completed",
			"#id":        "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":completed": completed,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return model.Todo{}, mapDynamoError("update item", err)
	}
	return decodeTodo(out.Attributes)
}

func (r *DynamoTodoRepository) Delete(ctx context.Context, id string) (*model.Todo, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table),
		Key:          r.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, mapDynamoError("delete item", err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	removed, err := decodeTodo(out.Attributes)
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// ScanAll follows LastEvaluatedKey until the table is exhausted. There is no
// upper bound on the number of items returned.
func (r *DynamoTodoRepository) ScanAll(ctx context.Context) ([]model.Todo, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:      aws.String(r.table),
		ConsistentRead: aws.Bool(true),
	})

	todos := []model.Todo{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapDynamoError("scan", err)
		}
		var items []todoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan page: %w", err)
		}
		for _, item := range items {
			todos = append(todos, item.toModel())
		}
	}
	return todos, nil
}

// EnsureTable creates the table with an "id" string partition key and
// on-demand billing when it does not exist yet, then waits for it to become
// active.
func (r *DynamoTodoRepository) EnsureTable(ctx context.Context, maxWait time.Duration) (bool, error) {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, mapDynamoError("describe table", err)
	}

	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return false, mapDynamoError("create table", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}, maxWait); err != nil {
		return true, fmt.Errorf("failed waiting for table %s: %w", r.table, err)
	}
	return true, nil
}

func decodeTodo(av map[string]types.AttributeValue) (model.Todo, error) {
	var item todoItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return model.Todo{}, fmt.Errorf("failed to unmarshal todo: %w", err)
	}
	return item.toModel(), nil
}

// mapDynamoError converts DynamoDB API errors into repository sentinels.
func mapDynamoError(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("dynamodb %s: %w", op, err)
	}

	switch apiErr.ErrorCode() {
	case "ConditionalCheckFailedException":
		return fmt.Errorf("dynamodb %s: %w", op, ErrNotFound)
	case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
		return fmt.Errorf("dynamodb %s: %w: %w", op, ErrThrottled, err)
	default:
		return fmt.Errorf("dynamodb %s %s: %w", op, apiErr.ErrorCode(), err)
	}
}

var _ TodoRepository = (*DynamoTodoRepository)(nil)
