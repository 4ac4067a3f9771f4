package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kter/serverless-sample/internal/model"
)

// ErrInvalidItem is returned when a stored item cannot be decoded into a Todo.
var ErrInvalidItem = errors.New("invalid stored item")

// todoItem is the DynamoDB shape of a Todo. The attribute names match the
// table created by the original stack: a string partition key "id".
type todoItem struct {
	ID        string        `dynamodbav:"id"`
	Title     string        `dynamodbav:"title"`
	Completed completedFlag `dynamodbav:"completed"`
	DueAt     *time.Time    `dynamodbav:"dueAt,omitempty"`
}

func newTodoItem(t model.Todo) todoItem {
	item := todoItem{
		ID:        t.ID,
		Title:     t.Title,
		Completed: completedFlag(t.Completed),
	}
	if t.HasDueAt() {
		due := t.DueAt.UTC()
		item.DueAt = &due
	}
	return item
}

func (i todoItem) toModel() model.Todo {
	return model.Todo{
		ID:        i.ID,
		Title:     i.Title,
		Completed: bool(i.Completed),
		DueAt:     i.DueAt,
	}
}

// completedFlag always writes a BOOL attribute but accepts the string and
// number encodings that older writers left behind.
type completedFlag bool

func (c completedFlag) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberBOOL{Value: bool(c)}, nil
}

func (c *completedFlag) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberBOOL:
		*c = completedFlag(v.Value)
	case *types.AttributeValueMemberS:
		b, err := strconv.ParseBool(strings.TrimSpace(v.Value))
		if err != nil {
			return fmt.Errorf("%w: completed %q is not a boolean", ErrInvalidItem, v.Value)
		}
		*c = completedFlag(b)
	case *types.AttributeValueMemberN:
		switch strings.TrimSpace(v.Value) {
		case "0":
			*c = false
		case "1":
			*c = true
		default:
			return fmt.Errorf("%w: completed %s is not 0 or 1", ErrInvalidItem, v.Value)
		}
	case *types.AttributeValueMemberNULL:
		*c = false
	default:
		return fmt.Errorf("%w: unsupported completed attribute %T", ErrInvalidItem, av)
	}
	return nil
}
