package repository

import (
	"context"
	"errors"

	"github.com/kter/serverless-sample/internal/model"
)

// ErrNotFound is returned by Get and Update when no item has the given id.
var ErrNotFound = errors.New("todo not found")

// TodoRepository is the key-value capability the service and the reminder
// scanner depend on. Implementations serialize writes to a single key;
// concurrent updates of the same id are last-writer-wins.
type TodoRepository interface {
	Get(ctx context.Context, id string) (model.Todo, error)
	// Put writes the full record, replacing any existing item with the same id.
	Put(ctx context.Context, todo model.Todo) error
	// Update applies patch to an existing item and returns the result.
	// It never creates an item.
	Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error)
	// Delete removes the item if present and returns what was removed,
	// or nil when there was nothing to remove.
	Delete(ctx context.Context, id string) (*model.Todo, error)
	ScanAll(ctx context.Context) ([]model.Todo, error)
}
