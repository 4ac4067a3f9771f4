package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kter/serverless-sample/internal/model"
	"github.com/kter/serverless-sample/internal/repository"
)

// parseDueAt parses an RFC3339 string into *time.Time.
// Returns nil if input is nil or blank.
func parseDueAt(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dueAt format, expected RFC3339", ErrInvalidInput)
	}
	t = t.UTC()
	return &t, nil
}

type CreateTodoInput struct {
	Title string
	DueAt *string // RFC3339
}

type UpdateTodoInput struct {
	Completed *bool
}

// TodoService translates each API operation into exactly one repository call.
type TodoService struct {
	repo  repository.TodoRepository
	newID func() string
}

func NewTodoService(repo repository.TodoRepository) *TodoService {
	return &TodoService{repo: repo, newID: uuid.NewString}
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	todos, err := s.repo.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w: %w", ErrStorage, err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// Create mints a new id, so the same request body sent twice yields two
// distinct todos.
func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) (model.Todo, error) {
	if strings.TrimSpace(input.Title) == "" {
		return model.Todo{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	dueAt, err := parseDueAt(input.DueAt)
	if err != nil {
		return model.Todo{}, err
	}

	todo := model.Todo{
		ID:        s.newID(),
		Title:     input.Title,
		Completed: false,
		DueAt:     dueAt,
	}

	if err := s.repo.Put(ctx, todo); err != nil {
		return model.Todo{}, fmt.Errorf("failed to create todo: %w: %w", ErrStorage, err)
	}

	return todo, nil
}

// Delete succeeds whether or not the todo existed. The returned pointer is
// the removed todo, or nil if there was none.
func (s *TodoService) Delete(ctx context.Context, todoID string) (*model.Todo, error) {
	if todoID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	removed, err := s.repo.Delete(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete todo: %w: %w", ErrStorage, err)
	}
	return removed, nil
}

func (s *TodoService) Update(ctx context.Context, todoID string, input UpdateTodoInput) (model.Todo, error) {
	if todoID == "" {
		return model.Todo{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if input.Completed == nil {
		return model.Todo{}, fmt.Errorf("%w: completed is required", ErrInvalidInput)
	}

	updated, err := s.repo.Update(ctx, todoID, model.TodoPatch{Completed: *input.Completed})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Todo{}, ErrNotFound
		}
		return model.Todo{}, fmt.Errorf("failed to update todo: %w: %w", ErrStorage, err)
	}

	return updated, nil
}
