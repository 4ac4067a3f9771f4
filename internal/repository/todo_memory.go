package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kter/serverless-sample/internal/model"
)

// MemoryTodoRepository keeps todos in a process-local map. It is used for
// local runs and as a test double.
type MemoryTodoRepository struct {
	mu    sync.RWMutex
	items map[string]model.Todo
}

func NewMemoryTodo() *MemoryTodoRepository {
	return &MemoryTodoRepository{items: make(map[string]model.Todo)}
}

func (r *MemoryTodoRepository) Get(ctx context.Context, id string) (model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todo, ok := r.items[id]
	if !ok {
		return model.Todo{}, ErrNotFound
	}
	return cloneTodo(todo), nil
}

func (r *MemoryTodoRepository) Put(ctx context.Context, todo model.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[todo.ID] = cloneTodo(todo)
	return nil
}

func (r *MemoryTodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.items[id]
	if !ok {
		return model.Todo{}, ErrNotFound
	}
	todo.Completed = patch.Completed
	r.items[id] = todo
	return cloneTodo(todo), nil
}

func (r *MemoryTodoRepository) Delete(ctx context.Context, id string) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	delete(r.items, id)
	removed := cloneTodo(todo)
	return &removed, nil
}

// ScanAll returns every item ordered by id so results are stable.
func (r *MemoryTodoRepository) ScanAll(ctx context.Context) ([]model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := make([]model.Todo, 0, len(r.items))
	for _, todo := range r.items {
		todos = append(todos, cloneTodo(todo))
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

// cloneTodo copies the DueAt pointer target so callers cannot mutate
// stored state through it.
func cloneTodo(t model.Todo) model.Todo {
	if t.DueAt != nil {
		due := *t.DueAt
		t.DueAt = &due
	}
	return t
}

var _ TodoRepository = (*MemoryTodoRepository)(nil)
