package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kter/serverless-sample/internal/model"
)

// Schema is the key-value shaped table used by PostgresTodoRepository.
const Schema = `
CREATE TABLE IF NOT EXISTS todos (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT false,
	due_at    TIMESTAMPTZ
)`

// NewDB opens a Postgres connection pool and verifies it with a ping.
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

type PostgresTodoRepository struct {
	db *sql.DB
}

func NewPostgresTodo(db *sql.DB) *PostgresTodoRepository {
	return &PostgresTodoRepository{db: db}
}

// Migrate creates the todos table if needed.
func (r *PostgresTodoRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create todos table: %w", err)
	}
	return nil
}

func (r *PostgresTodoRepository) Get(ctx context.Context, id string) (model.Todo, error) {
	query := `SELECT id, title, completed, due_at FROM todos WHERE id = $1`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	return todo, err
}

func (r *PostgresTodoRepository) Put(ctx context.Context, todo model.Todo) error {
	query := `
		INSERT INTO todos (id, title, completed, due_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, completed = EXCLUDED.completed, due_at = EXCLUDED.due_at`

	var dueAt sql.NullTime
	if todo.HasDueAt() {
		dueAt = sql.NullTime{Time: todo.DueAt.UTC(), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, todo.ID, todo.Title, todo.Completed, dueAt); err != nil {
		return fmt.Errorf("failed to put todo: %w", err)
	}
	return nil
}

func (r *PostgresTodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	query := `
		UPDATE todos SET completed = $1
		WHERE id = $2
		RETURNING id, title, completed, due_at`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, patch.Completed, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	return todo, err
}

func (r *PostgresTodoRepository) Delete(ctx context.Context, id string) (*model.Todo, error) {
	query := `DELETE FROM todos WHERE id = $1 RETURNING id, title, completed, due_at`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *PostgresTodoRepository) ScanAll(ctx context.Context) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, completed, due_at FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTodo(row scannable) (model.Todo, error) {
	var t model.Todo
	var dueAt sql.NullTime
	if err := row.Scan(&t.ID, &t.Title, &t.Completed, &dueAt); err != nil {
		return model.Todo{}, fmt.Errorf("failed to scan todo: %w", err)
	}
	if dueAt.Valid {
		due := dueAt.Time.UTC()
		t.DueAt = &due
	}
	return t, nil
}

// ensure compile-time interface compliance
var _ TodoRepository = (*PostgresTodoRepository)(nil)
