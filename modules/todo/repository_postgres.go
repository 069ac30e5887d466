package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const todoColumns = "id, title, description, completed, image_url, user_id, created_at, updated_at"

// updatableColumns guards the dynamic SET clause.
var updatableColumns = map[string]bool{
	"title":       true,
	"description": true,
	"completed":   true,
	"image_url":   true,
	"updated_at":  true,
}

// PostgresRepository stores todos in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the todos table and its owner index.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todos (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT,
			completed   BOOLEAN NOT NULL DEFAULT FALSE,
			image_url   TEXT,
			user_id     TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_owner_created ON todos (user_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate todos: %w", err)
		}
	}
	return nil
}

// ListByOwner returns the owner's todos, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Todo, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id = $1 ORDER BY created_at DESC", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	todos, err := pgx.CollectRows(rows, scanTodo)
	if err != nil {
		return nil, fmt.Errorf("failed to scan todos: %w", err)
	}
	return todos, nil
}

// Get returns one todo of the owner.
func (r *PostgresRepository) Get(ctx context.Context, owner, id string) (*domain.Todo, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = $1 AND user_id = $2", id, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTodo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return &t, nil
}

// Insert saves a new row.
func (r *PostgresRepository) Insert(ctx context.Context, t *domain.Todo) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO todos ("+todoColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		t.ID, t.Title, t.Description, t.Completed, t.ImageURL, t.UserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// Update writes cols to the row matching id and owner.
func (r *PostgresRepository) Update(ctx context.Context, owner, id string, cols map[string]any) (int64, error) {
	if len(cols) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(cols))
	for name := range cols {
		if !updatableColumns[name] {
			return 0, fmt.Errorf("column %q is not updatable", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+2)
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s = $%d", name, i+1)
		args = append(args, cols[name])
	}
	args = append(args, id, owner)

	query := fmt.Sprintf("UPDATE todos SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(names)+1, len(names)+2)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update todo: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the row matching id and owner.
func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM todos WHERE id = $1 AND user_id = $2", id, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete todo: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanTodo(row pgx.CollectableRow) (domain.Todo, error) {
	var t domain.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.ImageURL, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
