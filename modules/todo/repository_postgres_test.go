package todo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupPostgresRepo connects to TEST_DATABASE_URL or skips.
func setupPostgresRepo(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Postgres not available: %v", err)
	}

	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM todos WHERE user_id LIKE 'pgtest-%'"); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepository_RoundTrip(t *testing.T) {
	repo := setupPostgresRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	insertTodo(t, repo, "00000000-0000-0000-0000-000000000001", "pgtest-alice", "older", base)
	insertTodo(t, repo, "00000000-0000-0000-0000-000000000002", "pgtest-alice", "newer", base.Add(time.Minute))

	todos, err := repo.ListByOwner(ctx, "pgtest-alice")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(todos) != 2 || todos[0].Title != "newer" {
		t.Fatalf("ListByOwner() = %+v, want newer first", todos)
	}

	desc := "details"
	n, err := repo.Update(ctx, "pgtest-alice", todos[1].ID, map[string]any{
		"description": desc,
		"completed":   true,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Update() matched %d rows, want 1", n)
	}

	got, err := repo.Get(ctx, "pgtest-alice", todos[1].ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Completed || got.Description == nil || *got.Description != desc {
		t.Errorf("Get() = %+v, want completed with description", got)
	}

	if n, _ := repo.Delete(ctx, "pgtest-bob", got.ID); n != 0 {
		t.Errorf("Delete() by other owner matched %d rows, want 0", n)
	}
	if n, _ := repo.Delete(ctx, "pgtest-alice", got.ID); n != 1 {
		t.Errorf("Delete() matched %d rows, want 1", n)
	}
}

func TestPostgresRepository_RejectsUnknownColumn(t *testing.T) {
	repo := setupPostgresRepo(t)
	if _, err := repo.Update(context.Background(), "pgtest-alice", "x", map[string]any{"user_id": "pgtest-bob"}); err == nil {
		t.Error("Update() with user_id column succeeded, want error")
	}
}
