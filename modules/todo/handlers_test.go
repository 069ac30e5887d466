package todo

import (
	"context"
	"testing"

	domain "github.com/example/todo-tracker/domain/todo"
)

func setupTestModule(t *testing.T) *Module {
	t.Helper()
	svc, _ := setupTestService(t)
	return &Module{service: svc, logger: &mockLogger{}}
}

func TestHandlers_ResultEnvelope(t *testing.T) {
	m := setupTestModule(t)
	ctx := context.Background()

	created, err := m.handleCreate(ctx, CreateTodoRequest{OwnerID: "alice", Title: "Envelope"}, nil)
	if err != nil {
		t.Fatalf("handleCreate() error = %v", err)
	}
	if !created.Success || created.Data == nil || created.Data.Title != "Envelope" {
		t.Fatalf("handleCreate() = %+v, want success with todo", created)
	}

	invalid, _ := m.handleCreate(ctx, CreateTodoRequest{OwnerID: "alice"}, nil)
	if invalid.Success || invalid.Error != domain.ErrTitleRequired.Error() {
		t.Errorf("handleCreate(no title) = %+v, want title error", invalid)
	}

	toggled, _ := m.handleToggle(ctx, ToggleTodoRequest{OwnerID: "alice", ID: created.Data.ID, Completed: true}, nil)
	if !toggled.Success {
		t.Errorf("handleToggle() = %+v, want success", toggled)
	}

	stats, _ := m.handleStats(ctx, OwnerRequest{OwnerID: "alice"}, nil)
	if !stats.Success || stats.Data.Completed != 1 {
		t.Errorf("handleStats() = %+v, want one completed", stats)
	}

	list, _ := m.handleList(ctx, OwnerRequest{OwnerID: "alice"}, nil)
	if !list.Success || len(list.Data) != 1 {
		t.Errorf("handleList() = %+v, want one todo", list)
	}

	deleted, _ := m.handleDelete(ctx, TodoIDRequest{OwnerID: "alice", ID: created.Data.ID}, nil)
	if !deleted.Success {
		t.Errorf("handleDelete() = %+v, want success", deleted)
	}
}

func TestHandlers_UnauthenticatedRedirects(t *testing.T) {
	m := setupTestModule(t)
	ctx := context.Background()

	results := map[string]StatusResult{}
	results["update"], _ = m.handleUpdate(ctx, UpdateTodoRequest{ID: "x", Patch: domain.Patch{Title: strPtr("t")}}, nil)
	results["delete"], _ = m.handleDelete(ctx, TodoIDRequest{ID: "x"}, nil)
	results["toggle"], _ = m.handleToggle(ctx, ToggleTodoRequest{ID: "x"}, nil)
	results["remove-image"], _ = m.handleRemoveImage(ctx, TodoIDRequest{ID: "x"}, nil)

	for name, res := range results {
		if res.Success || res.Redirect != domain.LoginPath {
			t.Errorf("%s = %+v, want redirect to %s", name, res, domain.LoginPath)
		}
	}

	list, _ := m.handleList(ctx, OwnerRequest{}, nil)
	if list.Success || list.Redirect != domain.LoginPath {
		t.Errorf("list = %+v, want redirect", list)
	}
}
