package todo

import (
	"context"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/go-monolith/mono"
)

// Request-reply handlers. Failures travel inside the result envelope so
// callers always get a {success, error} shape back.

func (m *Module) handleList(ctx context.Context, req OwnerRequest, _ *mono.Msg) (ListResult, error) {
	todos, err := m.service.List(ctx, req.OwnerID)
	if err != nil {
		return domain.Fail[[]domain.Todo](err), nil
	}
	return domain.OK(todos), nil
}

func (m *Module) handleCreate(ctx context.Context, req CreateTodoRequest, _ *mono.Msg) (TodoResult, error) {
	t, err := m.service.Create(ctx, req.OwnerID, domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return domain.Fail[*domain.Todo](err), nil
	}
	return domain.OK(t), nil
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateTodoRequest, _ *mono.Msg) (StatusResult, error) {
	return status(m.service.Update(ctx, req.OwnerID, req.ID, req.Patch)), nil
}

func (m *Module) handleDelete(ctx context.Context, req TodoIDRequest, _ *mono.Msg) (StatusResult, error) {
	return status(m.service.Delete(ctx, req.OwnerID, req.ID)), nil
}

func (m *Module) handleToggle(ctx context.Context, req ToggleTodoRequest, _ *mono.Msg) (StatusResult, error) {
	return status(m.service.ToggleCompletion(ctx, req.OwnerID, req.ID, req.Completed)), nil
}

func (m *Module) handleRemoveImage(ctx context.Context, req TodoIDRequest, _ *mono.Msg) (StatusResult, error) {
	return status(m.service.RemoveImage(ctx, req.OwnerID, req.ID)), nil
}

func (m *Module) handleStats(ctx context.Context, req OwnerRequest, _ *mono.Msg) (StatsResult, error) {
	stats, err := m.service.Stats(ctx, req.OwnerID)
	if err != nil {
		return domain.Fail[*domain.Stats](err), nil
	}
	return domain.OK(&stats), nil
}

func status(err error) StatusResult {
	if err != nil {
		return domain.Fail[any](err)
	}
	return domain.OK[any](nil)
}
