package view

import (
	"context"

	domain "github.com/example/todo-tracker/domain/todo"
)

// Op is one optimistic mutation in three phases. Project runs synchronously
// on the list, Call runs in the background, and on success Reconcile merges
// the result. On failure the touched todo is restored from the snapshot
// taken before Project.
type Op[R any] struct {
	Name string
	// ID is the todo the op touches. For creates it is the placeholder id.
	ID string

	Project   func(list []domain.Todo) []domain.Todo
	Call      func(ctx context.Context) (R, error)
	Reconcile func(list []domain.Todo, result R) []domain.Todo

	Success string
	Failure string
}

// snapshot is the state of one todo before a projection.
type snapshot struct {
	id      string
	todo    domain.Todo
	present bool
}

func takeSnapshot(list []domain.Todo, id string) snapshot {
	if i := indexOf(list, id); i >= 0 {
		return snapshot{id: id, todo: list[i], present: true}
	}
	return snapshot{id: id}
}

// restore puts the snapshotted todo back, or removes it when it did not
// exist before.
func (s snapshot) restore(list []domain.Todo) []domain.Todo {
	list = without(list, s.id)
	if s.present {
		list = append(list, s.todo)
		domain.SortNewestFirst(list)
	}
	return list
}

func indexOf(list []domain.Todo, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func without(list []domain.Todo, id string) []domain.Todo {
	out := make([]domain.Todo, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// replace applies fn to the todo with id. Missing ids are ignored.
func replace(list []domain.Todo, id string, fn func(domain.Todo) domain.Todo) []domain.Todo {
	out := make([]domain.Todo, len(list))
	copy(out, list)
	if i := indexOf(out, id); i >= 0 {
		out[i] = fn(out[i])
	}
	return out
}
