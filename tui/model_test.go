package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFacade struct {
	mu      sync.Mutex
	todos   []domain.Todo
	deleted []string
	lists   int
	failAll error
}

func (f *memFacade) List(context.Context) ([]domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]domain.Todo(nil), f.todos...), nil
}

func (f *memFacade) Create(_ context.Context, in domain.CreateInput) (*domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	t := domain.Todo{ID: "srv-" + in.Title, Title: in.Title, Description: in.Description, CreatedAt: time.Now()}
	f.todos = append(f.todos, t)
	return &t, nil
}

func (f *memFacade) Update(context.Context, string, domain.Patch) error { return f.failAll }
func (f *memFacade) Toggle(context.Context, string, bool) error        { return f.failAll }

func (f *memFacade) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.failAll
}

func (f *memFacade) AttachImage(_ context.Context, id string, _ domain.Upload) (string, error) {
	return "http://media.test/" + id + ".png", f.failAll
}

func (f *memFacade) RemoveImage(context.Context, string) error { return f.failAll }

func setupModel(t *testing.T, facade *memFacade) (Model, *view.Controller) {
	t.Helper()
	notes := newNotifier()
	ctrl, err := view.New(facade, notes)
	require.NoError(t, err)
	require.NoError(t, ctrl.Load(context.Background()))
	readUpload := func(path string) (domain.Upload, error) {
		if !strings.HasSuffix(path, ".png") {
			return domain.Upload{}, errors.New("not an image")
		}
		return domain.Upload{Filename: path, ContentType: "image/png", Data: []byte("x")}, nil
	}
	return newModel(ctrl, notes, readUpload), ctrl
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func seedTodos() []domain.Todo {
	base := time.Now().Add(-time.Hour)
	return []domain.Todo{
		{ID: "a", Title: "Foobar", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", Title: "baz", Completed: true, CreatedAt: base},
	}
}

func TestAddTodo(t *testing.T) {
	facade := &memFacade{}
	m, ctrl := setupModel(t, facade)

	m = press(t, m, "a", "Buy milk", "enter", "2 liters", "enter")
	assert.Equal(t, modeNone, m.mode)

	// The placeholder is visible before the call completes.
	require.Len(t, m.list.Items(), 1)

	ctrl.Wait()
	todos := ctrl.Todos()
	require.Len(t, todos, 1)
	assert.Equal(t, "srv-Buy milk", todos[0].ID)
	require.NotNil(t, todos[0].Description)
	assert.Equal(t, "2 liters", *todos[0].Description)
}

func TestAddEmptyTitleStaysInPrompt(t *testing.T) {
	m, ctrl := setupModel(t, &memFacade{})

	m = press(t, m, "a", "enter")
	assert.Equal(t, modeAddTitle, m.mode)
	assert.True(t, m.statusErr)
	assert.Empty(t, ctrl.Todos())
}

func TestToggleAndDeleteSelected(t *testing.T) {
	facade := &memFacade{todos: seedTodos()}
	m, ctrl := setupModel(t, facade)

	m = press(t, m, " ")
	got, _ := ctrl.Get("a")
	assert.True(t, got.Completed)
	ctrl.Wait()

	m = press(t, m, "d")
	ctrl.Wait()
	_, ok := ctrl.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, facade.deleted)
	assert.Len(t, m.list.Items(), 1)
}

func TestFilterCycleAndSearch(t *testing.T) {
	m, _ := setupModel(t, &memFacade{todos: seedTodos()})

	m = press(t, m, "tab")
	assert.Equal(t, domain.FilterActive, m.filter.Kind)
	assert.Len(t, m.list.Items(), 1)

	m = press(t, m, "tab")
	assert.Equal(t, domain.FilterCompleted, m.filter.Kind)
	assert.Len(t, m.list.Items(), 1)

	m = press(t, m, "tab", "/", "FOO", "enter")
	assert.Equal(t, domain.FilterAll, m.filter.Kind)
	assert.Equal(t, "FOO", m.filter.Search)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "a", m.list.Items()[0].(todoItem).todo.ID)
}

func TestAttachRejectsUnreadableFile(t *testing.T) {
	m, ctrl := setupModel(t, &memFacade{todos: seedTodos()})

	m = press(t, m, "i", "notes.txt", "enter")
	assert.True(t, m.statusErr)
	assert.Equal(t, "not an image", m.status)
	assert.False(t, ctrl.Pending("a"))
}

func TestToastRefreshesList(t *testing.T) {
	facade := &memFacade{todos: seedTodos(), failAll: errors.New("backend down")}
	m, ctrl := setupModel(t, facade)

	m = press(t, m, "d")
	assert.Len(t, m.list.Items(), 1)
	ctrl.Wait()

	msg := m.notes.next()()
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.True(t, m.statusErr)
	assert.Equal(t, view.MsgDeleteFailed+": backend down", m.status)
	assert.Len(t, m.list.Items(), 2)
}

func TestSessionExpiredQuits(t *testing.T) {
	m, _ := setupModel(t, &memFacade{})

	next, cmd := m.Update(sessionExpiredMsg{})
	assert.True(t, next.(Model).expired)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestReloadRunsAsCommand(t *testing.T) {
	facade := &memFacade{todos: seedTodos()}
	m, _ := setupModel(t, facade)
	facade.todos = append(facade.todos, domain.Todo{ID: "c", Title: "new elsewhere", CreatedAt: time.Now()})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, 1, facade.lists, "list is not fetched inside Update")
	assert.Len(t, m.list.Items(), 2)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, 2, facade.lists)
	assert.Len(t, m.list.Items(), 3)
	assert.Equal(t, "Reloaded", m.status)
}

func TestSessionExpiryNotDroppedByFullQueue(t *testing.T) {
	notes := newNotifier()
	for i := 0; i < 64; i++ {
		notes.Error("backend down")
	}
	notes.Unauthenticated()

	assert.IsType(t, sessionExpiredMsg{}, notes.next()())
	assert.IsType(t, toastMsg{}, notes.next()())
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██░░] 1/2", ProgressBar(1, 2, 4))
	assert.Equal(t, "[░░░░] 0/0", ProgressBar(0, 0, 4))
}
