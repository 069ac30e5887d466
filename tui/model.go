// Package tui is the terminal front end of the todo tracker. It renders the
// view controller's list and turns key presses into its operations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/view"
)

// ErrSessionExpired is returned by Run when the backend asked for a new login.
var ErrSessionExpired = errors.New("session expired, log in again")

// UploadReader loads a local image file for attaching.
type UploadReader func(path string) (domain.Upload, error)

type inputMode int

const (
	modeNone inputMode = iota
	modeAddTitle
	modeAddDescription
	modeEdit
	modeSearch
	modeAttach
)

var filterCycle = []domain.FilterKind{domain.FilterAll, domain.FilterActive, domain.FilterCompleted}

// todoItem adapts a todo to bubbles/list.Item.
type todoItem struct {
	todo    domain.Todo
	pending bool
}

func (i todoItem) Title() string       { return i.todo.Title }
func (i todoItem) Description() string { return derefString(i.todo.Description) }
func (i todoItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders one todo per line.
type itemDelegate struct {
	now func() time.Time
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	if desc := derefString(it.todo.Description); desc != "" {
		text += mutedStyle.Render(" - " + desc)
	}
	if it.todo.HasImage() {
		text += " " + accentStyle.Render(imageMark)
	}
	if it.pending {
		text += " " + pendingStyle.Render("…")
	}
	text += mutedStyle.Render("  " + humanize.RelTime(it.todo.CreatedAt, d.now(), "ago", "from now"))

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// Model is the bubbletea model.
type Model struct {
	ctrl       *view.Controller
	notes      *notifier
	readUpload UploadReader

	list   list.Model
	input  textinput.Model
	mode   inputMode
	filter domain.Filter

	// pendingTitle holds the title between the two add prompts.
	pendingTitle string
	status       string
	statusErr    bool
	expired      bool
	width        int
	height       int
}

func newModel(ctrl *view.Controller, notes *notifier, readUpload UploadReader) Model {
	l := list.New(nil, itemDelegate{now: time.Now}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "image")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove image")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings[:4] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500

	m := Model{
		ctrl:       ctrl,
		notes:      notes,
		readUpload: readUpload,
		list:       l,
		input:      ti,
		filter:     domain.Filter{Kind: domain.FilterAll},
		width:      80,
		height:     24,
	}
	m.refresh()
	return m
}

// Init starts listening for notifications.
func (m Model) Init() tea.Cmd {
	return m.notes.next()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case toastMsg:
		m.setStatus(msg.text, msg.err)
		m.refresh()
		return m, m.notes.next()
	case sessionExpiredMsg:
		m.expired = true
		return m, tea.Quit
	case reloadedMsg:
		m.apply(msg.err, "Reloaded")
		if m.expired {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		var (
			next tea.Model
			cmd  tea.Cmd
		)
		if m.mode != modeNone {
			next, cmd = m.updateInput(msg)
		} else {
			next, cmd = m.updateList(msg)
		}
		if nm, ok := next.(Model); ok && nm.expired {
			return nm, tea.Quit
		}
		return next, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// reloadedMsg carries the outcome of a reload.
type reloadedMsg struct {
	err error
}

func (m Model) reload() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return reloadedMsg{err: ctrl.Load(context.Background())}
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		return m.prompt(modeAddTitle, "", "New todo title..."), nil
	case "/":
		return m.prompt(modeSearch, m.filter.Search, "Search title or description..."), nil
	case "tab":
		m.filter.Kind = nextKind(m.filter.Kind)
		m.refresh()
		return m, nil
	case "r":
		m.setStatus("Reloading...", false)
		return m, m.reload()
	}

	selected, ok := m.selected()
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case " ":
		m.apply(m.ctrl.Toggle(selected.ID), "")
		return m, nil
	case "d":
		m.apply(m.ctrl.Delete(selected.ID), "")
		return m, nil
	case "x":
		m.apply(m.ctrl.RemoveImage(selected.ID), "")
		return m, nil
	case "e":
		return m.prompt(modeEdit, selected.Title, "Edit title..."), nil
	case "i":
		return m.prompt(modeAttach, "", "Path to a JPEG, PNG, WebP or GIF image..."), nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeAddDescription {
			m.submitCreate(nil)
		}
		return m.closePrompt(), nil
	case "enter":
		return m.submit(), nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() Model {
	value := strings.TrimSpace(m.input.Value())
	switch m.mode {
	case modeAddTitle:
		if value == "" {
			m.setStatus(domain.ErrTitleRequired.Error(), true)
			return m
		}
		m.pendingTitle = value
		return m.prompt(modeAddDescription, "", "Description (optional, enter to skip)...")
	case modeAddDescription:
		var desc *string
		if value != "" {
			desc = &value
		}
		m.submitCreate(desc)
	case modeEdit:
		if selected, ok := m.selected(); ok {
			m.apply(m.ctrl.Update(selected.ID, domain.Patch{Title: &value}), "")
		}
	case modeSearch:
		m.filter.Search = value
		m.refresh()
	case modeAttach:
		if selected, ok := m.selected(); ok && value != "" {
			upload, err := m.readUpload(value)
			if err != nil {
				m.setStatus(err.Error(), true)
			} else {
				m.apply(m.ctrl.AttachImage(selected.ID, upload), "Uploading "+upload.Filename+"...")
			}
		}
	}
	return m.closePrompt()
}

func (m *Model) submitCreate(desc *string) {
	_, err := m.ctrl.Create(m.pendingTitle, desc)
	m.pendingTitle = ""
	m.apply(err, "")
}

// apply reports the synchronous outcome of an operation and redraws.
func (m *Model) apply(err error, okText string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		m.expired = true
	case err != nil:
		m.setStatus(err.Error(), true)
	case okText != "":
		m.setStatus(okText, false)
	}
	m.refresh()
}

func (m Model) prompt(mode inputMode, value, placeholder string) Model {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m
}

func (m Model) closePrompt() Model {
	m.mode = modeNone
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) refresh() {
	todos := m.ctrl.Visible(m.filter)
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = todoItem{todo: t, pending: m.ctrl.Pending(t.ID)}
	}
	m.list.SetItems(items)

	stats := m.ctrl.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d   [%s]",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), stats.Completed,
		pendingStyle.Render("•"), stats.Active,
		accentStyle.Render("Total"), stats.Total,
		m.filter.Kind,
	)
}

func (m Model) selected() (domain.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return domain.Todo{}, false
	}
	return it.todo, true
}

// View renders the list, the prompt and the last status line.
func (m Model) View() string {
	listHeight := m.height - 4
	if m.mode != modeNone {
		listHeight -= 3
	}
	m.list.SetSize(m.width-4, listHeight)

	content := m.list.View()
	if m.filter.Search != "" {
		content += "\n" + mutedStyle.Render("search: "+m.filter.Search)
	}
	if m.mode != modeNone {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		content += "\n" + bar.Render(promptTitle(m.mode)+"\n"+m.input.View())
	}
	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		content += "\n" + style.Render(m.status)
	}
	return panelString(content)
}

func promptTitle(mode inputMode) string {
	switch mode {
	case modeAddTitle:
		return "Add todo"
	case modeAddDescription:
		return "Add todo: description"
	case modeEdit:
		return "Edit title"
	case modeSearch:
		return "Search"
	case modeAttach:
		return "Attach image"
	default:
		return ""
	}
}

func nextKind(k domain.FilterKind) domain.FilterKind {
	for i, kind := range filterCycle {
		if kind == k {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return domain.FilterAll
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
