package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/todo-tracker/view"
)

// Run loads the list and runs the interactive view until the user quits.
// Changes still in flight are given the chance to finish before it returns.
func Run(ctx context.Context, facade view.Facade, readUpload UploadReader) error {
	notes := newNotifier()
	ctrl, err := view.New(facade, notes)
	if err != nil {
		return err
	}
	if err := ctrl.Load(ctx); err != nil {
		return fmt.Errorf("failed to load todos: %w", err)
	}

	p := tea.NewProgram(newModel(ctrl, notes, readUpload), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	ctrl.Wait()
	ctrl.Close()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.expired {
		return ErrSessionExpired
	}
	return nil
}
