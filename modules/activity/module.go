// Package activity keeps a per-owner feed of recent todo changes built from
// the todo module's events.
package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/todo-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module consumes todo events into a Feed.
type Module struct {
	feed   *Feed
	logger types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the activity module.
func NewModule(capacity int, logger types.Logger) *Module {
	return &Module{
		feed:   NewFeed(capacity),
		logger: logger,
	}
}

func (m *Module) Name() string {
	return "activity"
}

// Feed returns the owner feeds for readers such as the HTTP API.
func (m *Module) Feed() *Feed {
	return m.feed
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoCreatedV1, m.handleCreated, m); err != nil {
		return fmt.Errorf("failed to register TodoCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoUpdatedV1, m.handleUpdated, m); err != nil {
		return fmt.Errorf("failed to register TodoUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoCompletedV1, m.handleCompleted, m); err != nil {
		return fmt.Errorf("failed to register TodoCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoDeletedV1, m.handleDeleted, m); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoImageAttachedV1, m.handleImageAttached, m); err != nil {
		return fmt.Errorf("failed to register TodoImageAttached consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoImageRemovedV1, m.handleImageRemoved, m); err != nil {
		return fmt.Errorf("failed to register TodoImageRemoved consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", "TodoCreated, TodoUpdated, TodoCompleted, TodoDeleted, TodoImageAttached, TodoImageRemoved")
	return nil
}

func (m *Module) handleCreated(_ context.Context, e events.TodoCreatedEvent, _ *mono.Msg) error {
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "created",
		Message: fmt.Sprintf("Created %q", e.Title),
		At:      e.CreatedAt,
	})
	return nil
}

func (m *Module) handleUpdated(_ context.Context, e events.TodoUpdatedEvent, _ *mono.Msg) error {
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "updated",
		Message: "Edited " + strings.Join(e.Fields, " and "),
		At:      e.UpdatedAt,
	})
	return nil
}

func (m *Module) handleCompleted(_ context.Context, e events.TodoCompletedEvent, _ *mono.Msg) error {
	msg := "Marked as done"
	if !e.Completed {
		msg = "Marked as not done"
	}
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "completed",
		Message: msg,
		At:      e.ChangedAt,
	})
	return nil
}

func (m *Module) handleDeleted(_ context.Context, e events.TodoDeletedEvent, _ *mono.Msg) error {
	msg := "Deleted"
	if e.HadImage {
		msg = "Deleted with its image"
	}
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "deleted",
		Message: msg,
		At:      e.DeletedAt,
	})
	return nil
}

func (m *Module) handleImageAttached(_ context.Context, e events.TodoImageEvent, _ *mono.Msg) error {
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "image_attached",
		Message: "Attached an image",
		At:      e.ChangedAt,
	})
	return nil
}

func (m *Module) handleImageRemoved(_ context.Context, e events.TodoImageEvent, _ *mono.Msg) error {
	m.feed.Add(e.UserID, Entry{
		TodoID:  e.TodoID,
		Kind:    "image_removed",
		Message: "Removed the image",
		At:      e.ChangedAt,
	})
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started - listening for todo events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"owners": m.feed.Owners(),
		},
	}
}
