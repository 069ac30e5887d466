package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/events"
	"github.com/example/todo-tracker/modules/cache"
	"github.com/example/todo-tracker/modules/images"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ImageStore is what the service needs from the object store.
type ImageStore interface {
	Upload(ctx context.Context, owner, todoID string, upload domain.Upload) (string, error)
	Remove(ctx context.Context, owner, imageURL string) error
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables cache-aside for List.
func WithCache(c cache.CacheService) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithEventBus publishes lifecycle events after successful mutations.
func WithEventBus(bus mono.EventBus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator for new rows.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// Service is the owner-scoped mutation façade over todos and their images.
// Every method takes the caller's owner id and returns
// domain.ErrUnauthenticated when it is empty, before touching any store.
type Service struct {
	repo    Repository
	images  ImageStore
	cache   cache.CacheService
	bus     mono.EventBus
	logger  types.Logger
	sfGroup singleflight.Group
	now     func() time.Time
	newID   func() string
}

// NewService creates the façade.
func NewService(repo Repository, imgs ImageStore, logger types.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		images: imgs,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func listCacheKey(owner string) string {
	return "list:" + owner
}

// List returns the owner's todos, newest first. Store failures are logged
// and yield an empty list. A cancelled caller gets ctx.Err() while callers
// sharing its query still get the result.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Todo, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}

	key := listCacheKey(owner)
	if s.cache != nil {
		var cached []domain.Todo
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Cache read failed", "key", key, "error", err)
		}
		if found {
			return cached, nil
		}
	}

	// The query is shared by every waiting caller, so it must not end when
	// the caller that started it goes away.
	queryCtx := context.WithoutCancel(ctx)
	ch := s.sfGroup.DoChan(key, func() (any, error) {
		return s.repo.ListByOwner(queryCtx, owner)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		s.logger.Error("Failed to list todos", "owner", owner, "error", res.Err)
		return []domain.Todo{}, nil
	}

	// singleflight shares the slice between callers
	shared, _ := res.Val.([]domain.Todo)
	todos := make([]domain.Todo, len(shared))
	copy(todos, shared)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, todos); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}
	return todos, nil
}

// Stats counts the owner's todos by completion state.
func (s *Service) Stats(ctx context.Context, owner string) (domain.Stats, error) {
	todos, err := s.List(ctx, owner)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Count(todos), nil
}

// Create inserts a new todo for the owner and returns it.
func (s *Service) Create(ctx context.Context, owner string, in domain.CreateInput) (*domain.Todo, error) {
	if owner == "" {
		return nil, domain.ErrUnauthenticated
	}

	in = in.Normalize()
	if in.Title == "" {
		return nil, domain.ErrTitleRequired
	}

	now := s.now()
	t := &domain.Todo{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		ImageURL:    in.ImageURL,
		UserID:      owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		s.logger.Error("Failed to create todo", "owner", owner, "error", err)
		return nil, err
	}

	s.invalidate(ctx, owner)
	s.publish("TodoCreated", func() error {
		return events.TodoCreatedV1.Publish(s.bus, events.TodoCreatedEvent{
			TodoID:    t.ID,
			Title:     t.Title,
			UserID:    owner,
			CreatedAt: t.CreatedAt,
		}, nil)
	})

	return t, nil
}

// Update applies the non-nil fields of patch to the owner's todo. A todo
// that does not exist or belongs to someone else is left alone and the call
// still succeeds.
func (s *Service) Update(ctx context.Context, owner, id string, patch domain.Patch) error {
	if owner == "" {
		return domain.ErrUnauthenticated
	}

	patch = patch.Normalize()
	if patch.Title != nil && *patch.Title == "" {
		return domain.ErrTitleRequired
	}
	if patch.IsEmpty() {
		return nil
	}

	now := s.now()
	cols := patch.Columns()
	cols["updated_at"] = now

	n, err := s.repo.Update(ctx, owner, id, cols)
	if err != nil {
		s.logger.Error("Failed to update todo", "todo_id", id, "owner", owner, "error", err)
		return err
	}
	if n == 0 {
		return nil
	}

	s.invalidate(ctx, owner)

	var fields []string
	if patch.Title != nil {
		fields = append(fields, "title")
	}
	if patch.Description != nil {
		fields = append(fields, "description")
	}
	if len(fields) > 0 {
		s.publish("TodoUpdated", func() error {
			return events.TodoUpdatedV1.Publish(s.bus, events.TodoUpdatedEvent{
				TodoID:    id,
				UserID:    owner,
				Fields:    fields,
				UpdatedAt: now,
			}, nil)
		})
	}
	if patch.Completed != nil {
		s.publish("TodoCompleted", func() error {
			return events.TodoCompletedV1.Publish(s.bus, events.TodoCompletedEvent{
				TodoID:    id,
				UserID:    owner,
				Completed: *patch.Completed,
				ChangedAt: now,
			}, nil)
		})
	}
	return nil
}

// ToggleCompletion sets the completed flag.
func (s *Service) ToggleCompletion(ctx context.Context, owner, id string, completed bool) error {
	return s.Update(ctx, owner, id, domain.Patch{Completed: &completed})
}

// Delete removes the owner's todo. An attached image is deleted first under
// CleanupBestEffort, so a failed image deletion never keeps the row.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrUnauthenticated
	}

	hadImage := false
	t, err := s.repo.Get(ctx, owner, id)
	switch {
	case errors.Is(err, domain.ErrTodoNotFound):
	case err != nil:
		s.logger.Error("Failed to load todo for delete", "todo_id", id, "owner", owner, "error", err)
		return err
	case t.HasImage():
		_ = s.removeImage(ctx, owner, id, *t.ImageURL, CleanupBestEffort)
		hadImage = true
	}

	n, err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		s.logger.Error("Failed to delete todo", "todo_id", id, "owner", owner, "error", err)
		return err
	}
	if n == 0 {
		return nil
	}

	s.invalidate(ctx, owner)
	s.publish("TodoDeleted", func() error {
		return events.TodoDeletedV1.Publish(s.bus, events.TodoDeletedEvent{
			TodoID:    id,
			UserID:    owner,
			HadImage:  hadImage,
			DeletedAt: s.now(),
		}, nil)
	})
	return nil
}

// AttachImage validates and stores an image for the owner's todo and points
// the row at it. A previous image is deleted under CleanupBestEffort. The
// steps are not atomic: a crash between upload and row update leaves an
// unreferenced object.
func (s *Service) AttachImage(ctx context.Context, owner, id string, upload domain.Upload) (string, error) {
	if owner == "" {
		return "", domain.ErrUnauthenticated
	}
	if err := images.ValidateUpload(upload.ContentType, upload.Size()); err != nil {
		return "", err
	}

	t, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return "", err
	}

	if t.HasImage() {
		_ = s.removeImage(ctx, owner, id, *t.ImageURL, CleanupBestEffort)
	}

	url, err := s.images.Upload(ctx, owner, id, upload)
	if err != nil {
		s.logger.Error("Image upload failed", "todo_id", id, "owner", owner, "error", err)
		return "", fmt.Errorf("upload failed: %w", err)
	}

	now := s.now()
	if _, err := s.repo.Update(ctx, owner, id, map[string]any{"image_url": url, "updated_at": now}); err != nil {
		s.logger.Error("Failed to save image reference", "todo_id", id, "image_url", url, "error", err)
		return "", err
	}

	s.invalidate(ctx, owner)
	s.publish("TodoImageAttached", func() error {
		return events.TodoImageAttachedV1.Publish(s.bus, events.TodoImageEvent{
			TodoID:    id,
			UserID:    owner,
			ImageURL:  url,
			ChangedAt: now,
		}, nil)
	})
	return url, nil
}

// RemoveImage deletes the owner's todo image under CleanupStrict and then
// clears the reference. If the deletion fails the row keeps its image.
func (s *Service) RemoveImage(ctx context.Context, owner, id string) error {
	if owner == "" {
		return domain.ErrUnauthenticated
	}

	t, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if !t.HasImage() {
		return nil
	}

	if err := s.removeImage(ctx, owner, id, *t.ImageURL, CleanupStrict); err != nil {
		s.logger.Error("Failed to remove image", "todo_id", id, "owner", owner, "error", err)
		return err
	}

	now := s.now()
	if _, err := s.repo.Update(ctx, owner, id, map[string]any{"image_url": nil, "updated_at": now}); err != nil {
		s.logger.Error("Failed to clear image reference", "todo_id", id, "error", err)
		return err
	}

	s.invalidate(ctx, owner)
	s.publish("TodoImageRemoved", func() error {
		return events.TodoImageRemovedV1.Publish(s.bus, events.TodoImageEvent{
			TodoID:    id,
			UserID:    owner,
			ImageURL:  *t.ImageURL,
			ChangedAt: now,
		}, nil)
	})
	return nil
}

// invalidate drops the owner's cached list. Failures only log.
func (s *Service) invalidate(ctx context.Context, owner string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey(owner)); err != nil {
		s.logger.Warn("Failed to invalidate cache", "owner", owner, "error", err)
	}
}

// publish sends an event when a bus is configured. Failures only log.
func (s *Service) publish(event string, send func() error) {
	if s.bus == nil {
		return
	}
	if err := send(); err != nil {
		s.logger.Warn("Failed to publish event", "event", event, "error", err)
	}
}
