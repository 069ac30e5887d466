package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/modules/images"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// fakeImages records object store calls.
type fakeImages struct {
	mu        sync.Mutex
	objects   map[string]bool
	uploads   int
	removes   int
	uploadErr error
	removeErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: make(map[string]bool)}
}

func (f *fakeImages) Upload(_ context.Context, owner, todoID string, upload domain.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := fmt.Sprintf("http://media.test/storage/v1/object/public/todo-images/%s/%s/%s_%d.png", owner, todoID, todoID, f.uploads)
	f.objects[url] = true
	return url, nil
}

func (f *fakeImages) Remove(_ context.Context, owner, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, imageURL)
	return nil
}

func (f *fakeImages) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// fakeCache is an in-memory CacheService.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Close() error { return nil }

// failingRepo fails every call.
type failingRepo struct {
	Repository
	err error
}

func (r *failingRepo) ListByOwner(context.Context, string) ([]domain.Todo, error) {
	return nil, r.err
}

// tickingClock advances one second per call so creation order is stable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func setupTestService(t *testing.T, opts ...Option) (*Service, *fakeImages) {
	t.Helper()
	imgs := newFakeImages()
	opts = append([]Option{WithClock(tickingClock())}, opts...)
	return NewService(setupTestRepo(t), imgs, &mockLogger{}, opts...), imgs
}

func pngUpload(size int) domain.Upload {
	return domain.Upload{Filename: "photo.png", ContentType: "image/png", Data: make([]byte, size)}
}

func TestService_CreateThenList(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description *string
		wantDesc    *string
	}{
		{name: "title only", title: "Buy milk"},
		{name: "with description", title: "Call mom", description: strPtr("Sunday"), wantDesc: strPtr("Sunday")},
		{name: "blank description stored as null", title: "Read", description: strPtr("   "), wantDesc: nil},
		{name: "title is trimmed", title: "  Walk  ", description: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupTestService(t)
			ctx := context.Background()

			if _, err := svc.Create(ctx, "alice", domain.CreateInput{Title: "existing"}); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			before, _ := svc.List(ctx, "alice")

			created, err := svc.Create(ctx, "alice", domain.CreateInput{Title: tt.title, Description: tt.description})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			after, err := svc.List(ctx, "alice")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(after) != len(before)+1 {
				t.Fatalf("List() has %d todos, want %d", len(after), len(before)+1)
			}

			matches := 0
			for _, td := range after {
				if td.ID == created.ID {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("List() contains the new todo %d times, want 1", matches)
			}

			got := after[0]
			if got.ID != created.ID {
				t.Errorf("newest todo = %q, want %q", got.ID, created.ID)
			}
			if got.Title != strings.TrimSpace(tt.title) {
				t.Errorf("Title = %q, want %q", got.Title, strings.TrimSpace(tt.title))
			}
			if !equalStrPtr(got.Description, tt.wantDesc) {
				t.Errorf("Description = %v, want %v", got.Description, tt.wantDesc)
			}
			if got.Completed {
				t.Error("Completed = true, want false")
			}
			if got.UserID != "alice" {
				t.Errorf("UserID = %q, want %q", got.UserID, "alice")
			}
		})
	}
}

func TestService_CreateRequiresTitle(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for _, title := range []string{"", "   "} {
		if _, err := svc.Create(ctx, "alice", domain.CreateInput{Title: title}); !errors.Is(err, domain.ErrTitleRequired) {
			t.Errorf("Create(%q) error = %v, want %v", title, err, domain.ErrTitleRequired)
		}
	}
	if todos, _ := svc.List(ctx, "alice"); len(todos) != 0 {
		t.Errorf("List() has %d todos, want 0", len(todos))
	}
}

func TestService_ToggleLeavesOtherFields(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", domain.CreateInput{Title: "Plant", Description: strPtr("basil")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	url, err := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10))
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}

	if err := svc.ToggleCompletion(ctx, "alice", created.ID, true); err != nil {
		t.Fatalf("ToggleCompletion(true) error = %v", err)
	}
	mid, _ := svc.repo.Get(ctx, "alice", created.ID)
	if !mid.Completed {
		t.Error("Completed = false after toggle(true)")
	}
	if err := svc.ToggleCompletion(ctx, "alice", created.ID, false); err != nil {
		t.Fatalf("ToggleCompletion(false) error = %v", err)
	}

	got, err := svc.repo.Get(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Completed {
		t.Error("Completed = true after toggle(false)")
	}
	if got.Title != "Plant" || !equalStrPtr(got.Description, strPtr("basil")) || !equalStrPtr(got.ImageURL, &url) {
		t.Errorf("fields changed by toggles: %+v", got)
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Draft", Description: strPtr("notes")})

	if err := svc.Update(ctx, "alice", created.ID, domain.Patch{Title: strPtr("  ")}); !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("Update(blank title) error = %v, want %v", err, domain.ErrTitleRequired)
	}

	if err := svc.Update(ctx, "alice", created.ID, domain.Patch{Title: strPtr("Final"), Description: strPtr("")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := svc.repo.Get(ctx, "alice", created.ID)
	if got.Title != "Final" {
		t.Errorf("Title = %q, want %q", got.Title, "Final")
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, got.CreatedAt)
	}

	if err := svc.Update(ctx, "alice", "missing", domain.Patch{Title: strPtr("x")}); err != nil {
		t.Errorf("Update(missing) error = %v, want nil", err)
	}
	if err := svc.Update(ctx, "bob", created.ID, domain.Patch{Title: strPtr("hijack")}); err != nil {
		t.Errorf("Update(other owner) error = %v, want nil", err)
	}
	got, _ = svc.repo.Get(ctx, "alice", created.ID)
	if got.Title != "Final" {
		t.Errorf("Title = %q after foreign update, want %q", got.Title, "Final")
	}

	if err := svc.Update(ctx, "alice", created.ID, domain.Patch{}); err != nil {
		t.Errorf("Update(empty patch) error = %v, want nil", err)
	}
}

func TestService_DeleteRemovesFromList(t *testing.T) {
	tests := []struct {
		name      string
		withImage bool
		removeErr error
	}{
		{name: "without image"},
		{name: "with image", withImage: true},
		{name: "image cleanup fails", withImage: true, removeErr: errors.New("object store down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, imgs := setupTestService(t)
			ctx := context.Background()

			created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Temp"})
			if tt.withImage {
				if _, err := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10)); err != nil {
					t.Fatalf("AttachImage() error = %v", err)
				}
			}
			imgs.removeErr = tt.removeErr

			if err := svc.Delete(ctx, "alice", created.ID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			todos, _ := svc.List(ctx, "alice")
			for _, td := range todos {
				if td.ID == created.ID {
					t.Fatalf("List() still contains %q", created.ID)
				}
			}
			if tt.withImage && imgs.removes != 1 {
				t.Errorf("image removes = %d, want 1", imgs.removes)
			}
			if tt.withImage && tt.removeErr == nil && imgs.stored() != 0 {
				t.Errorf("stored objects = %d, want 0", imgs.stored())
			}
		})
	}
}

func TestService_DeleteOtherOwnerIsNoop(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Keep"})
	if err := svc.Delete(ctx, "bob", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if todos, _ := svc.List(ctx, "alice"); len(todos) != 1 {
		t.Errorf("List() has %d todos, want 1", len(todos))
	}
}

func TestService_Unauthenticated(t *testing.T) {
	svc, imgs := setupTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Mine"})

	calls := map[string]func() error{
		"List":  func() error { _, err := svc.List(ctx, ""); return err },
		"Stats": func() error { _, err := svc.Stats(ctx, ""); return err },
		"Create": func() error {
			_, err := svc.Create(ctx, "", domain.CreateInput{Title: "ghost"})
			return err
		},
		"Update": func() error { return svc.Update(ctx, "", created.ID, domain.Patch{Title: strPtr("x")}) },
		"Toggle": func() error { return svc.ToggleCompletion(ctx, "", created.ID, true) },
		"Delete": func() error { return svc.Delete(ctx, "", created.ID) },
		"AttachImage": func() error {
			_, err := svc.AttachImage(ctx, "", created.ID, pngUpload(10))
			return err
		},
		"RemoveImage": func() error { return svc.RemoveImage(ctx, "", created.ID) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Errorf("%s() error = %v, want %v", name, err, domain.ErrUnauthenticated)
			}
		})
	}

	got, err := svc.repo.Get(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Mine" || got.Completed {
		t.Errorf("row changed by unauthenticated calls: %+v", got)
	}
	all, _ := svc.repo.ListByOwner(ctx, "")
	if len(all) != 0 {
		t.Errorf("rows without owner = %d, want 0", len(all))
	}
	if imgs.uploads != 0 {
		t.Errorf("uploads = %d, want 0", imgs.uploads)
	}
}

func TestService_AttachImageValidation(t *testing.T) {
	tests := []struct {
		name    string
		upload  domain.Upload
		wantErr error
	}{
		{
			name:    "disallowed type",
			upload:  domain.Upload{Filename: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
			wantErr: images.ErrInvalidFileType,
		},
		{
			name:    "too large",
			upload:  pngUpload(int(images.MaxUploadSize) + 1),
			wantErr: images.ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, imgs := setupTestService(t)
			ctx := context.Background()
			created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Pic"})

			if _, err := svc.AttachImage(ctx, "alice", created.ID, tt.upload); !errors.Is(err, tt.wantErr) {
				t.Fatalf("AttachImage() error = %v, want %v", err, tt.wantErr)
			}
			if imgs.uploads != 0 || imgs.removes != 0 {
				t.Errorf("store calls = %d uploads, %d removes, want none", imgs.uploads, imgs.removes)
			}
			got, _ := svc.repo.Get(ctx, "alice", created.ID)
			if got.ImageURL != nil {
				t.Errorf("ImageURL = %q, want nil", *got.ImageURL)
			}
		})
	}
}

func TestService_AttachImageReplacesPrevious(t *testing.T) {
	svc, imgs := setupTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Pic"})

	first, err := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10))
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}

	imgs.removeErr = errors.New("transient")
	second, err := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10))
	if err != nil {
		t.Fatalf("AttachImage() with failing cleanup error = %v", err)
	}
	if first == second {
		t.Fatal("second upload reused the first URL")
	}

	got, _ := svc.repo.Get(ctx, "alice", created.ID)
	if got.ImageURL == nil || *got.ImageURL != second {
		t.Errorf("ImageURL = %v, want %q", got.ImageURL, second)
	}
}

func TestService_AttachImageFailures(t *testing.T) {
	svc, imgs := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.AttachImage(ctx, "alice", "missing", pngUpload(10)); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Errorf("AttachImage(missing) error = %v, want %v", err, domain.ErrTodoNotFound)
	}

	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Pic"})
	imgs.uploadErr = errors.New("bucket full")
	_, err := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10))
	if err == nil || !strings.HasPrefix(err.Error(), "upload failed: ") {
		t.Fatalf("AttachImage() error = %v, want upload failed", err)
	}
	got, _ := svc.repo.Get(ctx, "alice", created.ID)
	if got.ImageURL != nil {
		t.Errorf("ImageURL = %q, want nil", *got.ImageURL)
	}
}

func TestService_RemoveImage(t *testing.T) {
	svc, imgs := setupTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Pic"})

	if err := svc.RemoveImage(ctx, "alice", created.ID); err != nil {
		t.Fatalf("RemoveImage() without image error = %v", err)
	}
	if imgs.removes != 0 {
		t.Errorf("removes = %d, want 0", imgs.removes)
	}

	url, _ := svc.AttachImage(ctx, "alice", created.ID, pngUpload(10))

	imgs.removeErr = errors.New("permission denied")
	if err := svc.RemoveImage(ctx, "alice", created.ID); err == nil {
		t.Fatal("RemoveImage() with failing delete succeeded, want error")
	}
	got, _ := svc.repo.Get(ctx, "alice", created.ID)
	if got.ImageURL == nil || *got.ImageURL != url {
		t.Fatalf("ImageURL = %v after failed remove, want %q", got.ImageURL, url)
	}

	imgs.removeErr = nil
	if err := svc.RemoveImage(ctx, "alice", created.ID); err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}
	got, _ = svc.repo.Get(ctx, "alice", created.ID)
	if got.ImageURL != nil {
		t.Errorf("ImageURL = %q, want nil", *got.ImageURL)
	}
}

func TestService_ListFailureIsEmpty(t *testing.T) {
	svc := NewService(&failingRepo{err: errors.New("connection refused")}, newFakeImages(), &mockLogger{})

	todos, err := svc.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("List() = %v, want empty slice", todos)
	}
}

// gatedRepo blocks ListByOwner until release is closed.
type gatedRepo struct {
	Repository
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Todo, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.Todo{{ID: "t1", UserID: owner, Title: "shared"}}, nil
}

func TestService_ListSharedQuerySurvivesCancel(t *testing.T) {
	repo := &gatedRepo{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo, newFakeImages(), &mockLogger{})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.List(firstCtx, "alice")
		firstErr <- err
	}()
	<-repo.started

	second := make(chan []domain.Todo, 1)
	go func() {
		todos, _ := svc.List(context.Background(), "alice")
		second <- todos
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled List() error = %v, want context.Canceled", err)
	}

	close(repo.release)
	todos := <-second
	if len(todos) != 1 || todos[0].Title != "shared" {
		t.Errorf("second List() = %+v, want the shared result", todos)
	}
}

func TestService_ListCache(t *testing.T) {
	c := newFakeCache()
	svc, _ := setupTestService(t, WithCache(c))
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "Cached"})
	if _, err := svc.List(ctx, "alice"); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, ok := c.entries[listCacheKey("alice")]; !ok {
		t.Fatal("List() did not populate the cache")
	}

	if err := svc.ToggleCompletion(ctx, "alice", created.ID, true); err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if _, ok := c.entries[listCacheKey("alice")]; ok {
		t.Fatal("mutation did not invalidate the cache")
	}

	todos, _ := svc.List(ctx, "alice")
	if len(todos) != 1 || !todos[0].Completed {
		t.Errorf("List() after toggle = %+v, want one completed todo", todos)
	}
}

func TestService_Stats(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "alice", domain.CreateInput{Title: "a"})
	svc.Create(ctx, "alice", domain.CreateInput{Title: "b"})
	svc.Create(ctx, "bob", domain.CreateInput{Title: "c"})
	svc.ToggleCompletion(ctx, "alice", a.ID, true)

	stats, err := svc.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := domain.Stats{Total: 2, Completed: 1, Active: 1}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

func TestCleanupPolicy_String(t *testing.T) {
	tests := []struct {
		policy CleanupPolicy
		want   string
	}{
		{CleanupBestEffort, "best-effort"},
		{CleanupStrict, "strict"},
		{CleanupPolicy(7), "CleanupPolicy(7)"},
	}
	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func strPtr(s string) *string { return &s }

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
