package images

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// createTestModule starts an embedded app with an in-memory image bucket.
func createTestModule(t *testing.T) *Module {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	plugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        BucketName,
				Description: "Test image bucket",
				MaxBytes:    32 * 1024 * 1024,
				Storage:     fsjetstream.MemoryStorage,
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, app.RegisterPlugin(plugin, "storage"))
	require.NoError(t, app.Start(context.Background()))

	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	module := NewModule("http://media.test", &mockLogger{})
	module.SetPlugin("storage", plugin)
	require.NoError(t, module.Start(context.Background()))
	return module
}

func TestModule_StartWithoutPlugin(t *testing.T) {
	module := NewModule("http://media.test", &mockLogger{})
	assert.Error(t, module.Start(context.Background()))
	assert.False(t, module.Health(context.Background()).Healthy)
}

func TestJetStreamObjects_RoundTrip(t *testing.T) {
	module := createTestModule(t)
	objects := NewJetStreamObjects(module.bucket)
	ctx := context.Background()

	exists, err := objects.Exists(ctx, "u1/t1/t1_1.png")
	require.NoError(t, err)
	assert.False(t, exists)

	err = objects.Put(ctx, "u1/t1/t1_1.png", []byte("png-data"), ObjectMeta{
		ContentType:  "image/png",
		CacheControl: CacheControl,
		Owner:        "u1",
	})
	require.NoError(t, err)

	exists, err = objects.Exists(ctx, "u1/t1/t1_1.png")
	require.NoError(t, err)
	assert.True(t, exists)

	data, meta, err := objects.Get(ctx, "u1/t1/t1_1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-data"), data)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, "u1", meta.Owner)

	require.NoError(t, objects.Delete(ctx, "u1/t1/t1_1.png"))
	assert.ErrorIs(t, objects.Delete(ctx, "u1/t1/t1_1.png"), ErrObjectNotFound)

	_, _, err = objects.Get(ctx, "u1/t1/t1_1.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestJetStreamObjects_ExistsReportsBackendErrors(t *testing.T) {
	app, err := mono.NewMonoApplication(mono.WithLogLevel(mono.LogLevelError))
	require.NoError(t, err)
	plugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{Name: BucketName, MaxBytes: 1024 * 1024, Storage: fsjetstream.MemoryStorage},
		},
	})
	require.NoError(t, err)
	require.NoError(t, app.RegisterPlugin(plugin, "storage"))
	require.NoError(t, app.Start(context.Background()))

	module := NewModule("http://media.test", &mockLogger{})
	module.SetPlugin("storage", plugin)
	require.NoError(t, module.Start(context.Background()))
	objects := NewJetStreamObjects(module.bucket)

	// With the embedded server gone, a stat failure is not a missing object.
	require.NoError(t, app.Stop(context.Background()))

	exists, err := objects.Exists(context.Background(), "u1/t1/t1_1.png")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.False(t, exists)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(jetstream.ErrObjectNotFound))
	assert.True(t, isNotFound(fmt.Errorf("stat: %w", jetstream.ErrObjectNotFound)))
	assert.False(t, isNotFound(errors.New("nats: connection closed")))
}

func TestModule_StoreUploadAndRemove(t *testing.T) {
	module := createTestModule(t)
	store := module.Store()
	require.NotNil(t, store)
	assert.True(t, module.Health(context.Background()).Healthy)

	ctx := context.Background()
	url, err := store.Upload(ctx, "owner-a", "todo-1", uploadOf("pic.webp", "image/webp", "webp-bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "http://media.test/storage/v1/object/public/todo-images/owner-a/todo-1/todo-1_")

	assert.ErrorIs(t, store.Remove(ctx, "owner-b", url), ErrForbiddenImage)
	require.NoError(t, store.Remove(ctx, "owner-a", url))
}
