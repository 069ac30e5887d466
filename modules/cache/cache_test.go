package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/storage/redis/v3"
)

const testRedisAddr = "localhost:6379"

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// checkRedisAvailable skips the test when Redis is not reachable.
// gofiber/storage/redis panics on connection failure, so we check first.
func checkRedisAvailable(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", testRedisAddr, 2*time.Second)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	conn.Close()
}

func setupTestCacheService(t *testing.T, prefix string) CacheService {
	t.Helper()
	checkRedisAvailable(t)

	store := redis.New(redis.Config{
		Host: "localhost",
		Port: 6379,
	})
	t.Cleanup(func() { store.Close() })

	return NewCacheService(store, prefix, time.Minute, &mockLogger{})
}

func TestCacheService_SetGetDelete(t *testing.T) {
	svc := setupTestCacheService(t, "test:todo-tracker:")
	ctx := context.Background()

	type entry struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	want := []entry{{ID: "1", Title: "first"}, {ID: "2", Title: "second"}}
	if err := svc.Set(ctx, "list:owner-1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got []entry
	found, err := svc.Get(ctx, "list:owner-1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || len(got) != 2 || got[1].Title != "second" {
		t.Errorf("Get() = %v, %+v", found, got)
	}

	if err := svc.Delete(ctx, "list:owner-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	found, err = svc.Get(ctx, "list:owner-1", &got)
	if err != nil {
		t.Fatalf("Get() after Delete error = %v", err)
	}
	if found {
		t.Error("expected miss after Delete()")
	}
}

func TestPluginModule_Lifecycle(t *testing.T) {
	checkRedisAvailable(t)

	m := NewPluginModule(testRedisAddr, "test:plugin:", time.Minute, &mockLogger{})
	if m.Name() != "cache" {
		t.Errorf("Name() = %q", m.Name())
	}
	if m.Port() != nil || m.LimiterStorage() != nil {
		t.Error("port and limiter storage should be nil before Start")
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.Health(ctx).Healthy {
		t.Errorf("Health() = %+v", m.Health(ctx))
	}
	if m.LimiterStorage() == nil {
		t.Error("LimiterStorage() nil after Start")
	}
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6380", "localhost", 6380},
		{":6379", "127.0.0.1", 6379},
		{"redis", "127.0.0.1", 6379},
		{"redis:abc", "redis", 6379},
	}
	for _, tt := range tests {
		host, port := parseRedisAddr(tt.addr)
		if host != tt.wantHost || port != tt.wantPort {
			t.Errorf("parseRedisAddr(%q) = %s:%d, want %s:%d", tt.addr, host, port, tt.wantHost, tt.wantPort)
		}
	}
}
