// Package api is the HTTP surface of the todo tracker.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/todo-tracker/modules/activity"
	"github.com/example/todo-tracker/modules/auth"
	"github.com/example/todo-tracker/modules/cache"
	"github.com/example/todo-tracker/modules/images"
	"github.com/example/todo-tracker/modules/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config configures the HTTP server.
type Config struct {
	Addr string
	// AuthRateLimit is the number of auth requests allowed per client IP
	// within AuthRateWindow.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// DefaultConfig returns the defaults used by the server binary.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
	}
}

// Module is the fiber HTTP API module.
type Module struct {
	cfg            Config
	app            *fiber.App
	authAdapter    auth.AuthPort
	todoModule     *todo.Module
	activityModule *activity.Module
	cachePlugin    *cache.PluginModule
	logger         types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
)

// NewModule creates the API module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// SetPlugin receives the optional cache plugin, whose Redis storage backs
// the rate limiter.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	cachePlugin, ok := plugin.(*cache.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for cache", "alias", alias, "expected", "*cache.PluginModule")
		return
	}
	m.cachePlugin = cachePlugin
}

// SetTodoModule sets the todo façade dependency. Image uploads go to the
// service directly rather than over the service container.
func (m *Module) SetTodoModule(tm *todo.Module) {
	m.todoModule = tm
}

// SetActivityModule sets the optional activity feed.
func (m *Module) SetActivityModule(am *activity.Module) {
	m.activityModule = am
}

// Start builds the fiber app and serves in the background.
func (m *Module) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.todoModule == nil || m.todoModule.Service() == nil {
		return fmt.Errorf("todo module not set")
	}

	var feed ActivityReader
	if m.activityModule != nil {
		feed = m.activityModule.Feed()
	}
	handlers := NewHandlers(m.authAdapter, m.todoModule.Service(), feed, m.logger)
	var storage fiber.Storage
	if m.cachePlugin != nil {
		storage = m.cachePlugin.LimiterStorage()
	}
	m.app = newApp(handlers, m.authAdapter, m.cfg, storage)

	go func() {
		if err := m.app.Listen(m.cfg.Addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", m.cfg.Addr, "redis_limiter", storage != nil)
	return nil
}

// Stop shuts the HTTP server down.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.ShutdownWithContext(ctx)
}

// Health reports whether the server was started.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.cfg.Addr,
		},
	}
}

// newApp wires middleware and routes. storage may be nil, in which case the
// limiter keeps its counters in memory.
func newApp(h *Handlers, authPort auth.AuthPort, cfg Config, storage fiber.Storage) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             int(images.MaxUploadSize) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "module": "api"})
	})

	authRoutes := app.Group("/auth")
	authRoutes.Get("/login", h.LoginInfo)
	authRoutes.Use(limiter.New(limiter.Config{
		Max:        cfg.AuthRateLimit,
		Expiration: cfg.AuthRateWindow,
		Storage:    storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "Too many requests, slow down"})
		},
	}))
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)
	authRoutes.Post("/refresh", h.Refresh)

	v1 := app.Group("/api/v1", RequireAuth(authPort))
	v1.Get("/me", h.Me)
	v1.Get("/activity", h.Activity)
	v1.Get("/todos", h.ListTodos)
	v1.Post("/todos", h.CreateTodo)
	v1.Get("/todos/stats", h.Stats)
	v1.Patch("/todos/:id", h.UpdateTodo)
	v1.Delete("/todos/:id", h.DeleteTodo)
	v1.Post("/todos/:id/toggle", h.ToggleTodo)
	v1.Post("/todos/:id/image", h.AttachImage)
	v1.Delete("/todos/:id/image", h.RemoveImage)

	return app
}
