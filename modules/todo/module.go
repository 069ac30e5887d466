// Package todo is the owner-scoped mutation façade over todo rows and their
// images.
package todo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-tracker/events"
	"github.com/example/todo-tracker/modules/cache"
	"github.com/example/todo-tracker/modules/images"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the row store. DatabaseURL wins over DBPath when set.
type Config struct {
	DBPath      string
	DatabaseURL string
}

// Module provides the todo façade as a mono module.
type Module struct {
	cfg         Config
	repo        Repository
	service     *Service
	imageModule *images.Module
	cachePlugin *cache.PluginModule
	cache       cache.CacheService
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
)

// NewModule creates the todo module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "todo"
}

// SetImageModule wires the image store. The images module must be
// registered before this one.
func (m *Module) SetImageModule(im *images.Module) {
	m.imageModule = im
}

// SetPlugin receives the optional cache plugin.
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
	m.logger.Info("Received cache plugin", "alias", alias)
}

// SetEventBus receives the event bus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoCreatedV1.ToBase(),
		events.TodoUpdatedV1.ToBase(),
		events.TodoCompletedV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
		events.TodoImageAttachedV1.ToBase(),
		events.TodoImageRemovedV1.ToBase(),
	}
}

// Start opens the row store and builds the service.
func (m *Module) Start(ctx context.Context) error {
	if m.imageModule == nil || m.imageModule.Store() == nil {
		return fmt.Errorf("images module not started - register it before todo")
	}

	repo, err := m.openRepository(ctx)
	if err != nil {
		return err
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return err
	}
	m.repo = repo

	if m.cachePlugin != nil {
		m.cache = m.cachePlugin.Port()
	}
	opts := []Option{}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache))
	}
	if m.eventBus != nil {
		opts = append(opts, WithEventBus(m.eventBus))
	} else {
		m.logger.Warn("Event bus not set, events will not be published")
	}
	m.service = NewService(repo, m.imageModule.Store(), m.logger, opts...)

	m.logger.Info("Todo module started", "backend", m.backend(), "cache", m.cache != nil)
	return nil
}

func (m *Module) openRepository(ctx context.Context) (Repository, error) {
	if m.cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, m.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return NewPostgresRepository(pool), nil
	}

	db, err := gorm.Open(sqlite.Open(m.cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormRepository(db), nil
}

func (m *Module) backend() string {
	if m.cfg.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite:" + m.cfg.DBPath
}

// Stop closes the row store.
func (m *Module) Stop(_ context.Context) error {
	if m.repo != nil {
		if err := m.repo.Close(); err != nil {
			m.logger.Warn("Error closing todo store", "error", err)
		}
	}
	m.logger.Info("Todo module stopped")
	return nil
}

// Health pings the row store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.repo == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}
	if err := m.repo.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"backend": m.backend(),
			"cache":   m.cache != nil,
		},
	}
}

// Service returns the façade. It is nil before Start.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterServices exposes the façade over request-reply.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-todos", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-todos service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-todo", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-todo service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "update-todo", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update-todo service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-todo", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete-todo service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-todo", json.Unmarshal, json.Marshal, m.handleToggle,
	); err != nil {
		return fmt.Errorf("failed to register toggle-todo service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "remove-todo-image", json.Unmarshal, json.Marshal, m.handleRemoveImage,
	); err != nil {
		return fmt.Errorf("failed to register remove-todo-image service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "todo-stats", json.Unmarshal, json.Marshal, m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register todo-stats service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "list-todos, create-todo, update-todo, delete-todo, toggle-todo, remove-todo-image, todo-stats")
	return nil
}
