// Package images stores todo images in the fs-jetstream object store and
// builds their public and rendition URLs.
package images

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

// Module owns the image bucket.
type Module struct {
	storage *fsjetstream.PluginModule
	bucket  fsjetstream.FileStoragePort
	store   *Store
	baseURL string
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the images module. baseURL is the public origin of the
// media server.
func NewModule(baseURL string, logger types.Logger) *Module {
	return &Module{
		baseURL: baseURL,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "images"
}

// SetPlugin receives the storage plugin from the framework.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "storage" {
		return
	}
	storage, ok := plugin.(*fsjetstream.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for storage",
			"alias", alias,
			"expected", "*fsjetstream.PluginModule")
		return
	}
	m.storage = storage
	m.logger.Info("Received storage plugin", "alias", alias)
}

// Start opens the image bucket.
func (m *Module) Start(_ context.Context) error {
	if m.storage == nil {
		return fmt.Errorf("required plugin 'storage' not registered")
	}

	m.bucket = m.storage.Bucket(BucketName)
	if m.bucket == nil {
		return fmt.Errorf("bucket '%s' not found in storage plugin", BucketName)
	}

	m.store = NewStore(NewJetStreamObjects(m.bucket), m.baseURL)

	m.logger.Info("Images module started", "bucket", BucketName, "baseURL", m.baseURL)
	return nil
}

// Stop is a no-op; the plugin owns the bucket connection.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Images module stopped")
	return nil
}

// Health reports whether the bucket is open.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "bucket not opened",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"bucket":   BucketName,
			"base_url": m.baseURL,
		},
	}
}

// Store returns the image store. It is nil before Start.
func (m *Module) Store() *Store {
	return m.store
}
