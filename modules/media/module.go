// Package media is the public read side of the image bucket: stored objects
// and rendition requests served over gin.
package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/todo-tracker/modules/images"
	"github.com/gin-gonic/gin"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

const (
	objectRoute = "/storage/v1/object/public/" + images.BucketName + "/*key"
	renderRoute = "/storage/v1/render/image/public/" + images.BucketName + "/*key"
)

// Module runs the media HTTP server.
type Module struct {
	addr        string
	server      *http.Server
	engine      *gin.Engine
	imageModule *images.Module
	logger      types.Logger
}

var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the media module listening on addr.
func NewModule(addr string, logger types.Logger) *Module {
	return &Module{
		addr:   addr,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "media"
}

// SetImageModule sets the image store dependency.
func (m *Module) SetImageModule(im *images.Module) {
	m.imageModule = im
}

// Start builds the router and serves in the background.
func (m *Module) Start(_ context.Context) error {
	if m.imageModule == nil || m.imageModule.Store() == nil {
		return fmt.Errorf("images module not set")
	}

	gin.SetMode(gin.ReleaseMode)
	m.engine = newRouter(NewHandlers(m.imageModule.Store()), m.loggingMiddleware())

	m.server = &http.Server{
		Addr:              m.addr,
		Handler:           m.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		m.logger.Info("Media server starting", "addr", m.addr)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Media server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (m *Module) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	m.logger.Info("Shutting down media server")
	return m.server.Shutdown(ctx)
}

// Health reports whether the server was started.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.server != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

func newRouter(h *Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware...)

	engine.GET("/health", h.HealthCheck)
	engine.GET(objectRoute, h.GetObject)
	engine.HEAD(objectRoute, h.GetObject)
	engine.GET(renderRoute, h.RenderImage)
	return engine
}

func (m *Module) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
