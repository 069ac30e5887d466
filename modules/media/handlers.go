package media

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/todo-tracker/modules/images"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// ObjectReader is the read side of the image store.
type ObjectReader interface {
	Open(ctx context.Context, key string) ([]byte, images.ObjectMeta, error)
}

// Handlers serve stored images.
type Handlers struct {
	objects  ObjectReader
	decoder  *schema.Decoder
	validate *validator.Validate
}

// NewHandlers creates the media handlers.
func NewHandlers(objects ObjectReader) *Handlers {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handlers{
		objects:  objects,
		decoder:  decoder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// GetObject streams a stored image (GET /storage/v1/object/public/todo-images/*key).
func (h *Handlers) GetObject(c *gin.Context) {
	data, meta, ok := h.open(c)
	if !ok {
		return
	}
	h.write(c, data, meta)
}

// RenderImage validates rendition parameters and serves the original bytes
// (GET /storage/v1/render/image/public/todo-images/*key). No transformation
// is applied; X-Rendition-Applied says so.
func (h *Handlers) RenderImage(c *gin.Context) {
	var opts images.RenditionOptions
	if err := h.decoder.Decode(&opts, c.Request.URL.Query()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rendition parameters", "details": err.Error()})
		return
	}
	if err := h.validate.Struct(opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rendition parameters", "details": err.Error()})
		return
	}

	data, meta, ok := h.open(c)
	if !ok {
		return
	}
	c.Header("X-Rendition-Applied", "false")
	h.write(c, data, meta)
}

// HealthCheck reports liveness (GET /health).
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "module": "media"})
}

func (h *Handlers) open(c *gin.Context) ([]byte, images.ObjectMeta, bool) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, meta, err := h.objects.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, images.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read object", "details": err.Error()})
		}
		return nil, images.ObjectMeta{}, false
	}
	return data, meta, true
}

func (h *Handlers) write(c *gin.Context, data []byte, meta images.ObjectMeta) {
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	cacheControl := meta.CacheControl
	if cacheControl == "" {
		cacheControl = images.CacheControl
	}
	c.Header("Cache-Control", cacheControl)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}
