package images

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	headerContentType  = "Content-Type"
	headerCacheControl = "Cache-Control"
	headerOwner        = "Owner-ID"
	headerUploadedAt   = "Uploaded-At"
)

// JetStreamObjects stores objects in an fs-jetstream bucket.
type JetStreamObjects struct {
	bucket fsjetstream.FileStoragePort
}

// NewJetStreamObjects wraps a bucket.
func NewJetStreamObjects(bucket fsjetstream.FileStoragePort) *JetStreamObjects {
	return &JetStreamObjects{bucket: bucket}
}

// Put stores data with its metadata as object headers.
func (j *JetStreamObjects) Put(ctx context.Context, key string, data []byte, meta ObjectMeta) error {
	_, err := j.bucket.Put(ctx, key, data,
		fsjetstream.WithDescription(fmt.Sprintf("Todo image: %s", key)),
		fsjetstream.WithHeaders(map[string]string{
			headerContentType:  meta.ContentType,
			headerCacheControl: meta.CacheControl,
			headerOwner:        meta.Owner,
			headerUploadedAt:   time.Now().UTC().Format(time.RFC3339),
			"Content-Length":   strconv.Itoa(len(data)),
		}),
	)
	return err
}

// Get returns the object bytes and metadata.
func (j *JetStreamObjects) Get(_ context.Context, key string) ([]byte, ObjectMeta, error) {
	info, err := j.bucket.Stat(key)
	if err != nil {
		return nil, ObjectMeta{}, statError(key, err)
	}

	data, err := j.bucket.Get(key)
	if err != nil {
		return nil, ObjectMeta{}, fmt.Errorf("failed to read object: %w", err)
	}

	meta := ObjectMeta{
		ContentType:  info.Headers[headerContentType],
		CacheControl: info.Headers[headerCacheControl],
		Owner:        info.Headers[headerOwner],
		Size:         int64(info.Size),
		ModTime:      info.ModTime,
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	return data, meta, nil
}

// Exists reports whether key is stored.
func (j *JetStreamObjects) Exists(_ context.Context, key string) (bool, error) {
	_, err := j.bucket.Stat(key)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
}

// Delete removes key. A key that is not stored yields ErrObjectNotFound.
func (j *JetStreamObjects) Delete(_ context.Context, key string) error {
	if _, err := j.bucket.Stat(key); err != nil {
		return statError(key, err)
	}
	return j.bucket.Delete(key)
}

func statError(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Errorf("failed to stat object %s: %w", key, err)
}

// isNotFound matches the object store's not-found error, wrapped or only
// carried in the message.
func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrObjectNotFound) ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}
