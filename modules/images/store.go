package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/todo-tracker/domain/todo"
)

// CacheControl is stored with every object and sent on public reads.
const CacheControl = "max-age=3600"

// ObjectMeta is the metadata kept next to an object.
type ObjectMeta struct {
	ContentType  string
	CacheControl string
	Owner        string
	Size         int64
	ModTime      time.Time
}

// ObjectStore is the blob storage port.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, meta ObjectMeta) error
	Get(ctx context.Context, key string) ([]byte, ObjectMeta, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Store manages todo images: validated uploads under the owner prefix,
// public URLs and owner-checked removal.
type Store struct {
	objects ObjectStore
	baseURL string
	now     func() time.Time
}

// NewStore creates a Store. baseURL is the origin of the media server.
func NewStore(objects ObjectStore, baseURL string) *Store {
	return &Store{
		objects: objects,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// PublicURL returns the public read URL of key.
func (s *Store) PublicURL(key string) string {
	return s.baseURL + "/storage/v1/object/public/" + BucketName + "/" + key
}

// Upload validates and stores an image for a todo and returns its public URL.
// An existing object under the same key is never overwritten.
func (s *Store) Upload(ctx context.Context, owner, todoID string, upload domain.Upload) (string, error) {
	if err := ValidateUpload(upload.ContentType, upload.Size()); err != nil {
		return "", err
	}

	key := ObjectPath(owner, todoID, upload.Filename, upload.ContentType, s.now())

	exists, err := s.objects.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check object: %w", err)
	}
	if exists {
		return "", ErrObjectExists
	}

	meta := ObjectMeta{
		ContentType:  normalizeContentType(upload.ContentType),
		CacheControl: CacheControl,
		Owner:        owner,
	}
	if err := s.objects.Put(ctx, key, upload.Data, meta); err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return s.PublicURL(key), nil
}

// Remove deletes the object behind an image URL. The object must sit under
// the owner's prefix. A missing object counts as removed.
func (s *Store) Remove(ctx context.Context, owner, imageURL string) error {
	key, err := KeyFromURL(imageURL)
	if err != nil {
		return err
	}
	if !OwnedBy(key, owner) {
		return ErrForbiddenImage
	}

	if err := s.objects.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Open returns the bytes and metadata stored under key.
func (s *Store) Open(ctx context.Context, key string) ([]byte, ObjectMeta, error) {
	if key == "" || strings.Contains(key, "..") {
		return nil, ObjectMeta{}, ErrObjectNotFound
	}
	return s.objects.Get(ctx, key)
}
