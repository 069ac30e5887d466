package images

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BucketName is the object store bucket that holds todo images.
const BucketName = "todo-images"

// ObjectPath builds the key {owner}/{todoID}/{todoID}_{unixMillis}.{ext}.
func ObjectPath(owner, todoID, filename, contentType string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s_%d.%s", owner, todoID, todoID, now.UnixMilli(), extension(filename, contentType))
}

// KeyFromURL extracts the object key from a public or rendition URL: every
// path segment after the bucket segment.
func KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "", ErrInvalidImageURL
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if seg != BucketName {
			continue
		}
		key := strings.Join(segments[i+1:], "/")
		if key == "" {
			return "", ErrInvalidImageURL
		}
		return key, nil
	}
	return "", ErrInvalidImageURL
}

// OwnedBy reports whether key sits under the owner's prefix.
func OwnedBy(key, owner string) bool {
	return owner != "" && strings.HasPrefix(key, owner+"/") && !strings.Contains(key, "..")
}
