package images

import (
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest accepted image in bytes.
const MaxUploadSize int64 = 5 * 1024 * 1024

// allowedTypes maps each accepted content type to its canonical extension.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AllowedContentTypes lists the accepted upload content types.
func AllowedContentTypes() []string {
	return []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
}

// ValidateUpload checks content type and size before anything is stored.
func ValidateUpload(contentType string, size int64) error {
	if _, ok := allowedTypes[normalizeContentType(contentType)]; !ok {
		return ErrInvalidFileType
	}
	if size > MaxUploadSize {
		return ErrFileTooLarge
	}
	return nil
}

// normalizeContentType drops parameters and case, "image/PNG; q=1" -> "image/png".
func normalizeContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// extension picks the object extension: the filename's own when it is a short
// alphanumeric suffix, otherwise the one implied by the content type.
func extension(filename, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext != "" && len(ext) <= 5 && isAlnum(ext) {
		return ext
	}
	if e, ok := allowedTypes[normalizeContentType(contentType)]; ok {
		return e
	}
	return "bin"
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
