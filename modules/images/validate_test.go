package images

import (
	"errors"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{"jpeg", "image/jpeg", 1024, nil},
		{"png", "image/png", 1024, nil},
		{"webp", "image/webp", 1024, nil},
		{"gif", "image/gif", 1024, nil},
		{"content type with params", "image/PNG; charset=binary", 10, nil},
		{"exactly 5 MiB", "image/png", MaxUploadSize, nil},
		{"one byte over", "image/png", MaxUploadSize + 1, ErrFileTooLarge},
		{"svg rejected", "image/svg+xml", 10, ErrInvalidFileType},
		{"pdf rejected", "application/pdf", 10, ErrInvalidFileType},
		{"empty type rejected", "", 10, ErrInvalidFileType},
		{"type checked before size", "text/plain", MaxUploadSize * 2, ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.contentType, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUpload(%q, %d) = %v, want %v", tt.contentType, tt.size, err, tt.wantErr)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"cat.PNG", "image/png", "png"},
		{"photo.jpeg", "image/jpeg", "jpeg"},
		{"noext", "image/webp", "webp"},
		{"weird.ext-with-dash", "image/gif", "gif"},
		{"archive.tar.gz", "image/jpeg", "gz"},
		{"", "image/jpeg", "jpg"},
		{"", "application/octet-stream", "bin"},
	}

	for _, tt := range tests {
		if got := extension(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("extension(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}
