package images

import (
	"errors"
	"testing"
	"time"
)

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1760000000123)
	got := ObjectPath("user-1", "todo-9", "shot.png", "image/png", now)
	want := "user-1/todo-9/todo-9_1760000000123.png"
	if got != want {
		t.Errorf("ObjectPath() = %q, want %q", got, want)
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "public url",
			raw:  "http://localhost:8081/storage/v1/object/public/todo-images/u1/t1/t1_1.png",
			want: "u1/t1/t1_1.png",
		},
		{
			name: "rendition url with query",
			raw:  "https://cdn.example.com/storage/v1/render/image/public/todo-images/u1/t1/t1_1.png?width=200",
			want: "u1/t1/t1_1.png",
		},
		{
			name:    "no bucket segment",
			raw:     "https://example.com/images/u1/t1.png",
			wantErr: ErrInvalidImageURL,
		},
		{
			name:    "bucket segment with empty key",
			raw:     "https://example.com/storage/todo-images/",
			wantErr: ErrInvalidImageURL,
		},
		{
			name:    "unparsable",
			raw:     "http://[::1",
			wantErr: ErrInvalidImageURL,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrInvalidImageURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromURL(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("KeyFromURL() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("KeyFromURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOwnedBy(t *testing.T) {
	tests := []struct {
		key   string
		owner string
		want  bool
	}{
		{"u1/t1/t1_1.png", "u1", true},
		{"u10/t1/t1_1.png", "u1", false},
		{"u2/t1/t1_1.png", "u1", false},
		{"u1/../u2/t1.png", "u1", false},
		{"u1/t1/t1_1.png", "", false},
	}
	for _, tt := range tests {
		if got := OwnedBy(tt.key, tt.owner); got != tt.want {
			t.Errorf("OwnedBy(%q, %q) = %v, want %v", tt.key, tt.owner, got, tt.want)
		}
	}
}
