package images

import (
	"net/url"
	"strconv"
)

// RenditionOptions describe a derived image. Zero values are omitted.
type RenditionOptions struct {
	Width   int    `schema:"width" validate:"omitempty,min=1,max=5000"`
	Height  int    `schema:"height" validate:"omitempty,min=1,max=5000"`
	Quality int    `schema:"quality" validate:"omitempty,min=20,max=100"`
	Format  string `schema:"format" validate:"omitempty,oneof=webp jpeg png"`
}

// IsZero reports whether no option is set.
func (o RenditionOptions) IsZero() bool {
	return o == RenditionOptions{}
}

// OptimizedURL appends width, height, quality and format parameters to an
// image URL. Existing parameters are kept. A string that is not an absolute
// URL is returned as is.
func OptimizedURL(raw string, opts RenditionOptions) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	if opts.IsZero() {
		return raw
	}

	q := u.Query()
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}
	if opts.Format != "" {
		q.Set("format", opts.Format)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
