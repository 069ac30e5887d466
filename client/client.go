// Package client talks to the todo tracker HTTP API. Client implements the
// view's Facade.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/domain/user"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/singleflight"
)

// ErrNoSession is returned by calls that need a token before one is set.
var ErrNoSession = errors.New("not logged in")

// Session holds the tokens of a logged-in user.
type Session struct {
	AccessToken  string `json:"access_token" toml:"access_token"`
	RefreshToken string `json:"refresh_token" toml:"refresh_token"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	refreshes singleflight.Group

	// notifyMu orders session changes with their callbacks.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	session   Session
	onRefresh func(Session)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses a copy of hc with its redirect policy overridden.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithSession starts the client logged in.
func WithSession(s Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// OnRefresh is called with the new tokens whenever the client refreshes
// them, so callers can persist them.
func OnRefresh(fn func(Session)) Option {
	return func(c *Client) {
		c.onRefresh = fn
	}
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	// Unauthenticated API calls answer with a redirect to the login route.
	// It has to reach us instead of being followed.
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// Session returns the current tokens.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s Session) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Lock()
	c.session = s
	fn := c.onRefresh
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*UserInfo, error) {
	var out UserInfo
	body := map[string]string{"email": email, "password": password, "display_name": displayName}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login stores the returned tokens on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*user.TokenPair, error) {
	var out user.TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	c.setSession(Session{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken})
	return &out, nil
}

// Refresh exchanges the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refreshFrom(ctx, c.Session().RefreshToken)
}

// refreshFrom exchanges stale for a new pair. Callers holding the same stale
// token share one exchange, and a token that was already replaced is not
// sent again.
func (c *Client) refreshFrom(ctx context.Context, stale string) error {
	if stale == "" {
		return ErrNoSession
	}
	_, err, _ := c.refreshes.Do(stale, func() (any, error) {
		if c.Session().RefreshToken != stale {
			return nil, nil
		}
		var out user.TokenPair
		body := map[string]string{"refresh_token": stale}
		if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", body, &out, false); err != nil {
			return nil, err
		}
		c.setSession(Session{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken})
		return nil, nil
	})
	return err
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns all of the caller's todos, newest first.
func (c *Client) List(ctx context.Context) ([]domain.Todo, error) {
	return c.Search(ctx, domain.Filter{})
}

// Search lets the server apply f.
func (c *Client) Search(ctx context.Context, f domain.Filter) ([]domain.Todo, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Kind != "" && f.Kind != domain.FilterAll {
		q.Set("filter", string(f.Kind))
	}
	path := "/api/v1/todos"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.Todo
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the caller's counters.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/todos/stats", nil, &out, true)
	return out, err
}

// Activity returns up to limit recent changes.
func (c *Client) Activity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	var out []ActivityEntry
	path := fmt.Sprintf("/api/v1/activity?limit=%d", limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a todo.
func (c *Client) Create(ctx context.Context, in domain.CreateInput) (*domain.Todo, error) {
	var out domain.Todo
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/todos", in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update patches a todo.
func (c *Client) Update(ctx context.Context, id string, patch domain.Patch) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/v1/todos/"+url.PathEscape(id), patch, nil, true)
}

// Toggle sets the completion flag.
func (c *Client) Toggle(ctx context.Context, id string, completed bool) error {
	body := map[string]bool{"completed": completed}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/todos/"+url.PathEscape(id)+"/toggle", body, nil, true)
}

// Delete removes a todo and its image.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/todos/"+url.PathEscape(id), nil, nil, true)
}

// AttachImage uploads upload as the todo's image and returns its URL.
func (c *Client) AttachImage(ctx context.Context, id string, upload domain.Upload) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	h.Set("Content-Type", upload.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	var out struct {
		ImageURL string `json:"image_url"`
	}
	path := "/api/v1/todos/" + url.PathEscape(id) + "/image"
	if err := c.do(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType(), &out, true); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

// RemoveImage deletes the todo's image.
func (c *Client) RemoveImage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/todos/"+url.PathEscape(id)+"/image", nil, nil, true)
}

// ReadUpload loads a local file for AttachImage. The content type is
// detected from the file's bytes.
func ReadUpload(path string) (domain.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ct, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return domain.Upload{
		Filename:    filepath.Base(path),
		ContentType: ct,
		Data:        data,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = b
	}
	return c.do(ctx, method, path, body, "application/json", out, authed)
}

// do sends one request. An authed request answered with the login redirect
// is retried once after a token refresh.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out any, authed bool) error {
	sent := c.Session()
	err := c.send(ctx, method, path, body, contentType, out, authed, sent.AccessToken)
	if !authed || !errors.Is(err, domain.ErrUnauthenticated) || sent.RefreshToken == "" {
		return err
	}
	// Another call may have refreshed while this one was on the wire.
	if c.Session().AccessToken == sent.AccessToken {
		if rerr := c.refreshFrom(ctx, sent.RefreshToken); rerr != nil {
			return domain.ErrUnauthenticated
		}
	}
	return c.send(ctx, method, path, body, contentType, out, authed, c.Session().AccessToken)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string, out any, authed bool, token string) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		if token == "" {
			return domain.ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSeeOther || resp.StatusCode == http.StatusFound {
		return domain.ErrUnauthenticated
	}

	var env struct {
		Success  bool            `json:"success"`
		Data     json.RawMessage `json:"data"`
		Error    string          `json:"error"`
		Redirect string          `json:"redirect"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: unexpected response (status %d)", method, path, resp.StatusCode)
	}
	if env.Redirect != "" {
		return domain.ErrUnauthenticated
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
