package api

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/modules/activity"
	"github.com/example/todo-tracker/modules/auth"
	"github.com/example/todo-tracker/modules/images"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"
)

// TodoFacade is the owner-scoped todo service.
type TodoFacade interface {
	List(ctx context.Context, owner string) ([]domain.Todo, error)
	Stats(ctx context.Context, owner string) (domain.Stats, error)
	Create(ctx context.Context, owner string, in domain.CreateInput) (*domain.Todo, error)
	Update(ctx context.Context, owner, id string, patch domain.Patch) error
	Delete(ctx context.Context, owner, id string) error
	ToggleCompletion(ctx context.Context, owner, id string, completed bool) error
	AttachImage(ctx context.Context, owner, id string, upload domain.Upload) (string, error)
	RemoveImage(ctx context.Context, owner, id string) error
}

// ActivityReader reads an owner's recent activity.
type ActivityReader interface {
	Recent(owner string, limit int) []activity.Entry
}

// Handlers contains the HTTP handlers.
type Handlers struct {
	auth     auth.AuthPort
	todos    TodoFacade
	activity ActivityReader
	validate *validator.Validate
	decoder  *schema.Decoder
	logger   types.Logger
}

// NewHandlers creates the handlers. activity may be nil.
func NewHandlers(authPort auth.AuthPort, todos TodoFacade, activity ActivityReader, logger types.Logger) *Handlers {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handlers{
		auth:     authPort,
		todos:    todos,
		activity: activity,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		decoder:  decoder,
		logger:   logger,
	}
}

// LoginInfo describes how to log in (GET /auth/login). Unauthenticated
// requests are redirected here.
func (h *Handlers) LoginInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": false,
		"error":   "authentication required",
		"login":   "POST /auth/login {email, password}",
		"signup":  "POST /auth/register {email, password, display_name}",
	})
}

// Register creates an account (POST /auth/register).
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	u, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return h.authError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.OK(UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}))
}

// Login issues tokens (POST /auth/login).
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	tokens, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(domain.OK(tokens))
}

// Refresh exchanges a refresh token (POST /auth/refresh).
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(domain.OK(tokens))
}

// Me returns the caller's account (GET /api/v1/me).
func (h *Handlers) Me(c *fiber.Ctx) error {
	u, err := h.auth.GetUser(c.UserContext(), owner(c))
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(domain.OK(UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}))
}

// ListTodos returns the caller's todos, newest first, filtered by the
// search and filter query parameters (GET /api/v1/todos).
func (h *Handlers) ListTodos(c *fiber.Ctx) error {
	var q ListQuery
	if err := h.parseQuery(c, &q); err != nil {
		return err
	}
	todos, err := h.todos.List(c.UserContext(), owner(c))
	if err != nil {
		return h.todoError(c, err)
	}
	filter := domain.Filter{Search: q.Search, Kind: domain.ParseFilterKind(q.Filter)}
	return c.JSON(domain.OK(domain.Apply(todos, filter)))
}

// Stats counts the caller's todos (GET /api/v1/todos/stats).
func (h *Handlers) Stats(c *fiber.Ctx) error {
	stats, err := h.todos.Stats(c.UserContext(), owner(c))
	if err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK(stats))
}

// CreateTodo adds a todo (POST /api/v1/todos).
func (h *Handlers) CreateTodo(c *fiber.Ctx) error {
	var req CreateTodoRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	t, err := h.todos.Create(c.UserContext(), owner(c), domain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return h.todoError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.OK(t))
}

// UpdateTodo patches a todo (PATCH /api/v1/todos/:id).
func (h *Handlers) UpdateTodo(c *fiber.Ctx) error {
	var req UpdateTodoRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	patch := domain.Patch{Title: req.Title, Description: req.Description, Completed: req.Completed}
	if err := h.todos.Update(c.UserContext(), owner(c), c.Params("id"), patch); err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK[any](nil))
}

// ToggleTodo sets completion (POST /api/v1/todos/:id/toggle).
func (h *Handlers) ToggleTodo(c *fiber.Ctx) error {
	var req ToggleRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	if err := h.todos.ToggleCompletion(c.UserContext(), owner(c), c.Params("id"), *req.Completed); err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK[any](nil))
}

// DeleteTodo removes a todo and its image (DELETE /api/v1/todos/:id).
func (h *Handlers) DeleteTodo(c *fiber.Ctx) error {
	if err := h.todos.Delete(c.UserContext(), owner(c), c.Params("id")); err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK[any](nil))
}

// AttachImage uploads the multipart field "file" as the todo's image
// (POST /api/v1/todos/:id/image).
func (h *Handlers) AttachImage(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "No file provided"})
	}
	if header.Size > images.MaxUploadSize {
		return h.todoError(c, images.ErrFileTooLarge)
	}

	f, err := header.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Failed to read file"})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, images.MaxUploadSize+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Failed to read file"})
	}

	imageURL, err := h.todos.AttachImage(c.UserContext(), owner(c), c.Params("id"), domain.Upload{
		Filename:    header.Filename,
		ContentType: uploadContentType(header.Header.Get(fiber.HeaderContentType), data),
		Data:        data,
	})
	if err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK(ImageResponse{ImageURL: imageURL}))
}

// RemoveImage deletes the todo's image (DELETE /api/v1/todos/:id/image).
func (h *Handlers) RemoveImage(c *fiber.Ctx) error {
	if err := h.todos.RemoveImage(c.UserContext(), owner(c), c.Params("id")); err != nil {
		return h.todoError(c, err)
	}
	return c.JSON(domain.OK[any](nil))
}

// Activity returns recent changes (GET /api/v1/activity).
func (h *Handlers) Activity(c *fiber.Ctx) error {
	var q ActivityQuery
	if err := h.parseQuery(c, &q); err != nil {
		return err
	}
	if h.activity == nil {
		return c.JSON(domain.OK([]activity.Entry{}))
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return c.JSON(domain.OK(h.activity.Recent(owner(c), q.Limit)))
}

// parseBody decodes and validates a JSON body. Failures are returned as
// 400 fiber errors.
func (h *Handlers) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func (h *Handlers) parseQuery(c *fiber.Ctx, dst any) error {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query string")
	}
	if err := h.decoder.Decode(dst, values); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := h.validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return nil
}

// uploadContentType keeps the declared part type unless the client sent none
// or a generic one, in which case it is sniffed from the bytes.
func uploadContentType(declared string, data []byte) string {
	if declared != "" && declared != fiber.MIMEOctetStream {
		return declared
	}
	ct, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return ct
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field() + " is invalid (" + fe.Tag() + ")"
	}
	return "Invalid request"
}
