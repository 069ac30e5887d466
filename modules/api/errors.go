package api

import (
	"errors"

	domain "github.com/example/todo-tracker/domain/todo"
	"github.com/example/todo-tracker/modules/auth"
	"github.com/example/todo-tracker/modules/images"
	"github.com/gofiber/fiber/v2"
)

// todoStatus maps façade errors to HTTP status codes.
func todoStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, images.ErrInvalidFileType),
		errors.Is(err, images.ErrFileTooLarge),
		errors.Is(err, images.ErrInvalidImageURL):
		return fiber.StatusBadRequest
	case errors.Is(err, images.ErrForbiddenImage):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrTodoNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// todoError writes err as a failed result. A missing identity redirects to
// the login route instead.
func (h *Handlers) todoError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return redirectToLogin(c)
	}
	status := todoStatus(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error("Todo request failed", "path", c.Path(), "owner", owner(c), "error", err)
	}
	return c.Status(status).JSON(domain.Fail[any](err))
}

// authStatus maps auth errors to HTTP status codes.
func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return fiber.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, auth.ErrUserExists):
		return fiber.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handlers) authError(c *fiber.Ctx, err error) error {
	status := authStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		h.logger.Error("Auth request failed", "path", c.Path(), "error", err)
		msg = "An internal error occurred"
	}
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// errorHandler renders fiber errors in the failure envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(ErrorResponse{Error: msg})
}
