package todo

import "errors"

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/auth/login"

// Result is the uniform outcome of a façade call as seen by remote callers.
// Redirect is set instead of a user-facing failure when the caller is not
// authenticated.
type Result[T any] struct {
	Success  bool   `json:"success"`
	Data     T      `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// OK wraps a successful value.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail converts err into a failed result.
func Fail[T any](err error) Result[T] {
	r := Result[T]{Error: err.Error()}
	if errors.Is(err, ErrUnauthenticated) {
		r.Redirect = LoginPath
	}
	return r
}

// Err turns a failed result back into an error. Redirects come back as
// ErrUnauthenticated.
func (r Result[T]) Err() error {
	switch {
	case r.Redirect != "":
		return ErrUnauthenticated
	case r.Success:
		return nil
	case r.Error == "":
		return errors.New("request failed")
	default:
		return errors.New(r.Error)
	}
}
