package auth

import "errors"

var (
	// ErrInvalidToken is returned when a token fails signature, type or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("token has expired")
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an email that is taken.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for a wrong email or password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when the email does not parse.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned for passwords under 8 bytes.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned past bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// knownErrors are the sentinels that cross the request-reply boundary as
// plain messages and are turned back into values by the adapter.
var knownErrors = []error{
	ErrInvalidToken,
	ErrExpiredToken,
	ErrUserNotFound,
	ErrUserExists,
	ErrInvalidCredentials,
	ErrInvalidEmail,
	ErrWeakPassword,
	ErrPasswordTooLong,
}

// errorFromMessage maps a reply's error message back to its sentinel.
// Unknown messages become plain errors.
func errorFromMessage(msg string) error {
	for _, err := range knownErrors {
		if err.Error() == msg {
			return err
		}
	}
	return errors.New(msg)
}

// errorMessage is the reply form of err. Sentinels keep their text;
// anything else is reported generically.
func errorMessage(err error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
