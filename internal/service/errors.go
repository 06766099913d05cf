package service

import "fmt"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a failure that is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrEmailRequired      = newError(KindValidation, "Email is required")
	ErrPasswordRequired   = newError(KindValidation, "Password is required")
	ErrPasswordTooShort   = newError(KindValidation, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	ErrResetTokenRequired = newError(KindValidation, "Reset token is required")
	ErrInvalidResetToken  = newError(KindValidation, "Invalid or expired reset token")
	ErrResetTokenExpired  = newError(KindValidation, "Reset token has expired")
	ErrInvalidRole        = newError(KindValidation, "Invalid role")
	ErrInvalidCredentials = newError(KindUnauthorized, "Invalid email or password")
	ErrEmailTaken         = newError(KindConflict, "A user with that email already exists")
	ErrUserNotFound       = newError(KindNotFound, "User not found")
	ErrResetEmailFailed   = newError(KindInternal, "Failed to send reset email. Please try again later.")
)
