package service

import "catalance/internal/entity"

const ResetRequestedMessage = "If an account exists with that email, a password reset link has been sent."

const PasswordResetMessage = "Password has been reset successfully"

type RegisterInput struct {
	Email      string
	Password   string
	FullName   string
	Role       entity.UserRole
	Bio        *string
	Skills     []string
	HourlyRate *float64
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
}

// AuthResult carries a sanitized user and a bearer token for it.
type AuthResult struct {
	User        entity.User
	AccessToken string
	ExpiresIn   int64
}

type MessageResult struct {
	Message string
}

type ResetTokenStatus struct {
	Valid bool
	Email string
}
