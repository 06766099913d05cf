package dto

import (
	"time"

	"catalance/internal/entity"
)

type RegisterRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=128"`
	FullName   string   `json:"fullName" validate:"omitempty,max=255"`
	Role       string   `json:"role" validate:"omitempty,oneof=FREELANCER CLIENT ADMIN"`
	Bio        *string  `json:"bio" validate:"omitempty,max=2000"`
	Skills     []string `json:"skills" validate:"omitempty,max=50,dive,required,max=64"`
	HourlyRate *float64 `json:"hourlyRate" validate:"omitempty,gte=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

type VerifyResetTokenQuery struct {
	Token string `query:"token" validate:"required"`
}

type ListUsersQuery struct {
	Role string `query:"role" validate:"omitempty,oneof=FREELANCER CLIENT ADMIN"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Role       string    `json:"role"`
	Bio        *string   `json:"bio"`
	Skills     []string  `json:"skills"`
	HourlyRate *float64  `json:"hourlyRate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyResetTokenResponse struct {
	Valid bool   `json:"valid"`
	Email string `json:"email,omitempty"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	skills := []string(user.Skills)
	if skills == nil {
		skills = []string{}
	}
	return UserResponse{
		ID:         user.ID.String(),
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       string(user.Role),
		Bio:        user.Bio,
		Skills:     skills,
		HourlyRate: user.HourlyRate,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, UserResponseFromEntity(&users[i]))
	}
	return responses
}
