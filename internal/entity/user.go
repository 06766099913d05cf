package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRole string

const (
	UserRoleFreelancer UserRole = "FREELANCER"
	UserRoleClient     UserRole = "CLIENT"
	UserRoleAdmin      UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleFreelancer, UserRoleClient, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName     string    `gorm:"type:varchar(255);not null;default:''"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         UserRole  `gorm:"type:varchar(32);default:'FREELANCER';not null"`

	Bio        *string
	Skills     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	HourlyRate *float64                    `gorm:"type:numeric(10,2)"`

	// ResetPasswordToken holds the digest of the outstanding reset token.
	ResetPasswordToken   *string `gorm:"type:text;uniqueIndex"`
	ResetPasswordExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetTokenActive reports whether the stored reset token may still be used at now.
func (u *User) ResetTokenActive(now time.Time) bool {
	if u.ResetPasswordToken == nil || u.ResetPasswordExpires == nil {
		return false
	}
	return now.Before(*u.ResetPasswordExpires)
}
