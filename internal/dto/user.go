package dto

import (
	"time"

	"github.com/collabhub/backend/internal/models"
)

// UserDTO is the identity shape returned to callers. The password hash
// and MFA secret never appear here; every path that returns a user
// record goes through ToUserDTO.
type UserDTO struct {
	ID            uint64             `json:"id"`
	Email         string             `json:"email"`
	Username      string             `json:"username"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	IsActive      bool               `json:"is_active"`
	EmailVerified bool               `json:"email_verified"`
	MFAEnabled    bool               `json:"mfa_enabled"`
	Preferences   models.Preferences `json:"preferences"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ToUserDTO converts a user model to its redacted API shape
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		MFAEnabled:    user.MFAEnabled,
		Preferences:   user.Preferences,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}

// AuthResponseDTO is returned by register, login, and refresh.
type AuthResponseDTO struct {
	User         *UserDTO `json:"user,omitempty"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}
