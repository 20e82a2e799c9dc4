package dto

import (
	"time"

	"expense-tracker/internal/models"
)

// Auth Response DTOs

// SessionResponse contains the issued session token
type SessionResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// UserProfileResponse represents the authenticated user's profile
type UserProfileResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Avatar      string     `json:"avatar,omitempty"`
	Currency    string     `json:"currency"`
	Language    string     `json:"language"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewUserProfileResponse converts a user model into its profile representation
func NewUserProfileResponse(user *models.User) UserProfileResponse {
	return UserProfileResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Name:        user.Name,
		Avatar:      user.Avatar,
		Currency:    user.Currency,
		Language:    user.Language,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
