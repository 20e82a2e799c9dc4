package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrUnauthorized is returned when user context is invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// Context keys set by the auth middleware
const (
	UserIDContextKey    = "user_id"
	UserEmailContextKey = "user_email"
	TokenContextKey     = "token"
	TokenJTIContextKey  = "token_jti"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "token"

// Helper function to extract user ID from context
// Returns ErrUnauthorized if user ID is missing or invalid
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userIDValue := c.Get(UserIDContextKey)
	if userIDValue == nil {
		return uuid.UUID{}, ErrUnauthorized
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.UUID{}, ErrUnauthorized
	}

	return userID, nil
}

// parseIDParam parses the :id path parameter
func parseIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}
