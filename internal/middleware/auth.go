package middleware

import (
	stderrors "errors"

	"expense-tracker/internal/errors"
	"expense-tracker/internal/handlers"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequireAuth creates a middleware that requires a valid session token
// and checks that the token has not been blacklisted (e.g., after logout).
// The token is read from the session cookie first, then from a Bearer Authorization header.
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, code, ok := extractToken(c, tokenService)
			if !ok {
				return handlers.SendError(c, code)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				if stderrors.Is(err, services.ErrExpiredToken) {
					return handlers.SendError(c, errors.AuthExpiredToken)
				}
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			blacklistedToken, err := blacklistedTokenRepo.GetByJTI(c.Request().Context(), claims.ID)
			if err == nil && blacklistedToken != nil {
				return handlers.SendError(c, errors.AuthTokenRevoked)
			}
			if err != nil && !stderrors.Is(err, repositories.ErrTokenNotFound) {
				return handlers.SendDatabaseError(c, err)
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid user ID in token"))
			}

			c.Set(handlers.UserIDContextKey, userID)
			c.Set(handlers.UserEmailContextKey, claims.Email)
			c.Set(handlers.TokenJTIContextKey, claims.ID)
			c.Set(handlers.TokenContextKey, token)

			return next(c)
		}
	}
}

func extractToken(c echo.Context, tokenService services.TokenServiceInterface) (string, errors.ErrorCode, bool) {
	if cookie, err := c.Cookie(handlers.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "", true
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", errors.AuthMissingToken, false
	}

	token, err := tokenService.ExtractTokenFromHeader(authHeader)
	if err != nil {
		return "", errors.AuthInvalidTokenFormat, false
	}

	return token, "", true
}
