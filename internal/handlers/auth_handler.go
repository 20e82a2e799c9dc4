package handlers

import (
	"crypto/subtle"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/errors"
	"expense-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// StateCookieName is the cookie holding the OAuth state between redirect and callback
	StateCookieName = "oauth_state"

	authCookiePath = "/"
)

// AuthHandlerConfig holds the browser-facing settings of the sign-in flow
type AuthHandlerConfig struct {
	ClientURL       string
	CookieSecure    bool
	SessionDuration time.Duration
	StateTTL        time.Duration
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService services.AuthServiceInterface
	cfg         AuthHandlerConfig
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService services.AuthServiceInterface, cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// GoogleLogin starts the sign-in flow
// @Summary Sign in with Google
// @Tags Authentication
// @Success 307 "Redirect to Google"
// @Router /auth/google [get]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	state := uuid.NewString()

	c.SetCookie(h.newCookie(StateCookieName, state, int(h.cfg.StateTTL.Seconds())))

	return c.Redirect(http.StatusTemporaryRedirect, h.authService.LoginURL(state))
}

// GoogleCallback completes the sign-in flow, sets the session cookie and
// sends the browser back to the client application
// @Summary Google sign-in callback
// @Tags Authentication
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 307 "Redirect to the dashboard"
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	traceID := getTraceID(c)

	// the state cookie is single-use
	c.SetCookie(h.newCookie(StateCookieName, "", -1))

	if providerErr := c.QueryParam("error"); providerErr != "" {
		slog.Warn("identity provider returned an error",
			"error", providerErr,
			"trace_id", traceID)
		return h.redirectFailure(c)
	}

	if !h.stateMatches(c) {
		slog.Warn("oauth state mismatch",
			"code", errors.AuthInvalidState,
			"ip_address", c.RealIP(),
			"trace_id", traceID)
		return h.redirectFailure(c)
	}

	session, user, err := h.authService.CompleteLogin(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		slog.Warn("sign-in failed",
			"code", errors.AuthLoginFailed,
			"error", err,
			"trace_id", traceID)
		return h.redirectFailure(c)
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(h.cfg.SessionDuration.Seconds())
	}
	c.SetCookie(h.newCookie(SessionCookieName, session.AccessToken, maxAge))

	slog.Info("user signed in",
		"user_id", user.ID,
		"trace_id", traceID)

	return c.Redirect(http.StatusTemporaryRedirect, h.clientRedirect("/dashboard", "auth", "success"))
}

// Me returns the signed-in user's profile
// @Summary Current user
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=dto.UserProfileResponse}
// @Failure 401 {object} errors.ErrorResponse "AUTH_002, AUTH_003, AUTH_004 or AUTH_006"
// @Failure 404 {object} errors.ErrorResponse "USER_001"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendDatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.NewUserProfileResponse(user),
	})
}

// Logout revokes the current session token and clears the session cookie
// @Summary Sign out
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{message=string}
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 or AUTH_004"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get(TokenContextKey).(string)
	if !ok || token == "" {
		return SendError(c, errors.AuthMissingToken)
	}

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		// the cookie is cleared either way
		slog.Warn("failed to revoke session token",
			"error", err,
			"trace_id", getTraceID(c))
	}

	c.SetCookie(h.newCookie(SessionCookieName, "", -1))

	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "Logout successful",
	})
}

func (h *AuthHandler) stateMatches(c echo.Context) bool {
	cookie, err := c.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	state := c.QueryParam("state")
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

func (h *AuthHandler) redirectFailure(c echo.Context) error {
	return c.Redirect(http.StatusTemporaryRedirect, h.clientRedirect("/login", "error", "auth_failed"))
}

func (h *AuthHandler) clientRedirect(path, key, value string) string {
	query := url.Values{}
	query.Set(key, value)
	return h.cfg.ClientURL + path + "?" + query.Encode()
}

// newCookie builds an httpOnly cookie; a negative maxAge deletes it
func (h *AuthHandler) newCookie(name, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cfg.CookieSecure {
		// the client is served from another origin in production
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     authCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: sameSite,
	}
}
