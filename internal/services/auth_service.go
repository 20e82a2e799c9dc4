package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/models"
	"expense-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrLoginFailed  = errors.New("sign-in failed")
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles sign-in through the identity provider and session lifecycle
type AuthService struct {
	userRepo             repositories.UserRepositoryInterface
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	identityProvider     IdentityProviderInterface
	tokenService         TokenServiceInterface
	metrics              MetricsRecorderInterface
	logger               *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface,
	identityProvider IdentityProviderInterface,
	tokenService TokenServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:             userRepo,
		blacklistedTokenRepo: blacklistedTokenRepo,
		identityProvider:     identityProvider,
		tokenService:         tokenService,
		metrics:              metrics,
		logger:               logger,
	}
}

// LoginURL returns the identity provider URL the browser is sent to
func (s *AuthService) LoginURL(state string) string {
	return s.identityProvider.AuthCodeURL(state)
}

// CompleteLogin exchanges the authorization code, finds or creates the user and issues a session token
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*dto.SessionResponse, *models.User, error) {
	profile, err := s.identityProvider.Exchange(ctx, code)
	if err != nil {
		s.recordAuthEvent("login_failed")
		s.logger.Warn("identity provider exchange failed", "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		s.recordAuthEvent("login_failed")
		return nil, nil, err
	}

	token, expiresAt, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		s.recordAuthEvent("login_failed")
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	s.recordAuthEvent("login_success")
	s.logger.Info("user signed in",
		"user_id", user.ID,
		"email", user.Email)

	return &dto.SessionResponse{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, user, nil
}

// CurrentUser returns the signed-in user's record
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Logout blacklists the token's JTI until the token would have expired
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenService.ValidateAccessToken(token)
	if err != nil {
		return fmt.Errorf("cannot revoke token: %w", err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fmt.Errorf("%w: malformed user id", ErrInvalidToken)
	}

	if claims.ID == "" || claims.ExpiresAt == nil {
		return fmt.Errorf("%w: token has no id or expiry", ErrInvalidToken)
	}

	blacklisted := &models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}

	if err := s.blacklistedTokenRepo.Create(ctx, blacklisted); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.recordAuthEvent("logout")
	s.logger.Info("user signed out", "user_id", userID)

	return nil
}

// CleanupExpiredTokens removes blacklist entries for tokens that have expired anyway
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	removed, err := s.blacklistedTokenRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	s.metrics.AddCounter(MetricTokensCleaned, float64(removed), nil)
	return removed, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, profile *models.IdentityProfile) (*models.User, error) {
	user, err := s.userRepo.GetByGoogleID(ctx, profile.Subject)
	switch {
	case err == nil:
		user.ApplyProfile(profile)
		user.UpdateLastLogin()
		if err := s.userRepo.Update(ctx, user); err != nil {
			// Non-critical: the stored profile is refreshed on the next sign-in
			s.logger.Warn("failed to refresh user profile",
				"error", err,
				"user_id", user.ID)
		}
		return user, nil

	case errors.Is(err, repositories.ErrUserNotFound):
		return s.createUser(ctx, profile)

	default:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
}

func (s *AuthService) createUser(ctx context.Context, profile *models.IdentityProfile) (*models.User, error) {
	user := &models.User{GoogleID: profile.Subject}
	user.ApplyProfile(profile)
	user.UpdateLastLogin()

	err := s.userRepo.Create(ctx, user)
	if errors.Is(err, repositories.ErrUserAlreadyExists) {
		// a concurrent first sign-in created the row
		return s.userRepo.GetByGoogleID(ctx, profile.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recordAuthEvent("user_created")
	s.logger.Info("user created on first sign-in",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

func (s *AuthService) recordAuthEvent(eventType string) {
	s.metrics.IncrementCounter(MetricAuthenticationEvent, map[string]string{"event_type": eventType})
}
