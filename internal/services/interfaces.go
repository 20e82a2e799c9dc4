package services

import (
	"context"
	"time"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/models"
	"expense-tracker/internal/stats"

	"github.com/google/uuid"
)

// ExpenseServiceInterface defines owner-scoped expense operations
type ExpenseServiceInterface interface {
	CreateExpense(ctx context.Context, ownerID uuid.UUID, input dto.CreateExpenseInput) (*models.Expense, error)
	GetExpense(ctx context.Context, ownerID, id uuid.UUID) (*models.Expense, error)
	ListExpenses(ctx context.Context, ownerID uuid.UUID, filters models.ExpenseFilters) ([]models.Expense, int64, error)
	UpdateExpense(ctx context.Context, ownerID, id uuid.UUID, input dto.UpdateExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error
	GetStats(ctx context.Context, ownerID uuid.UUID) (stats.Report, error)
	GetStatsAsOf(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (stats.Report, error)
}

// AuthServiceInterface defines sign-in and session operations
type AuthServiceInterface interface {
	LoginURL(state string) string
	CompleteLogin(ctx context.Context, code string) (*dto.SessionResponse, *models.User, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Logout(ctx context.Context, token string) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// IdentityProviderInterface is an OAuth 2.0 identity provider
type IdentityProviderInterface interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.IdentityProfile, error)
}

// TokenServiceInterface defines JWT session token operations
type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	AddCounter(name string, value float64, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}
