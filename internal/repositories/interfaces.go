package repositories

import (
	"context"

	"expense-tracker/internal/models"

	"github.com/google/uuid"
)

// ExpenseRepositoryInterface defines the owner-scoped contract for expense storage
type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID, filters models.ExpenseFilters) ([]models.Expense, int64, error)
	ListAllForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Expense, error)
	Update(ctx context.Context, ownerID uuid.UUID, expense *models.Expense) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// BlacklistedTokenRepositoryInterface defines the contract for signed-out token storage
type BlacklistedTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.BlacklistedToken) error
	GetByJTI(ctx context.Context, jti string) (*models.BlacklistedToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
