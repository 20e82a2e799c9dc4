package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-tracker/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type blacklistedTokenRepository struct {
	db *gorm.DB
}

// NewBlacklistedTokenRepository creates a new blacklisted token repository
func NewBlacklistedTokenRepository(db *gorm.DB) BlacklistedTokenRepositoryInterface {
	return &blacklistedTokenRepository{db: db}
}

// Create adds a token to the blacklist; blacklisting the same token twice is not an error
func (r *blacklistedTokenRepository) Create(ctx context.Context, token *models.BlacklistedToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// GetByJTI retrieves a blacklisted token by its JTI
func (r *blacklistedTokenRepository) GetByJTI(ctx context.Context, jti string) (*models.BlacklistedToken, error) {
	var token models.BlacklistedToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

// DeleteExpired removes tokens whose natural expiry has passed
func (r *blacklistedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", time.Now().UTC()).Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
