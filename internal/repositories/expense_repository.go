package repositories

import (
	"context"
	"errors"
	"fmt"

	"expense-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
)

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepositoryInterface {
	return &expenseRepository{db: db}
}

// Create inserts a new expense
func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense == nil {
		return errors.New("expense cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense regardless of owner; callers enforce ownership
func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return &expense, nil
}

// ListForOwner returns one page of the owner's expenses, newest first, and the total match count
func (r *expenseRepository) ListForOwner(ctx context.Context, ownerID uuid.UUID, filters models.ExpenseFilters) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", ownerID)

	if filters.HasCategory() {
		query = query.Where("category = ?", filters.Category)
	}

	if filters.StartDate != nil {
		query = query.Where("date >= ?", filters.StartDate.UTC())
	}

	if filters.EndDate != nil {
		query = query.Where("date <= ?", filters.EndDate.UTC())
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	err := query.
		Offset(filters.Offset).
		Limit(limit).
		Order("date DESC").
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, total, nil
}

// ListAllForOwner returns every expense the owner has
func (r *expenseRepository) ListAllForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense

	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("date DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for owner: %w", err)
	}

	return expenses, nil
}

// Update writes the mutable fields of an expense the owner holds.
// The owner column is never written.
func (r *expenseRepository) Update(ctx context.Context, ownerID uuid.UUID, expense *models.Expense) error {
	if expense == nil {
		return errors.New("expense cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Model(expense).
		Where("user_id = ?", ownerID).
		Select("amount", "category", "description", "date", "tags", "updated_at").
		Updates(expense)
	if result.Error != nil {
		return fmt.Errorf("failed to update expense: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// Delete removes an expense the owner holds
func (r *expenseRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Expense{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete expense: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}
