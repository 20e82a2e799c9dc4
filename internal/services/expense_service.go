package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/models"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/stats"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrExpenseForbidden = errors.New("expense belongs to another user")
	ErrInvalidExpense   = errors.New("invalid expense")
)

// ExpenseService applies ownership rules on top of the expense store and
// builds the statistics report
type ExpenseService struct {
	expenseRepo repositories.ExpenseRepositoryInterface
	metrics     MetricsRecorderInterface
	logger      *slog.Logger
	now         func() time.Time
}

// NewExpenseService creates a new expense service
func NewExpenseService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) ExpenseServiceInterface {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateExpense records a new expense for ownerID. A missing date defaults to now.
func (s *ExpenseService) CreateExpense(ctx context.Context, ownerID uuid.UUID, input dto.CreateExpenseInput) (*models.Expense, error) {
	date := s.now().UTC()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	expense := &models.Expense{
		UserID:      ownerID,
		Amount:      roundAmount(input.Amount),
		Category:    input.Category,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		Tags:        models.StringList(input.Tags),
	}

	if err := expense.Validate(); err != nil {
		s.recordOperation("create", "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpense, err)
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		s.recordOperation("create", "failed")
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.recordOperation("create", "success")
	return expense, nil
}

// GetExpense returns one of ownerID's expenses. Records owned by someone else
// are reported as not found.
func (s *ExpenseService) GetExpense(ctx context.Context, ownerID, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if !expense.IsOwnedBy(ownerID) {
		return nil, ErrExpenseNotFound
	}

	return expense, nil
}

// ListExpenses returns one page of ownerID's expenses, newest first, and the total match count
func (s *ExpenseService) ListExpenses(ctx context.Context, ownerID uuid.UUID, filters models.ExpenseFilters) ([]models.Expense, int64, error) {
	expenses, total, err := s.expenseRepo.ListForOwner(ctx, ownerID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, total, nil
}

// UpdateExpense applies a partial update. The owner never changes.
func (s *ExpenseService) UpdateExpense(ctx context.Context, ownerID, id uuid.UUID, input dto.UpdateExpenseInput) (*models.Expense, error) {
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if !expense.IsOwnedBy(ownerID) {
		s.logger.Warn("expense update by non-owner rejected",
			"expense_id", id,
			"user_id", ownerID)
		return nil, ErrExpenseForbidden
	}

	if input.IsEmpty() {
		return expense, nil
	}

	applyExpenseUpdate(expense, input)

	if err := expense.Validate(); err != nil {
		s.recordOperation("update", "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpense, err)
	}

	if err := s.expenseRepo.Update(ctx, ownerID, expense); err != nil {
		s.recordOperation("update", "failed")
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.recordOperation("update", "success")
	return expense, nil
}

// DeleteExpense removes one of ownerID's expenses
func (s *ExpenseService) DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error {
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return err
	}

	if !expense.IsOwnedBy(ownerID) {
		s.logger.Warn("expense delete by non-owner rejected",
			"expense_id", id,
			"user_id", ownerID)
		return ErrExpenseForbidden
	}

	if err := s.expenseRepo.Delete(ctx, ownerID, id); err != nil {
		s.recordOperation("delete", "failed")
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.recordOperation("delete", "success")
	return nil
}

// GetStats builds ownerID's statistics report as of the service clock
func (s *ExpenseService) GetStats(ctx context.Context, ownerID uuid.UUID) (stats.Report, error) {
	return s.GetStatsAsOf(ctx, ownerID, s.now())
}

// GetStatsAsOf builds ownerID's statistics report as of asOf. A store failure
// is returned as an error rather than an empty report.
func (s *ExpenseService) GetStatsAsOf(ctx context.Context, ownerID uuid.UUID, asOf time.Time) (stats.Report, error) {
	start := time.Now()

	expenses, err := s.expenseRepo.ListAllForOwner(ctx, ownerID)
	if err != nil {
		s.recordOperation("stats", "failed")
		return stats.Report{}, fmt.Errorf("failed to load expenses for statistics: %w", err)
	}

	report := stats.Compute(expenses, asOf)

	if report.Skipped > 0 {
		s.logger.Warn("expense records without a usable date left out of statistics",
			"user_id", ownerID,
			"skipped", report.Skipped,
			"total_records", len(expenses))
		s.metrics.AddCounter(MetricStatsSkipped, float64(report.Skipped), nil)
	}

	s.metrics.RecordProcessingTime(MetricStatsComputation, time.Since(start))
	s.metrics.RecordGauge(MetricStatsReportEntries, float64(len(report.ByCategory)), map[string]string{"section": "by_category"})
	s.metrics.RecordGauge(MetricStatsReportEntries, float64(len(report.MonthlyTrend)), map[string]string{"section": "monthly_trend"})
	s.recordOperation("stats", "success")

	return report, nil
}

func (s *ExpenseService) loadExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

func (s *ExpenseService) recordOperation(operation, status string) {
	s.metrics.IncrementCounter(MetricExpenseOperation, map[string]string{
		"operation": operation,
		"status":    status,
	})
}

func applyExpenseUpdate(expense *models.Expense, input dto.UpdateExpenseInput) {
	if input.Amount != nil {
		expense.Amount = roundAmount(*input.Amount)
	}
	if input.Category != nil {
		expense.Category = *input.Category
	}
	if input.Description != nil {
		expense.Description = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil {
		expense.Date = input.Date.UTC()
	}
	if input.Tags != nil {
		expense.Tags = models.StringList(input.Tags)
	}
}

func roundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
