package dto

import (
	"fmt"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense Request DTOs

// CreateExpenseRequest contains the fields accepted when recording an expense
type CreateExpenseRequest struct {
	Amount      *float64 `json:"amount" validate:"required,expense_amount"`
	Category    string   `json:"category" validate:"required,expense_category"`
	Description string   `json:"description" validate:"required,min=1,max=500"`
	Date        string   `json:"date" validate:"omitempty,iso8601"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateExpenseRequest carries a partial update; nil fields are left unchanged
type UpdateExpenseRequest struct {
	Amount      *float64 `json:"amount" validate:"omitempty,expense_amount"`
	Category    *string  `json:"category" validate:"omitempty,expense_category"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=500"`
	Date        *string  `json:"date" validate:"omitempty,iso8601"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// ListExpensesQuery contains filtering and paging options for the expense list
type ListExpensesQuery struct {
	Category  string `query:"category" validate:"omitempty,category_filter"`
	StartDate string `query:"startDate" validate:"omitempty,iso8601"`
	EndDate   string `query:"endDate" validate:"omitempty,iso8601"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Page      int    `query:"page" validate:"omitempty,min=1,max=100000"`
}

// Service inputs

// CreateExpenseInput is a validated create request. A nil Date means "now".
type CreateExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        *time.Time
	Tags        []string
}

// UpdateExpenseInput is a validated partial update. Nil fields are not touched; nil Tags keeps the current tags.
type UpdateExpenseInput struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
	Tags        []string
}

// ToInput converts the request into service input
func (r *CreateExpenseRequest) ToInput() (CreateExpenseInput, error) {
	input := CreateExpenseInput{
		Category:    r.Category,
		Description: r.Description,
		Tags:        r.Tags,
	}

	if r.Amount != nil {
		input.Amount = decimal.NewFromFloat(*r.Amount)
	}

	if r.Date != "" {
		date, err := validation.ParseISO8601(r.Date)
		if err != nil {
			return CreateExpenseInput{}, err
		}
		input.Date = &date
	}

	return input, nil
}

// ToInput converts the request into service input
func (r *UpdateExpenseRequest) ToInput() (UpdateExpenseInput, error) {
	input := UpdateExpenseInput{
		Category:    r.Category,
		Description: r.Description,
		Tags:        r.Tags,
	}

	if r.Amount != nil {
		amount := decimal.NewFromFloat(*r.Amount)
		input.Amount = &amount
	}

	if r.Date != nil {
		date, err := validation.ParseISO8601(*r.Date)
		if err != nil {
			return UpdateExpenseInput{}, err
		}
		input.Date = &date
	}

	return input, nil
}

// IsEmpty reports whether the update would change nothing
func (in UpdateExpenseInput) IsEmpty() bool {
	return in.Amount == nil && in.Category == nil && in.Description == nil && in.Date == nil && in.Tags == nil
}

// ToFilters converts the query into store filters, applying paging defaults
func (q *ListExpensesQuery) ToFilters(defaultLimit int) (models.ExpenseFilters, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	page := q.Page
	if page == 0 {
		page = 1
	}

	filters := models.ExpenseFilters{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if q.Category != models.CategoryAll {
		filters.Category = q.Category
	}

	if q.StartDate != "" {
		start, err := validation.ParseISO8601(q.StartDate)
		if err != nil {
			return models.ExpenseFilters{}, fmt.Errorf("startDate: %w", err)
		}
		filters.StartDate = &start
	}

	if q.EndDate != "" {
		end, err := validation.ParseISO8601(q.EndDate)
		if err != nil {
			return models.ExpenseFilters{}, fmt.Errorf("endDate: %w", err)
		}
		filters.EndDate = &end
	}

	return filters, nil
}

// Expense Response DTOs

// ExpenseResponse is the API representation of an expense
type ExpenseResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// NewPaginationInfo derives the page count from the total
func NewPaginationInfo(total int64, page, limit int) PaginationInfo {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationInfo{Total: total, Page: page, Pages: pages, Limit: limit}
}

// NewExpenseResponse converts an expense model into its API representation
func NewExpenseResponse(expense *models.Expense) ExpenseResponse {
	tags := []string(expense.Tags)
	if tags == nil {
		tags = []string{}
	}

	return ExpenseResponse{
		ID:          expense.ID,
		UserID:      expense.UserID,
		Amount:      expense.Amount.InexactFloat64(),
		Category:    expense.Category,
		Description: expense.Description,
		Date:        expense.Date.UTC(),
		Tags:        tags,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
}

// NewExpenseListResponse converts a page of expenses
func NewExpenseListResponse(expenses []models.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, NewExpenseResponse(&expenses[i]))
	}
	return responses
}
