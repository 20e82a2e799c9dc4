package handlers

import (
	stderrors "errors"
	"net/http"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/errors"
	"expense-tracker/internal/models"
	"expense-tracker/internal/services"

	"github.com/labstack/echo/v4"
)

// ExpenseHandler handles the owner-scoped expense endpoints
type ExpenseHandler struct {
	expenseService services.ExpenseServiceInterface
	defaultLimit   int
}

// NewExpenseHandler creates a new expense handler. defaultLimit is the page
// size used when a list request does not name one.
func NewExpenseHandler(expenseService services.ExpenseServiceInterface, defaultLimit int) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		defaultLimit:   defaultLimit,
	}
}

// ListExpenses returns a page of the user's expenses, newest first
// @Summary List expenses
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Param category query string false "Category or 'all'"
// @Param startDate query string false "ISO-8601 lower bound (inclusive)"
// @Param endDate query string false "ISO-8601 upper bound (inclusive)"
// @Param limit query int false "Page size (1-100)" default(50)
// @Param page query int false "Page number" default(1)
// @Success 200 {object} SuccessResponse{data=[]dto.ExpenseResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Router /expenses [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var query dto.ListExpensesQuery
	if err := c.Bind(&query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}

	if err := c.Validate(query); err != nil {
		return err
	}

	filters, err := query.ToFilters(h.defaultLimit)
	if err != nil {
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	}

	expenses, total, err := h.expenseService.ListExpenses(c.Request().Context(), userID, filters)
	if err != nil {
		return SendDatabaseError(c, err)
	}

	page := query.Page
	if page == 0 {
		page = 1
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.NewExpenseListResponse(expenses),
		Meta: map[string]interface{}{
			"pagination": dto.NewPaginationInfo(total, page, filters.Limit),
		},
	})
}

// GetStats returns the dashboard statistics for the user
// @Summary Expense statistics
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=dto.StatsResponse}
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_002"
// @Router /expenses/stats [get]
func (h *ExpenseHandler) GetStats(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	report, err := h.expenseService.GetStats(c.Request().Context(), userID)
	if err != nil {
		return SendDatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.NewStatsResponse(report),
	})
}

// GetExpense returns one of the user's expenses
// @Summary Get expense
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} SuccessResponse{data=dto.ExpenseResponse}
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001"
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	expenseID, err := parseIDParam(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidID)
	}

	expense, err := h.expenseService.GetExpense(c.Request().Context(), userID, expenseID)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.NewExpenseResponse(expense),
	})
}

// CreateExpense records a new expense
// @Summary Create expense
// @Tags Expenses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateExpenseRequest true "Expense"
// @Success 201 {object} SuccessResponse{data=dto.ExpenseResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001, EXPENSE_003 or EXPENSE_004"
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	input, err := req.ToInput()
	if err != nil {
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	}

	expense, err := h.expenseService.CreateExpense(c.Request().Context(), userID, input)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewExpenseResponse(expense),
		Message: "Expense created successfully",
	})
}

// UpdateExpense applies a partial update to one of the user's expenses
// @Summary Update expense
// @Tags Expenses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param request body dto.UpdateExpenseRequest true "Fields to change"
// @Success 200 {object} SuccessResponse{data=dto.ExpenseResponse}
// @Failure 403 {object} errors.ErrorResponse "EXPENSE_002"
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001"
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	expenseID, err := parseIDParam(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidID)
	}

	var req dto.UpdateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	input, err := req.ToInput()
	if err != nil {
		return SendError(c, errors.ValidationInvalidDate, errors.WithDetails(err.Error()))
	}

	expense, err := h.expenseService.UpdateExpense(c.Request().Context(), userID, expenseID, input)
	if err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data:    dto.NewExpenseResponse(expense),
		Message: "Expense updated successfully",
	})
}

// DeleteExpense removes one of the user's expenses
// @Summary Delete expense
// @Tags Expenses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} SuccessResponse{message=string}
// @Failure 403 {object} errors.ErrorResponse "EXPENSE_002"
// @Failure 404 {object} errors.ErrorResponse "EXPENSE_001"
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	expenseID, err := parseIDParam(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidID)
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), userID, expenseID); err != nil {
		return h.sendExpenseError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Message: "Expense deleted successfully",
	})
}

// sendExpenseError maps expense service errors onto API error codes
func (h *ExpenseHandler) sendExpenseError(c echo.Context, err error) error {
	switch {
	case stderrors.Is(err, services.ErrExpenseNotFound):
		return SendError(c, errors.ExpenseNotFound)
	case stderrors.Is(err, services.ErrExpenseForbidden):
		return SendError(c, errors.ExpenseNotOwned)
	case stderrors.Is(err, models.ErrNegativeAmount):
		return SendError(c, errors.ExpenseInvalidAmount)
	case stderrors.Is(err, models.ErrInvalidCategory):
		return SendError(c, errors.ExpenseInvalidCategory)
	case stderrors.Is(err, services.ErrInvalidExpense):
		return SendError(c, errors.ValidationGeneral, errors.WithDetails(err.Error()))
	default:
		return SendDatabaseError(c, err)
	}
}
