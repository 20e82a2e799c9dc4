package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/models"
	"expense-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ImportServiceTestSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	expenseService *service_mocks.MockExpenseServiceInterface
	metrics        *service_mocks.MockMetricsRecorderInterface
	importer       *ImportService
	ownerID        uuid.UUID
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}

func (s *ImportServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.expenseService = service_mocks.NewMockExpenseServiceInterface(s.ctrl)
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	s.importer = NewImportService(s.expenseService, s.metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ownerID = uuid.New()
}

func (s *ImportServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ImportServiceTestSuite) expectStatus(status string, times int) {
	s.metrics.EXPECT().
		IncrementCounter(MetricExpensesImported, map[string]string{"status": status}).
		Times(times)
}

func (s *ImportServiceTestSuite) TestImport_CreatesValidRecordsAndSkipsBadDates() {
	payload := `[
		{"amount": 12.5, "category": "Food", "description": "Lunch", "date": "2024-06-01T12:30:00.000Z", "tags": ["work"]},
		{"amount": "40", "category": "travel", "description": "Train", "date": "01/06/2024"},
		{"amount": 3, "category": "other", "description": "Gum"},
		{"amount": 99.99, "category": "shopping", "description": "Shoes", "date": "2024-05-20"}
	]`

	var created []dto.CreateExpenseInput
	s.expenseService.EXPECT().
		CreateExpense(gomock.Any(), s.ownerID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, input dto.CreateExpenseInput) (*models.Expense, error) {
			created = append(created, input)
			return &models.Expense{ID: uuid.New()}, nil
		}).
		Times(2)
	s.expectStatus("imported", 2)
	s.expectStatus("skipped", 2)

	result, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(payload))

	s.Require().NoError(err)
	s.Equal(&ImportResult{Imported: 2, Skipped: 2}, result)

	s.Require().Len(created, 2)
	s.Equal(models.CategoryFood, created[0].Category)
	s.True(created[0].Amount.Equal(decimal.RequireFromString("12.5")))
	s.Equal(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), *created[0].Date)
	s.Equal([]string{"work"}, created[0].Tags)
	s.Equal(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), *created[1].Date)
}

func (s *ImportServiceTestSuite) TestImport_CountsRejectedRecords() {
	payload := `[{"amount": -5, "category": "food", "description": "Refund", "date": "2024-06-01"}]`

	s.expenseService.EXPECT().
		CreateExpense(gomock.Any(), s.ownerID, gomock.Any()).
		Return(nil, fmt.Errorf("%w: %w", ErrInvalidExpense, models.ErrNegativeAmount))
	s.expectStatus("failed", 1)

	result, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(payload))

	s.Require().NoError(err)
	s.Equal(&ImportResult{Failed: 1}, result)
}

func (s *ImportServiceTestSuite) TestImport_StopsOnStoreFailure() {
	payload := `[
		{"amount": 1, "category": "food", "description": "a", "date": "2024-06-01"},
		{"amount": 2, "category": "food", "description": "b", "date": "2024-06-02"}
	]`

	s.expenseService.EXPECT().
		CreateExpense(gomock.Any(), s.ownerID, gomock.Any()).
		Return(nil, errors.New("failed to create expense: connection reset"))

	result, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(payload))

	s.Require().Error(err)
	s.Contains(err.Error(), "record 0")
	s.Equal(0, result.Imported)
}

func (s *ImportServiceTestSuite) TestImport_RejectsNonArrayDocument() {
	_, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(`{"expenses": []}`))
	s.ErrorIs(err, ErrMalformedImport)

	_, err = s.importer.Import(context.Background(), s.ownerID, strings.NewReader(``))
	s.ErrorIs(err, ErrMalformedImport)
}

func (s *ImportServiceTestSuite) TestImport_RejectsMalformedRecord() {
	_, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(`[{"amount": "abc"}]`))
	s.ErrorIs(err, ErrMalformedImport)
}

func (s *ImportServiceTestSuite) TestImport_EmptyArray() {
	result, err := s.importer.Import(context.Background(), s.ownerID, strings.NewReader(`[]`))

	s.Require().NoError(err)
	s.Equal(&ImportResult{}, result)
}

func (s *ImportServiceTestSuite) TestImport_HonoursCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.importer.Import(ctx, s.ownerID, strings.NewReader(`[{"amount": 1}]`))
	s.ErrorIs(err, context.Canceled)
}
