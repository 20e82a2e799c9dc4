package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrMalformedImport = errors.New("import file must be a JSON array of expenses")

// ImportRecord is one expense in a JSON export
type ImportRecord struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Tags        []string        `json:"tags"`
}

// ImportResult counts what happened to each record of an import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ImportService loads exported expenses for one owner through the expense service
type ImportService struct {
	expenseService ExpenseServiceInterface
	metrics        MetricsRecorderInterface
	logger         *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(expenseService ExpenseServiceInterface, metrics MetricsRecorderInterface, logger *slog.Logger) *ImportService {
	return &ImportService{
		expenseService: expenseService,
		metrics:        metrics,
		logger:         logger,
	}
}

// Import streams a JSON array of records from r and creates an expense for
// each one. Records whose date is missing or not ISO-8601 are skipped;
// records the expense service rejects are counted as failed. Only a
// malformed document, a store failure or ctx cancellation stops the import.
func (s *ImportService) Import(ctx context.Context, ownerID uuid.UUID, r io.Reader) (*ImportResult, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, ErrMalformedImport
	}

	result := &ImportResult{}
	for index := 0; dec.More(); index++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var record ImportRecord
		if err := dec.Decode(&record); err != nil {
			return result, fmt.Errorf("%w: record %d: %w", ErrMalformedImport, index, err)
		}

		date, err := validation.ParseISO8601(record.Date)
		if err != nil {
			result.Skipped++
			s.record("skipped")
			s.logger.Warn("skipping expense with unusable date",
				"index", index,
				"date", record.Date)
			continue
		}

		input := dto.CreateExpenseInput{
			Amount:      record.Amount,
			Category:    strings.ToLower(strings.TrimSpace(record.Category)),
			Description: record.Description,
			Date:        &date,
			Tags:        record.Tags,
		}

		if _, err := s.expenseService.CreateExpense(ctx, ownerID, input); err != nil {
			if !errors.Is(err, ErrInvalidExpense) {
				return result, fmt.Errorf("record %d: %w", index, err)
			}
			result.Failed++
			s.record("failed")
			s.logger.Warn("rejected imported expense",
				"index", index,
				"error", err)
			continue
		}

		result.Imported++
		s.record("imported")
	}

	if _, err := dec.Token(); err != nil {
		return result, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}

	s.logger.Info("expense import finished",
		"user_id", ownerID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

func (s *ImportService) record(status string) {
	s.metrics.IncrementCounter(MetricExpensesImported, map[string]string{"status": status})
}
