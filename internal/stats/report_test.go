package stats

import (
	"encoding/json"
	"testing"
	"time"

	"expense-tracker/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
	owner uuid.UUID
	asOf  time.Time
}

func TestReportTestSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (s *ReportTestSuite) SetupTest() {
	s.owner = uuid.New()
	s.asOf = time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
}

func (s *ReportTestSuite) expense(amount float64, category string, date time.Time) models.Expense {
	return models.Expense{
		ID:          uuid.New(),
		UserID:      s.owner,
		Amount:      decimal.NewFromFloat(amount),
		Category:    category,
		Description: gofakeit.Sentence(3),
		Date:        date,
	}
}

func (s *ReportTestSuite) randomExpenses(n int) []models.Expense {
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	expenses := make([]models.Expense, 0, n)
	for i := 0; i < n; i++ {
		expenses = append(expenses, s.expense(
			gofakeit.Price(0, 500),
			gofakeit.RandomString(models.AllCategories()),
			gofakeit.DateRange(start, end),
		))
	}
	return expenses
}

func reversed(expenses []models.Expense) []models.Expense {
	out := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		out[len(expenses)-1-i] = e
	}
	return out
}

func rotated(expenses []models.Expense, k int) []models.Expense {
	out := make([]models.Expense, 0, len(expenses))
	out = append(out, expenses[k:]...)
	return append(out, expenses[:k]...)
}

func (s *ReportTestSuite) requireDecimal(expected string, actual decimal.Decimal) {
	s.Require().True(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (s *ReportTestSuite) TestCompute_Scenario_CurrentMonthAndTrend() {
	expenses := []models.Expense{
		s.expense(100, models.CategoryFood, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		s.expense(50, models.CategoryFood, time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)),
		s.expense(30, models.CategoryTravel, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)),
	}

	report := Compute(expenses, s.asOf)

	s.requireDecimal("150", report.CurrentMonth.Total)
	s.Equal(2, report.CurrentMonth.Count)

	s.Require().Len(report.ByCategory, 1)
	s.Equal(models.CategoryFood, report.ByCategory[0].Category)
	s.requireDecimal("150", report.ByCategory[0].Total)
	s.Equal(2, report.ByCategory[0].Count)

	s.Require().Len(report.MonthlyTrend, 2)
	s.Equal("2024-02", report.MonthlyTrend[0].Month)
	s.requireDecimal("30", report.MonthlyTrend[0].Total)
	s.Equal(1, report.MonthlyTrend[0].Count)
	s.Equal("2024-03", report.MonthlyTrend[1].Month)
	s.requireDecimal("150", report.MonthlyTrend[1].Total)
	s.Equal(2, report.MonthlyTrend[1].Count)
	s.Zero(report.Skipped)
}

func (s *ReportTestSuite) TestCompute_EmptyInput() {
	for _, input := range [][]models.Expense{nil, {}} {
		report := Compute(input, s.asOf)

		s.True(report.CurrentMonth.Total.IsZero())
		s.Zero(report.CurrentMonth.Count)
		s.NotNil(report.ByCategory)
		s.Empty(report.ByCategory)
		s.NotNil(report.MonthlyTrend)
		s.Empty(report.MonthlyTrend)
	}

	body, err := json.Marshal(Compute(nil, s.asOf))
	s.Require().NoError(err)
	s.JSONEq(`{"currentMonth":{"total":"0","count":0},"byCategory":[],"monthlyTrend":[]}`, string(body))
}

func (s *ReportTestSuite) TestCompute_TiedCategoriesOrderedByName() {
	expenses := []models.Expense{
		s.expense(100, models.CategoryTravel, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
		s.expense(100, models.CategoryFood, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)),
		s.expense(120, models.CategoryShopping, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)),
	}

	first := Compute(expenses, s.asOf)
	second := Compute(reversed(expenses), s.asOf)

	s.Require().Len(first.ByCategory, 3)
	s.Equal(models.CategoryShopping, first.ByCategory[0].Category)
	s.Equal(models.CategoryFood, first.ByCategory[1].Category)
	s.Equal(models.CategoryTravel, first.ByCategory[2].Category)
	s.Equal(first.ByCategory, second.ByCategory)
}

func (s *ReportTestSuite) TestCompute_MonthBoundaries() {
	lastInstant := time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)
	nextMonth := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	firstInstant := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	previousMonth := firstInstant.Add(-time.Nanosecond)

	expenses := []models.Expense{
		s.expense(1, models.CategoryFood, lastInstant),
		s.expense(2, models.CategoryFood, nextMonth),
		s.expense(4, models.CategoryFood, firstInstant),
		s.expense(8, models.CategoryFood, previousMonth),
	}

	asOf := time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)
	report := Compute(expenses, asOf)

	s.requireDecimal("5", report.CurrentMonth.Total)
	s.Equal(2, report.CurrentMonth.Count)
}

func (s *ReportTestSuite) TestCompute_CurrentMonthIncludesLaterDatesInMonth() {
	expenses := []models.Expense{
		s.expense(10, models.CategoryUtilities, time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)),
	}

	report := Compute(expenses, s.asOf)

	s.Equal(1, report.CurrentMonth.Count)
	s.Empty(report.MonthlyTrend, "trend stops at asOf")
}

func (s *ReportTestSuite) TestCompute_NormalizesOffsetsToUTC() {
	ist := time.FixedZone("IST", 5*3600+1800)
	pst := time.FixedZone("PST", -8*3600)

	expenses := []models.Expense{
		// 2024-03-01T02:00+05:30 is 2024-02-29T20:30Z
		s.expense(10, models.CategoryFood, time.Date(2024, 3, 1, 2, 0, 0, 0, ist)),
		// 2024-03-31T20:00-08:00 is 2024-04-01T04:00Z
		s.expense(20, models.CategoryFood, time.Date(2024, 3, 31, 20, 0, 0, 0, pst)),
		// 2024-02-29T23:00-08:00 is 2024-03-01T07:00Z
		s.expense(40, models.CategoryFood, time.Date(2024, 2, 29, 23, 0, 0, 0, pst)),
	}

	report := Compute(expenses, time.Date(2024, 3, 25, 5, 0, 0, 0, ist))

	s.requireDecimal("40", report.CurrentMonth.Total)
	s.Equal(1, report.CurrentMonth.Count)
	s.Require().Len(report.MonthlyTrend, 2)
	s.Equal("2024-02", report.MonthlyTrend[0].Month)
	s.Equal("2024-03", report.MonthlyTrend[1].Month)
}

func (s *ReportTestSuite) TestCompute_TrendWindow() {
	expenses := []models.Expense{
		s.expense(1, models.CategoryOther, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)),
		s.expense(2, models.CategoryOther, time.Date(2023, 8, 31, 23, 59, 59, 0, time.UTC)),
		s.expense(3, models.CategoryOther, time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC)),
		s.expense(4, models.CategoryOther, time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)),
		s.expense(5, models.CategoryOther, time.Date(2024, 3, 25, 0, 0, 0, 1, time.UTC)),
	}

	report := Compute(expenses, s.asOf)

	months := make([]string, 0, len(report.MonthlyTrend))
	for _, m := range report.MonthlyTrend {
		months = append(months, m.Month)
	}
	s.Equal([]string{"2023-09", "2023-12", "2024-03"}, months)
	s.requireDecimal("4", report.MonthlyTrend[2].Total)
}

func (s *ReportTestSuite) TestCompute_TrendWindowAcrossYearBoundary() {
	asOf := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	expenses := []models.Expense{
		s.expense(1, models.CategoryOther, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)),
		s.expense(1, models.CategoryOther, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)),
		s.expense(1, models.CategoryOther, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}

	report := Compute(expenses, asOf)

	s.Require().Len(report.MonthlyTrend, 2)
	s.Equal("2023-07", report.MonthlyTrend[0].Month)
	s.Equal("2024-01", report.MonthlyTrend[1].Month)
}

func (s *ReportTestSuite) TestCompute_SkipsRecordsWithoutDate() {
	expenses := []models.Expense{
		s.expense(100, models.CategoryFood, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		s.expense(999, models.CategoryFood, time.Time{}),
	}

	report := Compute(expenses, s.asOf)

	s.Equal(1, report.Skipped)
	s.requireDecimal("100", report.CurrentMonth.Total)
	s.Equal(1, report.CurrentMonth.Count)
	s.Require().Len(report.MonthlyTrend, 1)
	s.Equal(1, report.MonthlyTrend[0].Count)
}

func (s *ReportTestSuite) TestCompute_DoesNotMutateInput() {
	ist := time.FixedZone("IST", 5*3600+1800)
	expenses := []models.Expense{
		s.expense(10, models.CategoryFood, time.Date(2024, 3, 10, 0, 0, 0, 0, ist)),
		s.expense(20, models.CategoryTravel, time.Date(2024, 3, 11, 0, 0, 0, 0, ist)),
	}
	snapshot := make([]models.Expense, len(expenses))
	copy(snapshot, expenses)

	_ = Compute(expenses, s.asOf)

	s.Equal(snapshot, expenses)
	s.Equal(ist, expenses[0].Date.Location())
}

func (s *ReportTestSuite) TestCompute_OrderIndependent() {
	expenses := s.randomExpenses(200)
	baseline := Compute(expenses, s.asOf)

	for _, permutation := range [][]models.Expense{reversed(expenses), rotated(expenses, 37), rotated(expenses, 151)} {
		report := Compute(permutation, s.asOf)
		s.True(baseline.CurrentMonth.Total.Equal(report.CurrentMonth.Total))
		s.Equal(baseline.CurrentMonth.Count, report.CurrentMonth.Count)
		s.Equal(len(baseline.ByCategory), len(report.ByCategory))
		for i := range baseline.ByCategory {
			s.Equal(baseline.ByCategory[i].Category, report.ByCategory[i].Category)
			s.True(baseline.ByCategory[i].Total.Equal(report.ByCategory[i].Total))
		}
	}
}

func (s *ReportTestSuite) TestCompute_CurrentMonthTotalMatchesInMonthRecords() {
	expenses := s.randomExpenses(300)
	start := MonthStart(s.asOf)
	end := start.AddDate(0, 1, 0)

	expected := decimal.Zero
	count := 0
	for _, e := range expenses {
		if !e.Date.Before(start) && e.Date.Before(end) {
			expected = expected.Add(e.Amount)
			count++
		}
	}

	report := Compute(expenses, s.asOf)

	s.True(expected.Equal(report.CurrentMonth.Total))
	s.Equal(count, report.CurrentMonth.Count)
}

func (s *ReportTestSuite) TestCompute_CategoriesPartitionCurrentMonth() {
	report := Compute(s.randomExpenses(300), s.asOf)

	sum := decimal.Zero
	count := 0
	for i, entry := range report.ByCategory {
		sum = sum.Add(entry.Total)
		count += entry.Count
		s.Positive(entry.Count)
		if i > 0 {
			s.False(entry.Total.GreaterThan(report.ByCategory[i-1].Total), "byCategory must be sorted by total descending")
		}
	}

	s.True(sum.Equal(report.CurrentMonth.Total))
	s.Equal(report.CurrentMonth.Count, count)
}

func (s *ReportTestSuite) TestCompute_TrendIsSparseAndBounded() {
	report := Compute(s.randomExpenses(500), s.asOf)

	s.LessOrEqual(len(report.MonthlyTrend), TrendMonths+1)
	for i, entry := range report.MonthlyTrend {
		s.Positive(entry.Count)
		if i > 0 {
			s.Less(report.MonthlyTrend[i-1].Month, entry.Month)
		}
	}
}

func (s *ReportTestSuite) TestCompute_Idempotent() {
	expenses := s.randomExpenses(100)

	first, err := json.Marshal(Compute(expenses, s.asOf))
	s.Require().NoError(err)
	second, err := json.Marshal(Compute(expenses, s.asOf))
	s.Require().NoError(err)

	s.Equal(string(first), string(second))
}

func (s *ReportTestSuite) TestMonthHelpers() {
	ist := time.FixedZone("IST", 5*3600+1800)
	t := time.Date(2024, 4, 1, 3, 0, 0, 0, ist)

	s.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(t))
	s.Equal("2024-03", MonthKey(t))
}
