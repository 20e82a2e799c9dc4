// Package stats turns a user's expense records into the dashboard report:
// current-month totals, a per-category breakdown of the current month, and a
// sparse monthly trend covering the current month and the six before it.
//
// All calendar arithmetic is done in UTC. Records with an unset date cannot be
// placed in a month; they are left out of every figure and counted in
// Report.Skipped.
package stats

import (
	"sort"
	"time"

	"expense-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// TrendMonths is how many months before the current one the trend reaches back
	TrendMonths = 6

	// MonthKeyLayout formats trend keys as "YYYY-MM"
	MonthKeyLayout = "2006-01"
)

// Totals is a sum and a record count
type Totals struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CategoryTotal is the current-month aggregate for one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MonthTotal is the aggregate for one calendar month of the trend
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Report is the aggregated view of one user's expenses at a point in time
type Report struct {
	CurrentMonth Totals          `json:"currentMonth"`
	ByCategory   []CategoryTotal `json:"byCategory"`
	MonthlyTrend []MonthTotal    `json:"monthlyTrend"`
	Skipped      int             `json:"-"`
}

// EmptyReport is the report for a user with no usable records
func EmptyReport() Report {
	return Report{
		CurrentMonth: Totals{Total: decimal.Zero},
		ByCategory:   []CategoryTotal{},
		MonthlyTrend: []MonthTotal{},
	}
}

// MonthStart returns the first instant of t's UTC calendar month
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey returns t's UTC month as "YYYY-MM"
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// Compute aggregates expenses relative to asOf. The input slice is not modified.
//
// Current month is [MonthStart(asOf), MonthStart(asOf)+1 month), which includes
// records dated later than asOf within the same month. The trend covers
// [MonthStart(asOf) - TrendMonths months, asOf] and only lists months that
// have at least one record.
//
// ByCategory is ordered by total descending; equal totals are ordered by
// category name so the result does not depend on input order.
func Compute(expenses []models.Expense, asOf time.Time) Report {
	report := EmptyReport()
	if len(expenses) == 0 {
		return report
	}

	asOf = asOf.UTC()
	monthStart := MonthStart(asOf)
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	trendStart := monthStart.AddDate(0, -TrendMonths, 0)

	categories := make(map[string]*CategoryTotal)
	months := make(map[string]*MonthTotal)

	for i := range expenses {
		expense := &expenses[i]
		if expense.Date.IsZero() {
			report.Skipped++
			continue
		}
		date := expense.Date.UTC()

		if !date.Before(monthStart) && date.Before(nextMonthStart) {
			report.CurrentMonth.Total = report.CurrentMonth.Total.Add(expense.Amount)
			report.CurrentMonth.Count++

			entry, ok := categories[expense.Category]
			if !ok {
				entry = &CategoryTotal{Category: expense.Category, Total: decimal.Zero}
				categories[expense.Category] = entry
			}
			entry.Total = entry.Total.Add(expense.Amount)
			entry.Count++
		}

		if !date.Before(trendStart) && !date.After(asOf) {
			key := MonthKey(date)
			entry, ok := months[key]
			if !ok {
				entry = &MonthTotal{Month: key, Total: decimal.Zero}
				months[key] = entry
			}
			entry.Total = entry.Total.Add(expense.Amount)
			entry.Count++
		}
	}

	for _, entry := range categories {
		report.ByCategory = append(report.ByCategory, *entry)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if cmp := a.Total.Cmp(b.Total); cmp != 0 {
			return cmp > 0
		}
		return a.Category < b.Category
	})

	for _, entry := range months {
		report.MonthlyTrend = append(report.MonthlyTrend, *entry)
	}
	sort.Slice(report.MonthlyTrend, func(i, j int) bool {
		return report.MonthlyTrend[i].Month < report.MonthlyTrend[j].Month
	})

	return report
}

// ComputeNow aggregates expenses relative to the current time
func ComputeNow(expenses []models.Expense) Report {
	return Compute(expenses, time.Now())
}
