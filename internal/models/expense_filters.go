package models

import "time"

// ExpenseFilters contains filtering options for expense list queries
type ExpenseFilters struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// HasCategory reports whether the filter narrows results to a single category
func (f ExpenseFilters) HasCategory() bool {
	return f.Category != "" && f.Category != CategoryAll
}
