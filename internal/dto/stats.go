package dto

import "expense-tracker/internal/stats"

// TotalsResponse is a sum and a count with the sum as a JSON number
type TotalsResponse struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryTotalResponse is one entry of the per-category breakdown
type CategoryTotalResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// MonthTotalResponse is one entry of the monthly trend
type MonthTotalResponse struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// StatsResponse is the dashboard statistics payload
type StatsResponse struct {
	CurrentMonth TotalsResponse          `json:"currentMonth"`
	ByCategory   []CategoryTotalResponse `json:"byCategory"`
	MonthlyTrend []MonthTotalResponse    `json:"monthlyTrend"`
}

// NewStatsResponse converts a report, keeping its ordering
func NewStatsResponse(report stats.Report) StatsResponse {
	response := StatsResponse{
		CurrentMonth: TotalsResponse{
			Total: report.CurrentMonth.Total.InexactFloat64(),
			Count: report.CurrentMonth.Count,
		},
		ByCategory:   make([]CategoryTotalResponse, 0, len(report.ByCategory)),
		MonthlyTrend: make([]MonthTotalResponse, 0, len(report.MonthlyTrend)),
	}

	for _, c := range report.ByCategory {
		response.ByCategory = append(response.ByCategory, CategoryTotalResponse{
			Category: c.Category,
			Total:    c.Total.InexactFloat64(),
			Count:    c.Count,
		})
	}

	for _, m := range report.MonthlyTrend {
		response.MonthlyTrend = append(response.MonthlyTrend, MonthTotalResponse{
			Month: m.Month,
			Total: m.Total.InexactFloat64(),
			Count: m.Count,
		})
	}

	return response
}
