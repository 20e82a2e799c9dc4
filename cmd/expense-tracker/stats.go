package main

import (
	"encoding/json"
	"fmt"
	"time"

	"expense-tracker/internal/dto"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/services"
	"expense-tracker/internal/validation"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var userID, asOf string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics report for one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ownerID, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			at := time.Now().UTC()
			if asOf != "" {
				if at, err = validation.ParseISO8601(asOf); err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			// one-shot run: metrics are recorded but not exported
			metrics := services.NewPrometheusMetrics(prometheus.NewRegistry())
			expenseService := services.NewExpenseService(repositories.NewExpenseRepository(db.DB), metrics, a.logger)

			report, err := expenseService.GetStatsAsOf(cmd.Context(), ownerID, at)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewStatsResponse(report))
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (uuid)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference instant, ISO-8601 (default now)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
