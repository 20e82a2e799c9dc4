package main

import (
	"encoding/json"
	"fmt"
	"os"

	"expense-tracker/internal/repositories"
	"expense-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var userID, path string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON export of expenses for one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ownerID, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer file.Close()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			metrics := services.NewPrometheusMetrics(prometheus.NewRegistry())
			expenseService := services.NewExpenseService(repositories.NewExpenseRepository(db.DB), metrics, a.logger)
			importer := services.NewImportService(expenseService, metrics, a.logger)

			result, err := importer.Import(cmd.Context(), ownerID, file)
			if result != nil {
				if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(result); encErr != nil && err == nil {
					err = encErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (uuid)")
	cmd.Flags().StringVar(&path, "file", "", "path to the JSON export")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
