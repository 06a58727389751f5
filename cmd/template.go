package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// templateCmd writes the question import workbook without touching the database.
func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the question import template (.xlsx)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, map[string]string{})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, _ := newLogger(cfg)

			file, err := services.NewImportExportService(nil, nil, logger, validator.New()).Template()
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = file.FileName
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			logger.Info("Template written", "path", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output path (default: the server's download file name)")
	return cmd
}
