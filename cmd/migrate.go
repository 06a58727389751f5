package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/pkg"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, map[string]string{})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, _ := newLogger(cfg)

			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := postgres.AutoMigrate(db); err != nil {
				return err
			}
			logger.Info("Database migrated", "database", cfg.Database.Name)
			return nil
		},
	}
}
