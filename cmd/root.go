// Package cmd holds the classroom-service command line.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SAP-F-2025/classroom-service/internal/config"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "classroom-service",
		Short:        "Classroom management API for K-12 teachers and students",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), templateCmd())

	// serve runs when no subcommand is given
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// loadConfig layers flags over the environment. Flag names use dashes and
// map onto the underscore keys config.FromViper reads.
func loadConfig(cmd *cobra.Command, keys map[string]string) (*config.Config, error) {
	v := config.NewViper()
	keys["log-level"] = "log_level"
	bindFlags(v, cmd, keys)
	return config.FromViper(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		_ = v.BindPFlag(key, f)
	}
}

func newLogger(cfg *config.Config) (*slog.Logger, utils.Logger) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)
	return slogger, utils.NewSlogLogger(slogger)
}
