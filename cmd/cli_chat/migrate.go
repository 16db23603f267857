package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd aplica las migraciones y siembra la contraseña de admin sin
// abrir la interfaz.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and seed the admin password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = logger.Sync()
		}()

		app, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		logger.Info("migrations applied", zap.String("driver", cfg.DBDriver))
		fmt.Fprintf(cmd.OutOrStdout(), "database ready (%s)\n", cfg.DBDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
