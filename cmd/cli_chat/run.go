package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"term-chat/internal/cli"
)

// runCmd abre el menú interactivo. Es también la acción por defecto.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive chat client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runChat(cmd *cobra.Command) error {
	ctx := cmd.Context()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer app.Close()

	logger.Info("client started",
		zap.String("driver", cfg.DBDriver),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Bool("redis_limiter", app.redis != nil),
	)

	ui := cli.NewApp(app.services, os.Stdin, os.Stdout, cli.Options{
		PollInterval: cfg.PollInterval,
		PasswordFD:   int(os.Stdin.Fd()),
		Logger:       logger,
	})
	return ui.Run(ctx)
}
