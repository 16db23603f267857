package main

import (
	"time"

	"github.com/spf13/cobra"

	"term-chat/internal/cli"
)

var recentCmd = &cobra.Command{
	Use:   "recent <username>",
	Short: "Print the recent conversations of a user and exit",
	Args:  cobra.ExactArgs(1),
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

		recent := app.services.Recent.ListRecentConversations(cmd.Context(), args[0])
		cli.RenderRecent(cmd.OutOrStdout(), recent, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)
}
