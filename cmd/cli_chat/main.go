// Command cli_chat es el cliente de chat en terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"term-chat/internal/config"
)

// Flag variables.
var (
	envFile  string
	logLevel string
	cfg      *config.Config
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cli_chat",
	Short:         "Terminal chat client with private and group conversations",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env es opcional
		_ = godotenv.Load(envFile)

		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Path to a .env file loaded before reading the environment.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override LOG_LEVEL (debug, info, warn, error).")
}
