package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digitarr/digitarr/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "digitarr",
	Short: "Daily digital movie release checker and media requester",
	Long:  "Finds movies released digitally today, filters them against configured rules, requests them through Overseerr, Riven and/or Radarr, and announces new additions on Discord.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
