package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured model backend is reachable",
	Long: `Check loads the config file, builds the configured backend client, and
sends a single connectivity probe. It exits non-zero when the backend is not
reachable, which makes it usable from editor tasks and shell scripts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}

		llm, err := cfg.LLM.llm(cfg.SystemPrompt, newLogger())
		if err != nil {
			return fmt.Errorf("error configuring llm: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		if err := llm.Ping(ctx); err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}

		fmt.Printf("Backend reachable, model %q configured.\n", cfg.LLM.model())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Second, "Probe timeout")
}
