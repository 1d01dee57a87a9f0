package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	// Version information set via ldflags at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "chatpanel",
	Short: "Local host process for an editor-embedded chat panel",
	Long: `Chatpanel hosts the core of an editor-embedded chat panel: it keeps
chat sessions in memory, relays prompts to a locally running model backend,
and streams incremental HTML updates back to the panel shell.

The shell connects over WebSocket (or SSE plus a command POST endpoint) and
drives everything with JSON commands; chatpanel answers with JSON events.

Running chatpanel without a subcommand starts the server, same as
'chatpanel serve'.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func execute() {
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionString() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	}
	return version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to the config file (default: <user config dir>/chatpanel/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
