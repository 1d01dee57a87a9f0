package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/calegann/chatpanel/internal/backend"
	"github.com/calegann/chatpanel/internal/protocol"
	"github.com/calegann/chatpanel/internal/relay"
	"github.com/calegann/chatpanel/internal/router"
	"github.com/calegann/chatpanel/internal/server"
	"github.com/calegann/chatpanel/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the panel host server",
	Long: `Serve starts the panel host: a local HTTP server exposing the shell
transports (WebSocket, SSE, command POST) together with health, metrics, and
transcript export endpoints. Sessions live in memory only and are gone when
the process exits.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	logger := newLogger()

	llm, err := cfg.LLM.llm(cfg.SystemPrompt, logger)
	if err != nil {
		return fmt.Errorf("error configuring llm: %w", err)
	}

	store := session.NewStore()
	hub := server.NewHub(logger)
	rly := relay.New(llm, store, hub, cfg.LLM.model(), logger)

	var titles router.TitleGenerator
	if cfg.TitleGenerator.Enabled {
		titleLLM, err := cfg.LLM.titleGen(cfg.TitleGenerator.Prompt, logger)
		if err != nil {
			return fmt.Errorf("error configuring title generator: %w", err)
		}
		titles = backend.NewTitleGenerator(titleLLM, cfg.LLM.model())
	}

	rt := router.New(store, rly, hub, titles, logger)

	// Sessions exist only in memory, so the panel boots with a fresh chat
	// ready for input.
	rt.Handle(protocol.Command{Command: protocol.CommandNewChat})

	srv := server.New(cfg.Address, hub, rt, store, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				return fmt.Errorf("forcing server close: %w", err)
			}
		}
	}

	return nil
}
