package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"insider-graph/internal/cli"
	"insider-graph/internal/config"
	"insider-graph/internal/logging"
	"insider-graph/internal/trace"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(cfg.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd := cli.NewRootCmd(cfg, logger)
	err = rootCmd.ExecuteContext(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := trace.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn().Err(shutdownErr).Msg("Failed to flush trace spans")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
