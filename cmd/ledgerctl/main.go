package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/property_ledger/internal/commands"
	"github.com/SscSPs/property_ledger/internal/platform/config"
	"github.com/SscSPs/property_ledger/internal/platform/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()
	for _, w := range cfg.Warnings {
		log.Warn("Config fallback", zap.String("detail", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context) (*commands.App, error) {
		return commands.NewApp(ctx, cfg, log)
	}

	if err := commands.NewRootCommand(factory).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
