package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/swell"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(connectGateway).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connectGateway builds a gateway from config.toml and PAYBRIDGE_ variables.
// Logs go to stderr so stdout carries only command output.
func connectGateway(verbose bool) (storefront.Gateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Format = "console"
	logCfg.Output = "stderr"
	logCfg.Level = "warn"
	if verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Debug("Connecting to remote store", zap.String("addr", cfg.Swell.Addr()))

	gw, err := swell.NewGateway(&cfg.Swell, log)
	if err != nil {
		return nil, err
	}
	return gw, nil
}
