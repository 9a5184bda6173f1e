package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/mitra-laporan-api/pkg/config"
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the operator CLI. Configuration is read from the environment and .env,
// exactly as the API server does.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kontrakctl",
		Short:         "Operate the mitra laporan service",
		Long:          `Maintenance commands for the mitra laporan service: schema migrations, orphan attachment sweeps, cache flushes and test tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newCacheCmd())
	return root
}

func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}
