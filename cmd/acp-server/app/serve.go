package app

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/acp/pkg/api"
	"github.com/stacklok/acp/pkg/config"
	"github.com/stacklok/acp/pkg/lockfile"
	"github.com/stacklok/acp/pkg/logger"
	"github.com/stacklok/acp/pkg/migration"
	"github.com/stacklok/acp/pkg/pipeline"
	"github.com/stacklok/acp/pkg/proxyserver"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var store secrets.Store
	if viper.GetString("data-dir") != "" {
		store, err = secrets.NewFileStore(cfg.DataDir)
	} else {
		store, err = secrets.NewDefaultStore()
	}
	if err != nil {
		return fmt.Errorf("failed to open secret store: %w", err)
	}

	reg := registry.New(store, cfg.DataDir)
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migration.Run(ctx, store, reg); err != nil {
		return fmt.Errorf("failed to run startup migration: %w", err)
	}

	tokens := tokencache.New(store, reg)
	pl := pipeline.New(store, reg)

	deps := api.Deps{Store: store, Registry: reg, Tokens: tokens}
	proxy := proxyserver.New(pl, tokens, nil)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := api.Serve(ctx, cfg.ManagementAddr, deps); err != nil {
			errCh <- fmt.Errorf("management API: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := proxyserver.Serve(ctx, cfg.ProxyAddr, proxy); err != nil {
			errCh <- fmt.Errorf("proxy listener: %w", err)
		}
	}()

	wg.Wait()
	close(errCh)

	lockfile.CleanupAllLocks()

	var firstErr error
	for err := range errCh {
		logger.Errorf("%v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
