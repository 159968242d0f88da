package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync_service/internal/core"
	"sync_service/internal/sync_server"
	"syscall"
	"time"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sync server: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// обработка возможной паники
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := core.InitDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	server, err := sync_server.NewSyncServer(deps.Config.ServerConf, deps.SyncHandler, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-serverErr:
		if runErr != nil {
			logger.Error("server failed", "error", runErr.Error())
		}
	}

	// graceful shutdown: HTTP сервер, очередь синхронизаций, хранилища
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	return runErr
}
