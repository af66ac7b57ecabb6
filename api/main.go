package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"zk-sampler/shared"
)

func main() {
	config := LoadAPIConfig()

	logger, err := shared.NewLoggerFromEnv("api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := NewAPI(ctx, config, logger)
	if err != nil {
		logger.Critical("Failed to initialise API", zap.Error(err))
		os.Exit(1)
	}
	if err := api.cache.Start(ctx); err != nil {
		logger.Critical("Failed to start proof cache", zap.Error(err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           setupRoutes(api),
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      config.ProveTimeout + 30*time.Second,
	}

	logger.Info("Starting API server", zap.Int("port", config.Port), zap.String("prover_mode", config.ProverMode))
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Critical("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	api.cache.Shutdown(shutdownCtx)

	logger.Info("Shutdown complete")
}
