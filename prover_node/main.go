package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zk-sampler/prover"
	"zk-sampler/shared"
)

func main() {
	config := LoadProverNodeConfig()

	logger, err := shared.NewLoggerFromEnv("prover-node")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Critical("Prover node failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

// node is the assembled host stack plus what the routes report about it
type node struct {
	host    prover.Host
	cache   *prover.ProofCache
	address string
	config  *ProverNodeConfig
	logger  *shared.Logger
}

func newNode(ctx context.Context, config *ProverNodeConfig, logger *shared.Logger) (*node, error) {
	key, err := shared.LoadProverKey(ctx, config.Key, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load prover key: %w", err)
	}
	local, err := prover.NewLocalHost(key, logger.Logger)
	if err != nil {
		return nil, err
	}

	cache := prover.NewProofCache(config.ProofCacheTTL, config.ProofCacheSize, logger.Logger)
	host := prover.NewCachingHost(prover.NewLimitHost(local, config.MaxConcurrentProofs), cache, logger.Logger)

	logger.Info("Prover ready",
		zap.String("prover_address", local.Address().Hex()),
		zap.String("verification_key", prover.VerificationKey()),
		zap.Int("max_concurrent_proofs", config.MaxConcurrentProofs))

	return &node{
		host:    host,
		cache:   cache,
		address: local.Address().Hex(),
		config:  config,
		logger:  logger,
	}, nil
}

func run(ctx context.Context, config *ProverNodeConfig, logger *shared.Logger) error {
	n, err := newNode(ctx, config, logger)
	if err != nil {
		return err
	}
	if err := n.cache.Start(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           setupRoutes(n),
		ReadHeaderTimeout: 30 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting prover node", zap.Int("port", config.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", zap.Error(err))
		}
		return n.cache.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func setupRoutes(n *node) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", requireToken(n.logger, n.config.AuthToken, prover.NewNodeHandler(n.host, n.logger, n.config.ProveTimeout)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"prover_address":   n.address,
			"verification_key": prover.VerificationKey(),
			"program":          prover.ProgramID,
			"cache":            n.cache.Metrics(),
		})
	})
	return mux
}

// requireToken checks a static bearer token when one is configured
func requireToken(logger *shared.Logger, token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
			logger.Security("Rejected prover token", zap.String("remote_addr", r.RemoteAddr))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
