package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"zk-sampler/guest"
	"zk-sampler/prover"
	"zk-sampler/shared"
)

// API serves the HTTP surface over one proof host
type API struct {
	config  *APIConfig
	host    prover.Host
	cache   *prover.ProofCache
	program *guest.Program
	logger  *shared.Logger
}

// NewAPI assembles the proof host selected by config
func NewAPI(ctx context.Context, config *APIConfig, logger *shared.Logger) (*API, error) {
	var base prover.Host
	switch config.ProverMode {
	case ProverModeLocal:
		key, err := shared.LoadProverKey(ctx, config.Key, logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load prover key: %w", err)
		}
		local, err := prover.NewLocalHost(key, logger.Logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using in-process prover", zap.String("prover_address", local.Address().Hex()))
		base = local
	case ProverModeRemote:
		remote, err := prover.NewRemoteHost(config.ProverURL, config.ProverAuthToken, logger.Logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using remote prover", zap.String("prover_url", config.ProverURL))
		base = remote
	default:
		return nil, shared.NewConfigurationError("PROVER_MODE", fmt.Sprintf("unknown mode %q", config.ProverMode))
	}

	cache := prover.NewProofCache(config.ProofCacheTTL, config.ProofCacheSize, logger.Logger)
	return &API{
		config:  config,
		host:    prover.NewCachingHost(base, cache, logger.Logger),
		cache:   cache,
		program: guest.New(logger.Logger),
		logger:  logger,
	}, nil
}

func setupRoutes(api *API) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.handleHealth)
	mux.Handle("POST /prove", requireJWT(api.logger, api.config.JWTSecret, http.HandlerFunc(api.handleProve)))
	mux.Handle("GET /prove-local", requireJWT(api.logger, api.config.JWTSecret, http.HandlerFunc(api.handleProveLocal)))
	mux.HandleFunc("POST /preview", api.handlePreview)
	mux.HandleFunc("POST /verify", api.handleVerify)
	return withRequestID(api.logger, withCORS(mux))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
