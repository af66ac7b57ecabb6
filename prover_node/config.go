package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"zk-sampler/shared"
)

type ProverNodeConfig struct {
	Port                int           `json:"port"`
	ProveTimeout        time.Duration `json:"prove_timeout"`
	ProofCacheTTL       time.Duration `json:"proof_cache_ttl"`
	ProofCacheSize      int           `json:"proof_cache_size"`
	MaxConcurrentProofs int           `json:"max_concurrent_proofs"`
	AuthToken           string        `json:"-"`

	Key shared.ProverKeyConfig `json:"-"`
}

func LoadProverNodeConfig() *ProverNodeConfig {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	} else {
		log.Printf("Successfully loaded .env file")
	}

	return &ProverNodeConfig{
		Port:                shared.GetEnvIntOrDefault("PORT", 8090),
		ProveTimeout:        shared.GetEnvDurationOrDefault("PROVE_TIMEOUT", 5*time.Minute),
		ProofCacheTTL:       shared.GetEnvDurationOrDefault("PROOF_CACHE_TTL", 10*time.Minute),
		ProofCacheSize:      shared.GetEnvIntOrDefault("PROOF_CACHE_SIZE", 256),
		MaxConcurrentProofs: shared.GetEnvIntOrDefault("MAX_CONCURRENT_PROOFS", 2),
		AuthToken:           shared.GetEnvOrDefault("NODE_AUTH_TOKEN", ""),
		Key:                 shared.ProverKeyConfigFromEnv(),
	}
}
