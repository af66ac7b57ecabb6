package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"zk-sampler/shared"
)

// Prover modes
const (
	ProverModeLocal  = "local"
	ProverModeRemote = "remote"
)

type APIConfig struct {
	Port int `json:"port"`

	// Proof host selection
	ProverMode      string        `json:"prover_mode"` // "local" or "remote"
	ProverURL       string        `json:"prover_url,omitempty"`
	ProverAuthToken string        `json:"-"`
	ProveTimeout    time.Duration `json:"prove_timeout"`
	ProofCacheTTL   time.Duration `json:"proof_cache_ttl"`
	ProofCacheSize  int           `json:"proof_cache_size"`

	// Bearer auth on the prove routes; disabled when empty
	JWTSecret string `json:"-"`

	// Fixtures for /prove-local
	SampleWAV     string `json:"sample_wav"`
	TransformJSON string `json:"transform_json"`
	SampleSig     string `json:"sample_sig"`
	SamplePub     string `json:"sample_pub"`

	MaxUploadBytes int64 `json:"max_upload_bytes"`

	Key shared.ProverKeyConfig `json:"-"`
}

func LoadAPIConfig() *APIConfig {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	} else {
		log.Printf("Successfully loaded .env file")
	}

	mode := shared.GetEnvOrDefault("PROVER_MODE", ProverModeLocal)
	log.Printf("Configuration loaded - ProverMode: %s", mode)

	return &APIConfig{
		Port:            shared.GetEnvIntOrDefault("PORT", 3001),
		ProverMode:      mode,
		ProverURL:       shared.GetEnvOrDefault("PROVER_URL", ""),
		ProverAuthToken: shared.GetEnvOrDefault("PROVER_AUTH_TOKEN", ""),
		ProveTimeout:    shared.GetEnvDurationOrDefault("PROVE_TIMEOUT", 5*time.Minute),
		ProofCacheTTL:   shared.GetEnvDurationOrDefault("PROOF_CACHE_TTL", 10*time.Minute),
		ProofCacheSize:  shared.GetEnvIntOrDefault("PROOF_CACHE_SIZE", 64),
		JWTSecret:       shared.GetEnvOrDefault("JWT_SECRET", ""),
		SampleWAV:       shared.GetEnvOrDefault("SAMPLE_WAV", "assets/sample.wav"),
		TransformJSON:   shared.GetEnvOrDefault("TRANSFORM_JSON", "transform.json"),
		SampleSig:       shared.GetEnvOrDefault("SAMPLE_SIG", "sample.sig"),
		SamplePub:       shared.GetEnvOrDefault("SAMPLE_PUB", "sample.pub"),
		MaxUploadBytes:  int64(shared.GetEnvIntOrDefault("MAX_UPLOAD_BYTES", 32<<20)),
		Key:             shared.ProverKeyConfigFromEnv(),
	}
}
