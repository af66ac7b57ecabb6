package shared

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Prover key sources
const (
	KeySourceEnv       = "env"
	KeySourceGCP       = "gcp"
	KeySourceEphemeral = "ephemeral"
)

// ProverKeyConfig selects where a proof host's attestation key comes from
type ProverKeyConfig struct {
	Source        string // env, gcp or ephemeral
	PrivateKeyHex string // env source

	// gcp source: key sealed with KMS and stored in Secret Manager
	ProjectID   string
	KMSLocation string
	KMSKeyRing  string
	KMSKeyName  string
	SecretID    string
}

// ProverKeyConfigFromEnv reads the PROVER_KEY_* variables
func ProverKeyConfigFromEnv() ProverKeyConfig {
	return ProverKeyConfig{
		Source:        GetEnvOrDefault("PROVER_KEY_SOURCE", KeySourceEphemeral),
		PrivateKeyHex: GetEnvOrDefault("PROVER_PRIVATE_KEY", ""),
		ProjectID:     GetEnvOrDefault("GOOGLE_PROJECT_ID", ""),
		KMSLocation:   GetEnvOrDefault("GOOGLE_KMS_LOCATION", "global"),
		KMSKeyRing:    GetEnvOrDefault("GOOGLE_KMS_KEYRING", ""),
		KMSKeyName:    GetEnvOrDefault("GOOGLE_KMS_KEY", ""),
		SecretID:      GetEnvOrDefault("PROVER_KEY_SECRET", "zk-sampler-prover-key"),
	}
}

// SealedKeyStore keeps the prover key envelope-encrypted: a random data key
// encrypts the secp256k1 scalar with AES-GCM and KMS wraps the data key.
type SealedKeyStore struct {
	secrets   SecretStore
	wrapper   KeyWrapper
	projectID string
	secretID  string
}

// NewSealedKeyStore builds a key store over arbitrary secret/KMS backends
func NewSealedKeyStore(secrets SecretStore, wrapper KeyWrapper, projectID, secretID string) *SealedKeyStore {
	return &SealedKeyStore{
		secrets:   secrets,
		wrapper:   wrapper,
		projectID: projectID,
		secretID:  sanitizeSecretID(secretID),
	}
}

type sealedKeyPayload struct {
	Data []byte `json:"data"`
	Key  []byte `json:"key"`
}

// Store seals and persists the key as a new secret version
func (s *SealedKeyStore) Store(ctx context.Context, kp *SigningKeyPair) error {
	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return fmt.Errorf("failed to generate data key: %v", err)
	}

	encrypted, err := aesGCMOperation(dataKey, kp.PrivateKeyBytes(), true)
	if err != nil {
		return fmt.Errorf("failed to encrypt prover key: %v", err)
	}

	wrapped, err := s.wrapper.Wrap(ctx, dataKey)
	if err != nil {
		return fmt.Errorf("failed to wrap data key: %v", err)
	}

	payload, err := json.Marshal(sealedKeyPayload{Data: encrypted, Key: wrapped})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	if err := s.secrets.CreateIfNotExists(ctx, s.projectID, s.secretID); err != nil {
		return fmt.Errorf("failed to create secret: %v", err)
	}
	return s.secrets.AddVersion(ctx, s.projectID, s.secretID, payload)
}

// Load fetches and unseals the latest key version
func (s *SealedKeyStore) Load(ctx context.Context) (*SigningKeyPair, error) {
	payload, err := s.secrets.AccessLatest(ctx, s.projectID, s.secretID)
	if err != nil {
		return nil, fmt.Errorf("failed to access prover key: %w", err)
	}

	var pkg sealedKeyPayload
	if err := json.Unmarshal(payload, &pkg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %v", err)
	}

	dataKey, err := s.wrapper.Unwrap(ctx, pkg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data key: %v", err)
	}

	raw, err := aesGCMOperation(dataKey, pkg.Data, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt prover key: %v", err)
	}
	return SigningKeyPairFromBytes(raw)
}

// LoadOrCreate returns the stored key, generating and sealing one only when
// no key has been stored yet. Any other load failure is returned so the
// prover identity never changes behind the operator's back.
func (s *SealedKeyStore) LoadOrCreate(ctx context.Context, logger *zap.Logger) (*SigningKeyPair, error) {
	kp, err := s.Load(ctx)
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return nil, err
	}
	logger.Info("No sealed prover key found, generating one", zap.String("secret_id", s.secretID))

	kp, err = GenerateSigningKeyPair()
	if err != nil {
		return nil, err
	}
	if err := s.Store(ctx, kp); err != nil {
		return nil, fmt.Errorf("failed to persist prover key: %w", err)
	}
	return kp, nil
}

// LoadProverKey resolves the prover attestation key for the configured source
func LoadProverKey(ctx context.Context, cfg ProverKeyConfig, logger *zap.Logger) (*SigningKeyPair, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Source {
	case KeySourceEnv:
		if cfg.PrivateKeyHex == "" {
			return nil, NewConfigurationError("PROVER_PRIVATE_KEY", "required when PROVER_KEY_SOURCE=env")
		}
		return SigningKeyPairFromHex(cfg.PrivateKeyHex)

	case KeySourceGCP:
		if cfg.ProjectID == "" || cfg.KMSKeyRing == "" || cfg.KMSKeyName == "" {
			return nil, NewConfigurationError("GOOGLE_PROJECT_ID", "project, key ring and key name are required when PROVER_KEY_SOURCE=gcp")
		}
		secrets, err := NewGCPSecretStore(ctx)
		if err != nil {
			return nil, err
		}
		defer secrets.Close()
		wrapper, err := NewGoogleKMSProvider(ctx, cfg.ProjectID, cfg.KMSLocation, cfg.KMSKeyRing, cfg.KMSKeyName)
		if err != nil {
			return nil, err
		}
		defer wrapper.Close()
		return NewSealedKeyStore(secrets, wrapper, cfg.ProjectID, cfg.SecretID).LoadOrCreate(ctx, logger)

	case KeySourceEphemeral, "":
		logger.Warn("Using an ephemeral prover key; proofs will not verify after restart")
		return GenerateSigningKeyPair()

	default:
		return nil, NewConfigurationError("PROVER_KEY_SOURCE", fmt.Sprintf("unknown source %q", cfg.Source))
	}
}

func sanitizeSecretID(id string) string {
	id = strings.ReplaceAll(id, ".", "-")
	id = strings.ReplaceAll(id, "_", "-")
	return id
}

func aesGCMOperation(key, data []byte, encrypt bool) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %v", err)
	}
	nonceSize := gcm.NonceSize()
	if encrypt {
		nonce := make([]byte, nonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %v", err)
		}
		return append(nonce, gcm.Seal(nil, nonce, data, nil)...), nil
	}
	if len(data) < nonceSize {
		return nil, errors.New("encrypted data too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
