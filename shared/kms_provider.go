package shared

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
)

// KeyWrapper wraps and unwraps data keys. Implementations MUST NOT persist
// plaintext keys.
type KeyWrapper interface {
	Wrap(ctx context.Context, plaintext []byte) ([]byte, error)
	Unwrap(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// GoogleKMSProvider implements KeyWrapper using Google Cloud KMS
type GoogleKMSProvider struct {
	kmsClient   *kms.KeyManagementClient
	keyResource string
}

// NewGoogleKMSProvider initializes a GoogleKMSProvider
func NewGoogleKMSProvider(ctx context.Context, projectID, location, keyRing, keyName string) (*GoogleKMSProvider, error) {
	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP KMS client: %v", err)
	}
	keyResource := fmt.Sprintf("projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s", projectID, location, keyRing, keyName)
	return &GoogleKMSProvider{kmsClient: client, keyResource: keyResource}, nil
}

func (p *GoogleKMSProvider) Wrap(ctx context.Context, plaintext []byte) ([]byte, error) {
	resp, err := p.kmsClient.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      p.keyResource,
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("gcp kms Encrypt failed: %v", err)
	}
	return resp.Ciphertext, nil
}

func (p *GoogleKMSProvider) Unwrap(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("missing wrapped data key for decryption")
	}
	resp, err := p.kmsClient.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       p.keyResource,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("gcp kms Decrypt failed: %v", err)
	}
	return resp.Plaintext, nil
}

// Close releases the underlying gRPC connection
func (p *GoogleKMSProvider) Close() error {
	return p.kmsClient.Close()
}
