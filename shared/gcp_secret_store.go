package shared

import (
	"context"
	"errors"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrSecretNotFound is returned by SecretStore.AccessLatest when the secret
// or its latest version does not exist
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore is the subset of Secret Manager the prover key store needs
type SecretStore interface {
	CreateIfNotExists(ctx context.Context, projectID, secretID string) error
	AddVersion(ctx context.Context, projectID, secretID string, payload []byte) error
	AccessLatest(ctx context.Context, projectID, secretID string) ([]byte, error)
}

// GCPSecretStore implements SecretStore on Google Secret Manager
type GCPSecretStore struct {
	client *secretmanager.Client
}

// NewGCPSecretStore connects to Secret Manager with application default credentials
func NewGCPSecretStore(ctx context.Context) (*GCPSecretStore, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %v", err)
	}
	return &GCPSecretStore{client: c}, nil
}

func (g *GCPSecretStore) CreateIfNotExists(ctx context.Context, projectID, secretID string) error {
	_, err := g.client.CreateSecret(ctx, &secretspb.CreateSecretRequest{
		Parent:   fmt.Sprintf("projects/%s", projectID),
		SecretId: secretID,
		Secret: &secretspb.Secret{
			Replication: &secretspb.Replication{Replication: &secretspb.Replication_Automatic_{}},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to create secret %s: %w", secretID, err)
	}
	return nil
}

func (g *GCPSecretStore) AddVersion(ctx context.Context, projectID, secretID string, payload []byte) error {
	_, err := g.client.AddSecretVersion(ctx, &secretspb.AddSecretVersionRequest{
		Parent:  fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID),
		Payload: &secretspb.SecretPayload{Data: payload},
	})
	return err
}

func (g *GCPSecretStore) AccessLatest(ctx context.Context, projectID, secretID string) ([]byte, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretID),
	})
	if err != nil {
		return nil, mapSecretError(err)
	}
	return resp.Payload.GetData(), nil
}

// Close releases the underlying gRPC connection
func (g *GCPSecretStore) Close() error {
	return g.client.Close()
}

func mapSecretError(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %v", ErrSecretNotFound, err)
	}
	return err
}
