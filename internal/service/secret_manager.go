package service

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService reads deployment secrets such as the model API key.
type SecretManagerService interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, projectID string, opts ...option.ClientOption) (SecretManagerService, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerService{client: client, projectID: projectID}, nil
}

// GetSecret returns the latest version of the named secret.
func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name),
	}
	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// ResolveModelAPIKey prefers an explicitly configured key and falls back to
// the named secret.
func ResolveModelAPIKey(ctx context.Context, apiKey, secretName string, secrets SecretManagerService) (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}
	if secretName == "" || secrets == nil {
		return "", fmt.Errorf("model API key is not configured")
	}
	key, err := secrets.GetSecret(ctx, secretName)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("secret %s is empty", secretName)
	}
	return key, nil
}
