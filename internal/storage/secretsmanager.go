package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"golang.org/x/oauth2"
)

// SecretsManagerAPI defines the Secrets Manager operations used by the token store.
type SecretsManagerAPI interface {
	// GetSecretValue retrieves a secret value.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)

	// PutSecretValue stores a secret value.
	PutSecretValue(
		ctx context.Context,
		params *secretsmanager.PutSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.PutSecretValueOutput, error)
}

// SecretTokenStore keeps the OAuth token as a JSON secret in AWS Secrets Manager.
// Used by Lambda deployments, where no writable credential cache file survives between runs.
type SecretTokenStore struct {
	// client is the Secrets Manager API client.
	client SecretsManagerAPI

	// secretARN is the ARN of the secret holding the token.
	secretARN string
}

// Token returns the token stored in the secret.
func (s *SecretTokenStore) Token(ctx context.Context) (*oauth2.Token, error) {
	output, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("getting secret from Secrets Manager: %w", err)
	}

	if output.SecretString == nil {
		return nil, errors.New("secret has no string value")
	}

	token, err := decodeToken([]byte(*output.SecretString))
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", s.secretARN, err)
	}

	return token, nil
}

// SaveToken stores the token as a new secret version.
func (s *SecretTokenStore) SaveToken(ctx context.Context, token *oauth2.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.secretARN),
		SecretString: aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("putting secret to Secrets Manager: %w", err)
	}

	return nil
}

// NewSecretTokenStore creates a Secrets Manager backed token store.
func NewSecretTokenStore(client SecretsManagerAPI, secretARN string) (*SecretTokenStore, error) {
	if client == nil {
		return nil, errors.New("secrets manager client is required")
	}
	if secretARN == "" {
		return nil, errors.New("secret ARN is required")
	}

	return &SecretTokenStore{
		client:    client,
		secretARN: secretARN,
	}, nil
}
