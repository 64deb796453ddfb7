// Package secretconf provides secret sources for the riskconf package. The
// primary implementation resolves named secrets through AWS Secrets Manager;
// Static serves secrets from memory for tests and local development.
// Resolved values are never persisted and every backend failure is wrapped
// in riskconf.SecretError with the original cause preserved.
package secretconf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/judejinjin/riskconf"
)

// Client is the subset of the Secrets Manager API used by the source.
type Client interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager resolves named secrets through AWS Secrets Manager. Secret
// payloads must be JSON objects of string keys and values, the layout the
// platform stores credential bundles in. It implements
// riskconf.SecretSource.
type SecretsManager struct {
	client Client
}

// New creates a new source instance around a Secrets Manager client.
func New(client Client) *SecretsManager {
	return &SecretsManager{
		client: client,
	}
}

// NewFromConfig creates a new source instance from a resolved aws.Config.
func NewFromConfig(cfg aws.Config) *SecretsManager {
	return New(secretsmanager.NewFromConfig(cfg))
}

// Fetch retrieves and decodes one named secret.
func (s *SecretsManager) Fetch(ctx context.Context, name string) (map[string]string, error) {
	out, err := s.client.GetSecretValue(ctx,
		&secretsmanager.GetSecretValueInput{
			SecretId: aws.String(name),
		},
	)

	if err != nil {
		return nil, &riskconf.SecretError{Name: name, Err: err}
	}

	var payload []byte

	switch {
	case out.SecretString != nil:
		payload = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		payload = out.SecretBinary
	default:
		return nil, &riskconf.SecretError{Name: name, Err: errors.New("secret has no value")}
	}

	values := make(map[string]string)

	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, &riskconf.SecretError{
			Name: name,
			Err:  fmt.Errorf("secret payload is not a JSON object of strings: %w", err),
		}
	}

	return values, nil
}

// Static serves secrets from an in-memory map, keyed by secret name.
type Static map[string]map[string]string

// Fetch returns a copy of the named secret.
func (s Static) Fetch(_ context.Context, name string) (map[string]string, error) {
	values, ok := s[name]

	if !ok {
		return nil, &riskconf.SecretError{Name: name, Err: errors.New("secret not found")}
	}

	out := make(map[string]string, len(values))

	for key, value := range values {
		out[key] = value
	}

	return out, nil
}
