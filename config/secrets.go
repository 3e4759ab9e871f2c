package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore abstracts where deployment secrets come from so the server can
// swap the environment for a managed secret backend without code changes.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not set", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// LoadSecretsFromEnv overlays sensitive values from the environment secret
// store. Called for production deployments after the regular config load.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "LINGOKIT_SQL_DSN", c.Storage.SQL.DSN)
	c.Storage.Redis.Password = store.GetWithDefault(ctx, "LINGOKIT_REDIS_PASSWORD", c.Storage.Redis.Password)
	return nil
}
