package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables, primarily for CI and backward compatibility with the
// WORKPLACE_* variables.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv("WORKPLACE_ACCESS_TOKEN")
	if token == "" {
		token = os.Getenv("WORKPLACE_TOKEN")
	}
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		AccessToken:  token,
		TenantID:     os.Getenv("WORKPLACE_TENANT_ID"),
		APIVersion:   os.Getenv("WORKPLACE_GRAPH_API_VERSION"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("WORKPLACE_ACCESS_TOKEN") != "" || os.Getenv("WORKPLACE_TOKEN") != ""
}
