package secrets

import (
	"context"
	"errors"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/secrets/keyring"
)

// keychainService is the fixed service name every key is stored under in the
// platform credential store. Individual secret-store keys become the
// per-item "account"/"user" field within that service.
const keychainService = "com.stacklok.acp"

// KeychainStore persists keys in the platform credential store (macOS
// Keychain, Windows Credential Manager, a Secret Service backend on Linux).
// It has no enumeration primitive, which is why the registry (C2) exists:
// this backend is value-only.
type KeychainStore struct {
	provider keyring.Provider
}

// NewKeychainStore wraps provider as a Store.
func NewKeychainStore(provider keyring.Provider) *KeychainStore {
	return &KeychainStore{provider: provider}
}

// Set implements Store. It performs delete-then-insert, since some backends
// (notably macOS Keychain) error on Set over an existing item instead of
// overwriting it.
func (s *KeychainStore) Set(_ context.Context, key string, value []byte) error {
	if err := s.provider.Set(keychainService, key, string(value)); err != nil {
		return acperrors.NewStorageError("failed to write secret to keychain", err)
	}
	return nil
}

// Get implements Store, mapping "item not found" to absent rather than an
// error.
func (s *KeychainStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.provider.Get(keychainService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, acperrors.NewStorageError("failed to read secret from keychain", err)
	}
	return []byte(value), true, nil
}

// Delete implements Store. Deleting an absent key is not an error.
func (s *KeychainStore) Delete(_ context.Context, key string) error {
	if err := s.provider.Delete(keychainService, key); err != nil {
		return acperrors.NewStorageError("failed to delete secret from keychain", err)
	}
	return nil
}
