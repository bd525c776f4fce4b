// Package keyring wraps the platform credential store (macOS Keychain,
// Windows Credential Manager, a Secret Service / D-Bus backend on Linux)
// behind a small Provider interface so the secrets package can swap it out
// in tests.
package keyring

import (
	"errors"

	zkeyring "github.com/zalando/go-keyring"
)

// ErrNotFound is returned by Get when no item exists for the given
// service/key pair.
var ErrNotFound = errors.New("keyring: item not found")

// Provider abstracts a platform credential store.
type Provider interface {
	// Name identifies the backend, e.g. "zalando".
	Name() string
	// IsAvailable reports whether the backend can be reached on this host.
	IsAvailable() bool
	// Set stores value under service/key, overwriting any existing entry.
	Set(service, key, value string) error
	// Get returns the value stored under service/key, or ErrNotFound.
	Get(service, key string) (string, error)
	// Delete removes the entry at service/key. Deleting a missing entry is
	// not an error.
	Delete(service, key string) error
	// DeleteAll removes every entry under service, where supported.
	DeleteAll(service string) error
}

// ZalandoKeyringProvider implements Provider atop github.com/zalando/go-keyring.
type ZalandoKeyringProvider struct{}

// NewZalandoKeyringProvider returns a Provider backed by the OS credential
// store via zalando/go-keyring.
func NewZalandoKeyringProvider() *ZalandoKeyringProvider {
	return &ZalandoKeyringProvider{}
}

// Name implements Provider.
func (*ZalandoKeyringProvider) Name() string { return "zalando" }

// IsAvailable implements Provider by probing the backend with a throwaway
// round-trip.
func (p *ZalandoKeyringProvider) IsAvailable() bool {
	const probeService = "acp-availability-probe"
	const probeKey = "probe"

	if err := zkeyring.Set(probeService, probeKey, "probe"); err != nil {
		return false
	}
	_ = zkeyring.Delete(probeService, probeKey)
	return true
}

// Set implements Provider. It deletes any existing item first, since several
// platform backends (notably macOS Keychain) return a duplicate-item error
// on Set over an existing entry rather than overwriting it.
func (*ZalandoKeyringProvider) Set(service, key, value string) error {
	_ = zkeyring.Delete(service, key)
	return zkeyring.Set(service, key, value)
}

// Get implements Provider.
func (*ZalandoKeyringProvider) Get(service, key string) (string, error) {
	value, err := zkeyring.Get(service, key)
	if err != nil {
		if errors.Is(err, zkeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Delete implements Provider, treating a missing entry as success.
func (*ZalandoKeyringProvider) Delete(service, key string) error {
	err := zkeyring.Delete(service, key)
	if err != nil && !errors.Is(err, zkeyring.ErrNotFound) {
		return err
	}
	return nil
}

// DeleteAll implements Provider. It removes every item stored under service
// through go-keyring's DeleteAll, treating a not-found result as success.
// secrets.KeychainStore does not call it.
func (*ZalandoKeyringProvider) DeleteAll(service string) error {
	err := zkeyring.DeleteAll(service)
	if err != nil && !errors.Is(err, zkeyring.ErrNotFound) {
		return err
	}
	return nil
}
