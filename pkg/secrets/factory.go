package secrets

import (
	"os"
	"path/filepath"
	"runtime"

	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/secrets/keyring"
)

const defaultSecretsDirName = ".acp/secrets"

// NewDefaultStore selects a backend per the environment-override rules:
// ACP_DATA_DIR, when set, forces the filesystem backend rooted there
// regardless of platform. Otherwise, on a platform with a reachable OS
// keychain, that backend is preferred; everywhere else (or when the
// keychain is unavailable) the filesystem backend is used at
// ~/.acp/secrets, with HOME/USERPROFILE determining the home directory.
func NewDefaultStore() (Store, error) {
	if dir := os.Getenv("ACP_DATA_DIR"); dir != "" {
		return NewFileStore(dir)
	}

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		provider := keyring.NewZalandoKeyringProvider()
		if provider.IsAvailable() {
			return NewKeychainStore(provider), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, acperrors.NewStorageError("failed to determine home directory", err)
	}
	return NewFileStore(filepath.Join(home, defaultSecretsDirName))
}
