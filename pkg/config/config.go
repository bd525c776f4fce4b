// Package config resolves the proxy daemon's runtime settings: data
// directory, listener addresses, and debug mode. Values come from flags
// bound into viper, falling back to built-in defaults. The only environment
// variable read is ACP_DATA_DIR, which takes precedence over the data-dir
// flag.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultProxyAddr      = "127.0.0.1:8080"
	defaultManagementAddr = "127.0.0.1:8443"
	defaultSecretsDirName = ".acp/secrets"
)

// Config is the resolved set of values the daemon needs to start.
type Config struct {
	// DataDir holds the secret store (when using the filesystem backend)
	// and the registry's advisory lock file.
	DataDir string
	// ProxyAddr is the address the intercepting HTTPS proxy listens on.
	ProxyAddr string
	// ManagementAddr is the address the management API listens on.
	ManagementAddr string
	// Debug enables verbose logging.
	Debug bool
}

// Load resolves a Config from viper, which callers are expected to have
// already bound to command-line flags via BindFlags.
func Load() (*Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:        dataDir,
		ProxyAddr:      stringOrDefault("proxy-addr", defaultProxyAddr),
		ManagementAddr: stringOrDefault("management-addr", defaultManagementAddr),
		Debug:          viper.GetBool("debug"),
	}, nil
}

func stringOrDefault(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// BindFlags registers the daemon's flags on flags and binds them into viper,
// so Load can read the flag values. The flags have no environment bindings.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("proxy-addr", defaultProxyAddr, "address the credential-injecting proxy listens on")
	flags.String("management-addr", defaultManagementAddr, "address the management API listens on")
	flags.String("data-dir", "", "directory for the filesystem secret store and registry lock (default: $ACP_DATA_DIR or ~/.acp/secrets)")
	flags.Bool("debug", false, "enable debug logging")

	for _, name := range []string{"proxy-addr", "management-addr", "data-dir", "debug"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// resolveDataDir picks ACP_DATA_DIR, then the data-dir flag, then the
// default ~/.acp/secrets under $HOME/$USERPROFILE.
func resolveDataDir() (string, error) {
	if dir := os.Getenv("ACP_DATA_DIR"); dir != "" {
		return dir, nil
	}
	if dir := viper.GetString("data-dir"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultSecretsDirName), nil
}
