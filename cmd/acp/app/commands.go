// Package app provides the entry point for the acp operator CLI: a thin
// HTTP client against the acp-server management API (pkg/api).
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/acp/pkg/logger"
)

const defaultManagementURL = "http://127.0.0.1:8443"

var rootCmd = &cobra.Command{
	Use:               "acp",
	DisableAutoGenTag: true,
	Short:             "acp is the operator CLI for the Agent Credential Proxy",
	Long: `acp talks to a running acp-server's management API to initialize the
server, install transform plugins, and provision bearer tokens and
credentials for agents.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize(viper.GetBool("debug"))
	},
}

// NewRootCmd creates the root command for the acp operator CLI.
func NewRootCmd() *cobra.Command {
	flags := rootCmd.PersistentFlags()
	flags.String("server", defaultManagementURL, "base URL of the acp-server management API")
	flags.Bool("debug", false, "enable debug logging")

	for _, name := range []string{"server", "debug"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newStatusCommand(),
		newInitCommand(),
		newTokenCommand(),
		newPluginCommand(),
		newCredentialCommand(),
	)

	rootCmd.SilenceUsage = true
	return rootCmd
}

func newClientFromFlags() (*apiClient, error) {
	server := viper.GetString("server")
	password, err := readOperatorPassword()
	if err != nil {
		return nil, err
	}
	return newAPIClient(server, password), nil
}
