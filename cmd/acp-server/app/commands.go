// Package app provides the entry point for the acp-server daemon.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/acp/pkg/config"
	"github.com/stacklok/acp/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "acp-server",
	DisableAutoGenTag: true,
	Short:             "acp-server runs the Agent Credential Proxy daemon",
	Long: `acp-server runs the Agent Credential Proxy: a forward proxy that injects
per-service credentials into outbound agent traffic via sandboxed transform
plugins, and a local management API for installing plugins and provisioning
agent bearer tokens.`,
	RunE: runServe,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize(viper.GetBool("debug"))
	},
}

// NewRootCmd creates the root command for the acp-server daemon.
func NewRootCmd() *cobra.Command {
	config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.SilenceUsage = true
	return rootCmd
}
