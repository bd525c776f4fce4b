package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage transform plugins",
	}
	cmd.AddCommand(
		newPluginInstallCommand(),
		newPluginListCommand(),
		newPluginDeleteCommand(),
	)
	return cmd
}

func newPluginInstallCommand() *cobra.Command {
	var codePath string
	cmd := &cobra.Command{
		Use:   "install <name>",
		Short: "Install or replace a transform plugin from a JavaScript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}

			code, err := os.ReadFile(codePath)
			if err != nil {
				return fmt.Errorf("failed to read plugin file %s: %w", codePath, err)
			}

			var entry struct {
				Name             string   `json:"name"`
				Hosts            []string `json:"hosts"`
				CredentialSchema []string `json:"credential_schema"`
			}
			body := map[string]interface{}{"code": string(code)}
			if err := client.do(cmd.Context(), "POST", "/plugins/"+args[0], body, &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s, matches %v, needs credentials %v\n",
				entry.Name, entry.Hosts, entry.CredentialSchema)
			return nil
		},
	}
	cmd.Flags().StringVar(&codePath, "file", "", "path to the plugin's JavaScript source")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPluginListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}

			var plugins []struct {
				Name  string   `json:"name"`
				Hosts []string `json:"hosts"`
			}
			if err := client.do(cmd.Context(), "GET", "/plugins", nil, &plugins); err != nil {
				return err
			}
			for _, p := range plugins {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", p.Name, p.Hosts)
			}
			return nil
		},
	}
}

func newPluginDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}
			if err := client.do(cmd.Context(), "DELETE", "/plugins/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "plugin deleted")
			return nil
		},
	}
}
