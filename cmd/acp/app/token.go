package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage agent bearer tokens",
	}
	cmd.AddCommand(
		newTokenCreateCommand(),
		newTokenListCommand(),
		newTokenDeleteCommand(),
	)
	return cmd
}

func newTokenCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Provision a new bearer token for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}

			var token struct {
				TokenValue string `json:"TokenValue"`
				Name       string `json:"Name"`
			}
			body := map[string]interface{}{"name": args[0]}
			if err := client.do(cmd.Context(), "POST", "/tokens/create", body, &token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", token.Name, token.TokenValue)
			return nil
		},
	}
}

func newTokenListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List provisioned tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}

			var tokens []struct {
				TokenValue string `json:"TokenValue"`
				Name       string `json:"Name"`
			}
			if err := client.do(cmd.Context(), "GET", "/tokens", nil, &tokens); err != nil {
				return err
			}
			for _, t := range tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Name, t.TokenValue)
			}
			return nil
		},
	}
}

func newTokenDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <value>",
		Short: "Revoke a bearer token by its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}
			if err := client.do(cmd.Context(), "DELETE", "/tokens/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token deleted")
			return nil
		},
	}
}

