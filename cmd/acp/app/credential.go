package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCredentialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the credential values a plugin injects",
	}
	cmd.AddCommand(
		newCredentialSetCommand(),
		newCredentialDeleteCommand(),
	)
	return cmd
}

func newCredentialSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <plugin> <field>",
		Short: "Set a credential field's value",
		Long: `Reads the value from stdin when piped, or prompts interactively with
echo disabled otherwise — the same input convention as the password prompt.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}

			value, err := readOperatorPassword()
			if err != nil {
				return fmt.Errorf("failed to read credential value: %w", err)
			}

			body := map[string]interface{}{"value": value}
			path := fmt.Sprintf("/credentials/%s/%s", args[0], args[1])
			if err := client.do(cmd.Context(), "POST", path, body, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credential set")
			return nil
		},
	}
}

func newCredentialDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plugin> <field>",
		Short: "Delete a credential field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromFlags()
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/credentials/%s/%s", args[0], args[1])
			if err := client.do(cmd.Context(), "DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credential deleted")
			return nil
		},
	}
}
