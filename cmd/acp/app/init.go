package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set the operator password on a fresh server",
		Long: `init sets the server's operator password. It can only be run once;
a server that is already initialized refuses a second init with a conflict
error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readOperatorPassword()
			if err != nil {
				return err
			}
			client := newAPIClient(viper.GetString("server"), password)

			if err := client.do(cmd.Context(), "POST", "/init", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "server initialized")
			return nil
		},
	}
}
