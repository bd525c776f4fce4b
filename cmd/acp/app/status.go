package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the server has been initialized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := newAPIClient(viper.GetString("server"), "")
			var status map[string]bool
			if err := client.do(cmd.Context(), "GET", "/status", nil, &status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized: %v\n", status["initialized"])
			return nil
		},
	}
}
