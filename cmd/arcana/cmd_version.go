package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

const clientVersion = "0.3.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and backend versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "arcana %s\n", clientVersion)

			client, err := newGatewayClient()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "backend: unavailable (%v)\n", err)
				return nil
			}
			raw, err := client.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "backend: unavailable (%v)\n", err)
				return nil
			}
			var payload struct {
				Version string `json:"version"`
			}
			if json.Unmarshal(raw, &payload) == nil && payload.Version != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "backend %s\n", payload.Version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s\n", string(raw))
			return nil
		},
	}
}
