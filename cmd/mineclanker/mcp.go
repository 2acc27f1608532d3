package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/pkg/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask and config tools to an MCP client over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc, err := a.newService()
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs already go to stderr.
			return mcpserver.New(svc, version).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
