package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/cmd/mineclanker/internal/styles"
)

func newAskCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc, err := a.newService()
			if err != nil {
				return err
			}

			answer, err := svc.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if !raw {
				answer = styles.RenderMarkdown(answer)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(answer, "\n"))
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer without markdown rendering")

	return cmd
}
