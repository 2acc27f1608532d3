package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/cmd/mineclanker/internal/styles"
	"github.com/ftkevon/mineclanker/pkg/commands"
)

func newConsoleCmd(a *app) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Type chat commands in the terminal (try /help)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc, err := a.newService()
			if err != nil {
				return err
			}

			disp := commands.New(svc, commands.Options{Context: ctx, Logger: a.log})

			return runConsole(ctx, disp, player, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&player, "player", "console", "player name used for rate limiting and logs")

	return cmd
}

// termSink prints replies as they arrive.
type termSink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *termSink) Send(r commands.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, styles.RenderReply(r))
}

// runConsole reads one command per line until EOF, "exit" or ctx is done.
// Lines without a leading slash are treated as questions.
func runConsole(ctx context.Context, h commandHandler, player string, in io.Reader, out io.Writer) error {
	sink := &termSink{out: out}
	sink.Send(commands.Reply{Level: commands.LevelInfo, Text: "MineClanker console. /help lists commands, exit quits."})

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, _ = fmt.Fprint(out, styles.PromptStyle.Render("> "))

		var line string
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				_, _ = fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case !strings.HasPrefix(line, "/"):
			line = "/ask " + line
		}

		h.Handle(player, line, sink)
	}
}

// commandHandler is satisfied by *commands.Dispatcher.
type commandHandler interface {
	Handle(player, line string, sink commands.Sink)
}
