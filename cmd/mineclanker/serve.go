package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ftkevon/mineclanker/pkg/bridge"
	"github.com/ftkevon/mineclanker/pkg/commands"
	"github.com/ftkevon/mineclanker/pkg/metrics"
	"github.com/ftkevon/mineclanker/pkg/worker"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket bridge for the game-side mod",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Bridge.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides bridge.addr)")

	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := a.newService()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNew(reg)

	pool := worker.New(ctx, worker.Options{
		Workers:   a.cfg.Workers.Count,
		QueueSize: a.cfg.Workers.Queue,
		Logger:    a.log,
		Observer:  m,
	})
	defer func() { _ = pool.Close() }()

	disp := commands.New(svc, commands.Options{
		Pool:          pool,
		AsksPerMinute: a.cfg.RateLimit.AsksPerMinute,
		Burst:         a.cfg.RateLimit.Burst,
		Metrics:       m,
		Logger:        a.log,
	})

	a.log.Info("mineclanker ready",
		"model", svc.Model(),
		"settings", a.cfg.SettingsPath,
		"api_key_set", svc.HasAPIKey(),
	)

	return bridge.New(disp, bridge.Options{
		Addr:     a.cfg.Bridge.Addr,
		Registry: reg,
		Logger:   a.log,
	}).Run(ctx)
}
