package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/goquad"
	"github.com/njchilds90/goquad/internal/metrics"
	"github.com/njchilds90/goquad/internal/server"
	"github.com/njchilds90/goquad/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the integration API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			shutdownTracing, err := telemetry.Init(cmd.Context(), a.cfg.Tracing, version, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					a.logger.Warn("tracing shutdown failed", zap.Error(err))
				}
			}()

			var (
				m    *metrics.Metrics
				opts []goquad.Option
			)
			if a.cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				m = metrics.New(reg, a.cfg.Metrics.Namespace)
				opts = append(opts, goquad.WithObserver(m))
			}

			srv := server.New(a.cfg, a.coordinator(opts...), a.logger, m)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("goquad API starting",
				zap.String("addr", a.cfg.Server.Addr),
				zap.Bool("metrics", m != nil),
				zap.String("tracing", a.cfg.Tracing.Exporter),
				zap.Int("max_n", a.cfg.Engine.MaxN),
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
