package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/aquamind/internal/infra/telemetry"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := root.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if conf.Server.EnableTrace {
				shutdown, err := telemetry.SetupTracer(ctx, conf.Server.TraceEndpoint, version)
				if err != nil {
					return err
				}
				defer shutdown(context.Background())
			}

			a, err := build(ctx, conf)
			if err != nil {
				return err
			}
			defer a.close()

			errc := make(chan error, 1)
			go func() {
				slog.Info(
					"server starting",
					slog.String("addr", conf.Server.Addr),
					slog.String("storage", conf.Server.Storage),
					slog.String("version", version),
					slog.String("module", "main"),
				)
				errc <- a.echo.Start(conf.Server.Addr)
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down", slog.String("module", "main"))
			// close observers first so realtime handlers return
			a.hub.Close()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return a.echo.Shutdown(shutdownCtx)
		},
	}
}
