package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escpos-go/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd(cfgFile, logLevel *string) *cobra.Command {
	var address, metricsAddress string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Relay raw print streams from TCP clients to the configured printer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closer, err := setup(*cfgFile, *logLevel)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cmd.Flags().Changed("address") {
				cfg.Server.Address = address
			}
			if cmd.Flags().Changed("metrics-address") {
				cfg.Server.MetricsAddress = metricsAddress
			}

			t, err := openTransport(cfg.Transport, log)
			if err != nil {
				log.Error("failed to open transport", "kind", cfg.Transport.Kind, "err", err)
				return err
			}

			srv := server.New(t, cfg.Server.Address,
				server.WithLogger(log),
				server.WithMetricsAddress(cfg.Server.MetricsAddress),
			)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "relay listen address (overrides server.address)")
	cmd.Flags().StringVar(&metricsAddress, "metrics-address", "", "serve /metrics on this address (overrides server.metrics_address)")

	return cmd
}
