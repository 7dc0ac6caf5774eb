package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escpos-go/internal/config"
	"github.com/nixxel-company-limited/escpos-go/internal/logging"
)

// Execute builds and runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the escpos command tree.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "escpos",
		Short: "Drive ESC/POS receipt printers",
		Long: `escpos prints receipt jobs on ESC/POS thermal printers and relays raw
print streams to them.

Printers are reached through one of four transports: console (stdout), a file
or device node, a TCP connection (usually port 9100) or USB.

Settings come from defaults, then an optional YAML config file (./escpos.yaml
unless --config is given), then ESCPOS_* environment variables.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./escpos.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		NewPrintCmd(&cfgFile, &logLevel),
		NewServeCmd(&cfgFile, &logLevel),
		NewValidateCmd(&cfgFile),
		NewVersionCmd(),
	)

	return rootCmd
}

// setup loads the configuration and builds the logger. A non-empty
// logLevel overrides the configured level.
func setup(cfgFile, logLevel string) (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, closer := logging.New(cfg.Log)
	return cfg, log, closer, nil
}
