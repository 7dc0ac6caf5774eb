package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escpos-go/printer"
	"github.com/nixxel-company-limited/escpos-go/receipt"
)

// NewPrintCmd creates the print command.
func NewPrintCmd(cfgFile, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "print <job.yaml>",
		Short: "Print a YAML receipt job on the configured printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd.Context(), *cfgFile, *logLevel, args[0])
		},
	}
}

func runPrint(ctx context.Context, cfgFile, logLevel, jobPath string) (err error) {
	cfg, log, closer, err := setup(cfgFile, logLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	job, err := receipt.Load(jobPath)
	if err != nil {
		return err
	}

	t, err := openTransport(cfg.Transport, log)
	if err != nil {
		log.Error("failed to open transport", "kind", cfg.Transport.Kind, "err", err)
		return err
	}

	p, err := printer.Open(t, printer.WithLogger(log))
	if err != nil {
		t.Close()
		return err
	}
	defer func() {
		err = errors.Join(err, p.Close())
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("printing job", "job", job.Name, "steps", len(job.Steps), "transport", cfg.Transport.Kind)
	if err := receipt.Run(ctx, p, job); err != nil {
		log.Error("job failed", "job", job.Name, "err", err)
		return fmt.Errorf("job %s: %w", jobPath, err)
	}
	if err := p.Flush(); err != nil {
		return err
	}
	log.Info("job printed", "job", job.Name)
	return nil
}
