package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixxel-company-limited/escpos-go/internal/config"
	"github.com/nixxel-company-limited/escpos-go/receipt"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [job.yaml...]",
		Short: "Validate the configuration and, optionally, receipt jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid:\n")
			fmt.Fprintf(out, "  Transport: %s\n", cfg.Transport.Kind)
			fmt.Fprintf(out, "  Relay:     %s\n", cfg.Server.Address)

			for _, path := range args {
				job, err := receipt.Load(path)
				if err != nil {
					return fmt.Errorf("job error: %w", err)
				}
				fmt.Fprintf(out, "Job %s valid: %d steps\n", path, len(job.Steps))
			}
			return nil
		},
	}
}
