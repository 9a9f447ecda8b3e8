package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/dashboard"
)

func newExportCmd() *cobra.Command {
	var (
		filters visitFilterFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered visits as CSV",
		Long: `Export every visit matching the filters as CSV, newest visit code first.

Writes to ` + dashboard.ExportFilename + ` unless -o is given; use -o - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filters.query()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if err := newAPIClient().ExportVisits(cmd.Context(), q, w); err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", dashboard.ExportFilename, "output file")

	return cmd
}
