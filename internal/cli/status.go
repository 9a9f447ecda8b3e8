package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the server",
		Long:  "Prints the configured server URL and checks that it answers /health.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, cmd.OutOrStdout())
		},
	}
}

func runStatus(cmd *cobra.Command, out io.Writer) error {
	serverURL := getServerURL()
	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	if err := newAPIClient().Health(cmd.Context()); err != nil {
		fmt.Fprintf(out, "Status:  ✗ %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "Status:  ✓ connected")
	return nil
}
