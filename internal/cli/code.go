package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/visit"
)

func newCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Inspect visit codes",
		Args:  cobra.NoArgs,
	}

	var category string
	next := &cobra.Command{
		Use:   "next",
		Short: "Preview the next visit code without reserving it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := visit.ParseCategory(category)
			if err != nil {
				return err
			}
			code, err := newAPIClient().NextCode(cmd.Context(), c)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"category": string(c), "visitCode": code})
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	next.Flags().StringVarP(&category, "category", "c", string(visit.Sales), "visit category (sales|placement)")

	cmd.AddCommand(next)
	return cmd
}
