package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/visit"
)

func newExpensesCmd() *cobra.Command {
	var (
		category string
		page     int
		perPage  int
	)

	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List trip expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c visit.Category
			if category != "" {
				var err error
				if c, err = visit.ParseCategory(category); err != nil {
					return err
				}
			}

			resp, err := newAPIClient().ListExpenses(cmd.Context(), c, page, perPage)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if err := printExpenseTable(cmd.OutOrStdout(), resp.Expenses, resp.Summary); err != nil {
				return err
			}
			if resp.TotalPages > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d\n", resp.Page, resp.TotalPages)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (sales|placement)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "expenses per page (default 11)")

	return cmd
}

func newExpenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record trip expenses",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newExpenseAddCmd())
	return cmd
}

func newExpenseAddCmd() *cobra.Command {
	var (
		in       expense.Input
		category string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a trip, split evenly across the organizations visited",
		Long: `Record a trip's allocated and spent amounts. A trip covering several
organizations is stored as one expense per organization with the amounts
divided evenly.

Example:
  tm expense add --org Acme --org Globex --type Lead --allocated 2000 --spent 1800 --fuel 600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := visit.ParseCategory(category)
			if err != nil {
				return err
			}
			in.Category = c
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %s (use YYYY-MM-DD)", date)
				}
				in.Date = d
			}

			added, err := newAPIClient().AddExpense(cmd.Context(), in)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), added)
			}
			for _, e := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "Expense recorded: %s\n", e.String())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&category, "category", "c", string(visit.Sales), "category (sales|placement)")
	f.StringSliceVar(&in.Organizations, "org", nil, "organization visited (repeatable)")
	f.StringVar(&in.VisitType, "type", "", "visit type")
	f.Float64Var(&in.AllocatedAmount, "allocated", 0, "allocated amount")
	f.Float64Var(&in.SpentAmount, "spent", 0, "spent amount")
	f.Float64Var(&in.Food, "food", 0, "food spend")
	f.Float64Var(&in.Fuel, "fuel", 0, "fuel spend")
	f.Float64Var(&in.Stay, "stay", 0, "stay spend")
	f.Float64Var(&in.Toll, "toll", 0, "toll spend")
	f.StringVar(&in.Remarks, "remarks", "", "remarks")
	f.StringVar(&date, "date", "", "trip date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
