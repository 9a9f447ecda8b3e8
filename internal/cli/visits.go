package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/client"
	"github.com/evcraddock/trackmate/internal/visit"
)

// visitFilterFlags holds the dashboard filter flags shared by visits and export.
type visitFilterFlags struct {
	category string
	cities   []string
	from     string
	to       string
	months   []int
}

func (f *visitFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", string(visit.Sales), "visit category (sales|placement)")
	cmd.Flags().StringSliceVar(&f.cities, "city", nil, "only these cities (repeatable or comma-separated)")
	cmd.Flags().StringVar(&f.from, "from", "", "earliest visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "latest visit date (YYYY-MM-DD)")
	cmd.Flags().IntSliceVar(&f.months, "month", nil, "only these months, 1-12 (repeatable or comma-separated)")
}

func (f *visitFilterFlags) query() (client.VisitQuery, error) {
	c, err := visit.ParseCategory(f.category)
	if err != nil {
		return client.VisitQuery{}, err
	}
	for _, m := range f.months {
		if m < 1 || m > 12 {
			return client.VisitQuery{}, fmt.Errorf("invalid month: %d (must be 1-12)", m)
		}
	}
	return client.VisitQuery{
		Category: c,
		Cities:   f.cities,
		From:     strings.TrimSpace(f.from),
		To:       strings.TrimSpace(f.to),
		Months:   f.months,
	}, nil
}

func newVisitsCmd() *cobra.Command {
	var (
		filters visitFilterFlags
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "visits",
		Short: "Show the visit dashboard",
		Long: `Show one page of visits, newest visit code first, with the dashboard counts.

Examples:
  tm visits
  tm visits --category placement --city pune --month 3
  tm visits --from 2025-01-01 --to 2025-03-31 --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filters.query()
			if err != nil {
				return err
			}
			q.Page = page
			q.PerPage = perPage

			resp, err := newAPIClient().ListVisits(cmd.Context(), q)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printVisitTable(cmd.OutOrStdout(), resp)
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "visits per page (default 10)")

	return cmd
}
