package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/trackmate/internal/client"
	"github.com/evcraddock/trackmate/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Record or show a single visit",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newVisitAddCmd(), newVisitShowCmd())
	return cmd
}

func newVisitAddCmd() *cobra.Command {
	var (
		in                              client.VisitInput
		category                        string
		students, contract, ratePerHead string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a visit",
		Long: `Record a visit. The server assigns the next visit code for the category.

Phases: Lead, Follow Up - I .. Follow Up - VIII, Closure

Examples:
  tm visit add --org "Acme College" --city Pune --phase Lead
  tm visit add --category placement --org Globex --city Delhi --phase "Follow Up - II" --rep Asha`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := visit.ParseCategory(category)
			if err != nil {
				return err
			}
			in.Category = c
			if in.StudentCount, err = parseAmountFlag("students", students); err != nil {
				return err
			}
			if in.TotalContractValue, err = parseAmountFlag("contract", contract); err != nil {
				return err
			}
			if in.PerStudentRate, err = parseAmountFlag("rate", ratePerHead); err != nil {
				return err
			}

			v, err := newAPIClient().AddVisit(cmd.Context(), in)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Visit recorded: %s %s (%s)\n", v.VisitCode, v.Organization, v.VisitPhase)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&category, "category", "c", string(visit.Sales), "visit category (sales|placement)")
	f.StringVar(&in.Organization, "org", "", "college or company name")
	f.StringVar(&in.City, "city", "", "city")
	f.StringVar(&in.State, "state", "", "state")
	f.StringVar(&in.VisitPhase, "phase", "", "visit phase")
	f.StringVar(&in.DateTime, "date", "", "visit timestamp (default now)")
	f.StringVar(&in.ContactName, "contact", "", "contact name")
	f.StringVar(&in.ContactDesignation, "designation", "", "contact designation")
	f.StringVar(&in.ContactNumber, "phone", "", "contact phone number")
	f.StringVar(&in.ContactEmail, "email", "", "contact email")
	f.StringVar(&in.Representative, "rep", "", "representative who made the visit")
	f.StringVar(&in.VisitPurpose, "purpose", "", "purpose of the visit")
	f.StringVar(&in.Courses, "courses", "", "courses discussed")
	f.StringVar(&students, "students", "", "student count")
	f.StringVar(&contract, "contract", "", "total contract value")
	f.StringVar(&ratePerHead, "rate", "", "per-student rate")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("phase")

	return cmd
}

// parseAmountFlag turns an optional numeric flag into an Amount; empty means null.
func parseAmountFlag(name, s string) (visit.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return visit.Amount{}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return visit.Amount{}, fmt.Errorf("invalid --%s: %s", name, s)
	}
	return visit.Num(f), nil
}

func newVisitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newAPIClient().GetVisit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printVisitDetail(cmd.OutOrStdout(), v)
			return nil
		},
	}
}
