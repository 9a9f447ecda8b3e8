package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/trackmate/internal/client"
	"github.com/evcraddock/trackmate/internal/dashboard"
	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printVisitTable prints one dashboard page as a formatted table followed by
// the dashboard counts.
func printVisitTable(out io.Writer, resp *client.VisitsResponse) error {
	if len(resp.Paginated) == 0 {
		_, err := fmt.Fprintln(out, "No visits found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "CODE\tORGANIZATION\tCITY\tPHASE\tDATE\tREPRESENTATIVE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t------------\t----\t-----\t----\t--------------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range resp.Paginated {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(v.VisitCode),
			orDash(truncate(v.Organization, 32)),
			orDash(dashboard.DisplayCity(v.City)),
			orDash(v.VisitPhase),
			orDash(v.DateTime),
			orDash(v.Representative)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nPage %d of %d. Total: %d visits, %d closed, %d pending follow-ups\n",
		resp.Page, resp.TotalPages, resp.TotalVisits, resp.SuccessfulConversions, resp.PendingFollowups)
	if err != nil {
		return err
	}

	if resp.Category == visit.Sales {
		_, err = fmt.Fprintf(out, "Averages: students %s, contract value %s, per-student rate %s\n",
			resp.Averages.StudentCount, resp.Averages.TotalContractValue, resp.Averages.PerStudentRate)
	}
	return err
}

// printVisitDetail prints a single visit in text format.
func printVisitDetail(w io.Writer, v *visit.Visit) {
	fmt.Fprintf(w, "Visit %s (%s)\n", orDash(v.VisitCode), v.Category.Label())
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-14s%s\n", label+":", value)
		}
	}
	line("Organization", v.Organization)
	line("City", dashboard.DisplayCity(v.City))
	line("State", v.State)
	line("Phase", v.VisitPhase)
	line("Date", v.DateTime)
	line("Contact", v.ContactName)
	line("Designation", v.ContactDesignation)
	line("Phone", v.ContactNumber)
	line("Email", v.ContactEmail)
	line("Rep", v.Representative)
	line("Purpose", v.VisitPurpose)
	line("Courses", v.Courses)
	line("Students", v.StudentCount.String())
	line("Contract", v.TotalContractValue.String())
	line("Rate", v.PerStudentRate.String())
}

// printExpenseTable prints expenses followed by their summary.
func printExpenseTable(out io.Writer, list []expense.Expense, sum expense.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No expenses recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "DATE\tORGANIZATION\tTYPE\tALLOCATED\tSPENT\tBALANCE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t------------\t----\t---------\t-----\t-------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, e := range list {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Date.Format("2006-01-02"),
			truncate(e.Organization, 32),
			orDash(e.VisitType),
			formatAmount(e.AllocatedAmount),
			formatAmount(e.SpentAmount),
			formatAmount(e.AllocatedAmount-e.SpentAmount)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d expenses, allocated %s, spent %s, balance %s\n",
		sum.Count, formatAmount(sum.AllocatedAmount), formatAmount(sum.SpentAmount), formatAmount(sum.Balance))
	return err
}

// formatAmount formats an amount with two decimals and comma grouping.
func formatAmount(f float64) string {
	s := strconv.FormatFloat(math.Abs(f), 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	out := strings.Join(parts, ",") + "." + frac
	if f < 0 && out != "0.00" {
		out = "-" + out
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
