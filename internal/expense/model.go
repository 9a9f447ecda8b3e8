// Package expense records money spent on visit trips.
package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/trackmate/internal/validator"
	"github.com/evcraddock/trackmate/internal/visit"
)

// DefaultPageSize is the expense table page size.
const DefaultPageSize = 11

// Expense is the share of one trip's spending booked against one organization.
type Expense struct {
	ID              string         `json:"id"`
	Category        visit.Category `json:"category"`
	Organization    string         `json:"organization"`
	VisitType       string         `json:"visitType"`
	AllocatedAmount float64        `json:"allocatedAmount"`
	SpentAmount     float64        `json:"spentAmount"`
	Food            float64        `json:"food"`
	Fuel            float64        `json:"fuel"`
	Stay            float64        `json:"stay"`
	Toll            float64        `json:"toll"`
	Remarks         string         `json:"remarks,omitempty"`
	Date            time.Time      `json:"date"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Input is one submitted trip. Its amounts are divided evenly across Organizations.
type Input struct {
	Category        visit.Category `json:"category" validate:"required,oneof=sales placement"`
	Organizations   []string       `json:"organizations" validate:"required,min=1,dive,required"`
	VisitType       string         `json:"visitType" validate:"required"`
	AllocatedAmount float64        `json:"allocatedAmount" validate:"required,gt=0"`
	SpentAmount     float64        `json:"spentAmount" validate:"required,gt=0"`
	Food            float64        `json:"food" validate:"gte=0"`
	Fuel            float64        `json:"fuel" validate:"gte=0"`
	Stay            float64        `json:"stay" validate:"gte=0"`
	Toll            float64        `json:"toll" validate:"gte=0"`
	Remarks         string         `json:"remarks" validate:"max=500"`
	Date            time.Time      `json:"date"`
}

// Split validates in and returns one Expense per organization, each carrying
// an equal share of every amount. A zero Date means now.
func Split(in Input, now time.Time) ([]Expense, error) {
	orgs := make([]string, 0, len(in.Organizations))
	for _, o := range in.Organizations {
		if o = strings.TrimSpace(o); o != "" {
			orgs = append(orgs, o)
		}
	}
	in.Organizations = orgs
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}

	n := float64(len(orgs))
	out := make([]Expense, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, Expense{
			Category:        in.Category,
			Organization:    org,
			VisitType:       in.VisitType,
			AllocatedAmount: in.AllocatedAmount / n,
			SpentAmount:     in.SpentAmount / n,
			Food:            in.Food / n,
			Fuel:            in.Fuel / n,
			Stay:            in.Stay / n,
			Toll:            in.Toll / n,
			Remarks:         in.Remarks,
			Date:            date.UTC(),
		})
	}
	return out, nil
}

// Summary totals a list of expenses.
type Summary struct {
	Count           int     `json:"count"`
	AllocatedAmount float64 `json:"allocatedAmount"`
	SpentAmount     float64 `json:"spentAmount"`
	Balance         float64 `json:"balance"`
	Food            float64 `json:"food"`
	Fuel            float64 `json:"fuel"`
	Stay            float64 `json:"stay"`
	Toll            float64 `json:"toll"`
}

// Summarize adds up every bucket of list.
func Summarize(list []Expense) Summary {
	var s Summary
	for _, e := range list {
		s.Count++
		s.AllocatedAmount += e.AllocatedAmount
		s.SpentAmount += e.SpentAmount
		s.Food += e.Food
		s.Fuel += e.Fuel
		s.Stay += e.Stay
		s.Toll += e.Toll
	}
	s.Balance = s.AllocatedAmount - s.SpentAmount
	return s
}

// ByOrganization groups totals per organization, as in the per-college
// transaction view.
func ByOrganization(list []Expense) map[string]Summary {
	groups := make(map[string][]Expense)
	for _, e := range list {
		groups[e.Organization] = append(groups[e.Organization], e)
	}
	out := make(map[string]Summary, len(groups))
	for org, items := range groups {
		out[org] = Summarize(items)
	}
	return out
}

func (e Expense) String() string {
	return fmt.Sprintf("%s %s %.2f/%.2f", e.Date.Format("02/01/2006"), e.Organization, e.SpentAmount, e.AllocatedAmount)
}
