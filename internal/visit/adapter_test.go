package visit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromRawSales(t *testing.T) {
	raw := map[string]any{
		"Visit Code":           "SALES_VISIT_07",
		"College Name":         "MIT Pune",
		"City":                 "Pune",
		"Visit Phase":          "Follow up - II",
		"dateandtime":          "12/03/2025, 10:15:00 am",
		"Student Count":        120.0,
		"Total Contract Value": "240000",
		"Per Student Rate":     nil,
		"MOU":                  "pending",
	}

	got := FromRaw(Sales, "", raw)

	want := Visit{
		ID:                 "SALES_VISIT_07",
		Category:           Sales,
		VisitCode:          "SALES_VISIT_07",
		Organization:       "MIT Pune",
		City:               "Pune",
		VisitPhase:         "Follow up - II",
		DateTime:           "12/03/2025, 10:15:00 am",
		StudentCount:       Num(120),
		TotalContractValue: Amount{Raw: "240000"},
		PerStudentRate:     Amount{},
		Extra:              map[string]any{"MOU": "pending"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromRaw mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRawPlacement(t *testing.T) {
	raw := map[string]any{
		"visitCode":   "PLACEMENT_VISIT_03",
		"companyName": "Acme",
		"city":        "Mumbai",
		"crRep":       "Asha",
		"industry":    "IT",
	}

	got := FromRaw(Placement, "doc-1", raw)

	if got.ID != "doc-1" || got.Organization != "Acme" || got.Representative != "Asha" {
		t.Errorf("unexpected mapping: %+v", got)
	}
	if got.Extra["industry"] != "IT" {
		t.Errorf("industry should pass through Extra, got %v", got.Extra)
	}
}

func TestRawRoundTrip(t *testing.T) {
	for _, v := range []Visit{
		{ID: "SALES_VISIT_01", Category: Sales, VisitCode: "SALES_VISIT_01", City: "Pune", StudentCount: Num(10), Extra: map[string]any{"Proposal": "sent"}},
		{ID: "PLACEMENT_VISIT_01", Category: Placement, VisitCode: "PLACEMENT_VISIT_01", Organization: "Acme", ContactEmail: "hr@acme.test"},
	} {
		got := FromRaw(v.Category, "", ToRaw(v))
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("%s round trip (-want +got):\n%s", v.Category, diff)
		}
	}
}

func TestExtraKeys(t *testing.T) {
	visits := []Visit{
		{Extra: map[string]any{"b": 1, "a": 2}},
		{},
		{Extra: map[string]any{"c": 3, "a": 4}},
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ExtraKeys(visits)); diff != "" {
		t.Errorf("ExtraKeys (-want +got):\n%s", diff)
	}
}
