package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/evcraddock/trackmate/internal/db"
	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/visit"
	"github.com/evcraddock/trackmate/internal/visitcode"
)

// testServer creates a server backed by a temporary SQLite database.
func testServer(t *testing.T) *Server {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	logger := zaptest.NewLogger(t)
	srv, err := NewServer(Options{
		Visits:   visit.NewRepository(d),
		Codes:    visitcode.NewRegistry(visitcode.NewSQLCounter(d), logger),
		Expenses: expense.NewRepository(d),
		Logger:   logger,
		Health:   d.PingContext,
	})
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2025, 3, 12, 4, 45, 0, 0, time.UTC) }
	return srv
}

func apiRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func addVisit(t *testing.T, srv *Server, body map[string]any) visit.Visit {
	t.Helper()
	w := apiRequest(t, srv, http.MethodPost, "/api/visits", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var v visit.Visit
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func salesVisit(org, city, phase, dateTime string) map[string]any {
	return map[string]any{
		"category":     "sales",
		"organization": org,
		"city":         city,
		"visitPhase":   phase,
		"dateTime":     dateTime,
		"studentCount": 100,
	}
}

func TestNewServerRequiresStores(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthUnavailable(t *testing.T) {
	srv := testServer(t)
	srv.health = func(context.Context) error { return errors.New("db gone") }

	w := apiRequest(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)
	apiRequest(t, srv, http.MethodGet, "/api/visits", nil)

	w := apiRequest(t, srv, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trackmate_http_requests_total")
}

func TestAPIAddVisitIssuesCodes(t *testing.T) {
	srv := testServer(t)

	first := addVisit(t, srv, salesVisit("MIT", "Pune", "Lead", ""))
	second := addVisit(t, srv, salesVisit("COEP", "Pune", "Lead", "01/02/2025, 10:00:00 am"))
	placement := addVisit(t, srv, map[string]any{
		"category": "Placement", "organization": "Acme", "city": "Mumbai", "visitPhase": "Lead",
	})

	assert.Equal(t, "SALES_VISIT_01", first.VisitCode)
	assert.Equal(t, "SALES_VISIT_02", second.VisitCode)
	assert.Equal(t, "PLACEMENT_VISIT_01", placement.VisitCode)
	assert.Equal(t, visit.Placement, placement.Category)
	assert.Equal(t, "12/03/2025, 10:15:00 am", first.DateTime)
	assert.Equal(t, "01/02/2025, 10:00:00 am", second.DateTime)
	assert.Equal(t, 100.0, first.StudentCount.Float())
	assert.True(t, first.PerStudentRate.IsNull())
}

func TestAPIAddVisitValidation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"missing category", map[string]any{"organization": "MIT", "city": "Pune", "visitPhase": "Lead"}, "category is required"},
		{"unknown category", map[string]any{"category": "marketing", "organization": "MIT", "city": "Pune", "visitPhase": "Lead"}, "category must be one of"},
		{"missing organization", map[string]any{"category": "sales", "city": "Pune", "visitPhase": "Lead"}, "organization is required"},
		{"bad email", map[string]any{"category": "sales", "organization": "MIT", "city": "Pune", "visitPhase": "Lead", "contactEmail": "nope"}, "contactEmail must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, http.MethodPost, "/api/visits", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}

	// rejected requests must not consume codes
	v := addVisit(t, srv, salesVisit("MIT", "Pune", "Lead", ""))
	assert.Equal(t, "SALES_VISIT_01", v.VisitCode)
}

func TestAPIAddVisitInvalidJSON(t *testing.T) {
	srv := testServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/visits", strings.NewReader("{"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIListVisits(t *testing.T) {
	srv := testServer(t)
	addVisit(t, srv, salesVisit("A", "Pune ", "Lead", "05/01/2025, 10:00:00 am"))
	addVisit(t, srv, salesVisit("B", "pune", "Closure", "10/02/2025, 10:00:00 am"))
	addVisit(t, srv, salesVisit("C", "Mumbai", "Follow up - II", "15/03/2025, 10:00:00 am"))
	addVisit(t, srv, salesVisit("D", "Nagpur", "Follow up - I", "20/03/2025, 10:00:00 am"))

	tests := []struct {
		name      string
		query     string
		wantCodes []string
		wantTotal int
		wantPages int
	}{
		{"all", "", []string{"SALES_VISIT_04", "SALES_VISIT_03", "SALES_VISIT_02", "SALES_VISIT_01"}, 4, 1},
		{"city repeated", "?city=PUNE&city=mumbai", []string{"SALES_VISIT_03", "SALES_VISIT_02", "SALES_VISIT_01"}, 3, 1},
		{"city comma list", "?city=nagpur,%20mumbai", []string{"SALES_VISIT_04", "SALES_VISIT_03"}, 2, 1},
		{"date range", "?from=2025-02-01&to=2025-03-15", []string{"SALES_VISIT_03", "SALES_VISIT_02"}, 2, 1},
		{"month", "?month=3", []string{"SALES_VISIT_04", "SALES_VISIT_03"}, 2, 1},
		{"paged", "?per_page=3&page=2", []string{"SALES_VISIT_01"}, 4, 2},
		{"page far past the end", "?page=9223372036854775807", []string{}, 4, 1},
		{"placement is separate", "?category=placement", []string{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, http.MethodGet, "/api/visits"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp struct {
				Paginated   []visit.Visit `json:"paginated"`
				TotalVisits int           `json:"totalVisits"`
				TotalPages  int           `json:"totalPages"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

			got := make([]string, 0, len(resp.Paginated))
			for _, v := range resp.Paginated {
				got = append(got, v.VisitCode)
			}
			assert.Equal(t, tt.wantCodes, got)
			assert.Equal(t, tt.wantTotal, resp.TotalVisits)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
		})
	}
}

func TestAPIListVisitsStatsAndExtras(t *testing.T) {
	srv := testServer(t)
	addVisit(t, srv, salesVisit("A", "pune ", "Lead", ""))
	addVisit(t, srv, salesVisit("B", "Pune", "Closure", ""))
	addVisit(t, srv, salesVisit("C", "mumbai", "Follow up - II", ""))
	addVisit(t, srv, salesVisit("D", "Nagpur", "Follow up - I", ""))

	w := apiRequest(t, srv, http.MethodGet, "/api/visits", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Category              string        `json:"category"`
		SuccessfulConversions int           `json:"successfulConversions"`
		PendingFollowups      int           `json:"pendingFollowups"`
		Cities                []string      `json:"cities"`
		Recent                []visit.Visit `json:"recent"`
		Averages              struct {
			StudentCount string `json:"studentCount"`
		} `json:"averages"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "sales", resp.Category)
	assert.Equal(t, 1, resp.SuccessfulConversions)
	assert.Equal(t, 2, resp.PendingFollowups)
	assert.Equal(t, []string{"Mumbai", "Nagpur", "Pune"}, resp.Cities)
	assert.Len(t, resp.Recent, RecentCount)
	assert.Equal(t, "SALES_VISIT_04", resp.Recent[0].VisitCode)
	assert.Equal(t, "100.00", resp.Averages.StudentCount)
}

func TestAPIExportVisitsHugePage(t *testing.T) {
	srv := testServer(t)
	addVisit(t, srv, salesVisit("A", "Pune", "Lead", "05/01/2025, 10:00:00 am"))

	w := apiRequest(t, srv, http.MethodGet, "/api/visits/export?page=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAPIListVisitsBadQuery(t *testing.T) {
	srv := testServer(t)

	for _, q := range []string{
		"?category=marketing",
		"?from=12/03/2025",
		"?to=yesterday",
		"?from=2025-03-02&to=2025-03-01",
		"?month=13",
		"?month=march",
		"?page=0",
		"?per_page=-1",
	} {
		t.Run(q, func(t *testing.T) {
			w := apiRequest(t, srv, http.MethodGet, "/api/visits"+q, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAPIVisitsMethodNotAllowed(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, http.MethodDelete, "/api/visits", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = apiRequest(t, srv, http.MethodPost, "/api/visits/export", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAPIGetVisit(t *testing.T) {
	srv := testServer(t)
	v := addVisit(t, srv, salesVisit("MIT", "Pune", "Lead", ""))

	w := apiRequest(t, srv, http.MethodGet, "/api/visits/"+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got visit.Visit
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, v.VisitCode, got.VisitCode)

	w = apiRequest(t, srv, http.MethodGet, "/api/visits/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIExportVisits(t *testing.T) {
	srv := testServer(t)
	addVisit(t, srv, salesVisit(`St. Mary's, "Central"`, "Pune", "Lead", ""))
	addVisit(t, srv, salesVisit("COEP", "Mumbai", "Lead", ""))

	w := apiRequest(t, srv, http.MethodGet, "/api/visits/export?city=pune", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales_visits.csv"`, w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "visitCode", records[0][2])
	assert.Equal(t, "SALES_VISIT_01", records[1][2])
	assert.Equal(t, `St. Mary's, "Central"`, records[1][3])
}

func TestAPINextCode(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, http.MethodGet, "/api/codes/next?category=placement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"category":"placement","visitCode":"PLACEMENT_VISIT_01"}`, w.Body.String())

	// peeking does not reserve
	w = apiRequest(t, srv, http.MethodGet, "/api/codes/next?category=placement", nil)
	assert.JSONEq(t, `{"category":"placement","visitCode":"PLACEMENT_VISIT_01"}`, w.Body.String())

	addVisit(t, srv, salesVisit("MIT", "Pune", "Lead", ""))
	w = apiRequest(t, srv, http.MethodGet, "/api/codes/next", nil)
	assert.JSONEq(t, `{"category":"sales","visitCode":"SALES_VISIT_02"}`, w.Body.String())

	w = apiRequest(t, srv, http.MethodGet, "/api/codes/next?category=hr", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIExpenses(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"category":        "sales",
		"organizations":   []string{"MIT", "COEP", "VIT"},
		"visitType":       "Initial",
		"allocatedAmount": 3000,
		"spentAmount":     2700,
		"fuel":            900,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []expense.Expense
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	require.Len(t, created, 3)
	assert.Equal(t, 300.0, created[0].Fuel)

	w = apiRequest(t, srv, http.MethodGet, "/api/expenses?per_page=2&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp expensesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Expenses, 1)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 3, resp.Summary.Count)
	assert.InDelta(t, 2700.0, resp.Summary.SpentAmount, 0.001)
	assert.InDelta(t, 300.0, resp.Summary.Balance, 0.001)

	w = apiRequest(t, srv, http.MethodGet, "/api/expenses", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 11, resp.PageSize)
}

func TestAPIExpensesValidation(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"category":      "sales",
		"organizations": []string{},
		"visitType":     "Initial",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "organizations")
}
