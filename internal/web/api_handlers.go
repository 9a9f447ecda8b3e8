package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/apperrors"
	"github.com/evcraddock/trackmate/internal/dashboard"
	"github.com/evcraddock/trackmate/internal/logging"
	"github.com/evcraddock/trackmate/internal/metrics"
	"github.com/evcraddock/trackmate/internal/validator"
	"github.com/evcraddock/trackmate/internal/visit"
)

// RecentCount is how many visits the recent-activity list shows.
const RecentCount = 3

const maxBodyBytes = 1 << 20

// indiaTime is the zone visit timestamps are written in.
var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiStoreError maps store and validation errors to a status code.
func apiStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case apperrors.IsValidation(err):
		apiError(w, err.Error(), http.StatusBadRequest)
	case apperrors.IsNotFound(err):
		apiError(w, err.Error(), http.StatusNotFound)
	case apperrors.IsDuplicate(err):
		apiError(w, err.Error(), http.StatusConflict)
	case apperrors.IsBusy(err):
		apiError(w, "store busy, retry later", http.StatusServiceUnavailable)
	default:
		logging.FromContext(r.Context()).Error(action, zap.Error(err))
		apiError(w, fmt.Sprintf("%s: %v", action, err), http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleAPIVisits routes /api/visits.
func (s *Server) handleAPIVisits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.apiListVisits(w, r)
	case http.MethodPost:
		s.apiAddVisit(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPIVisitRoute routes /api/visits/export and /api/visits/{id}.
func (s *Server) handleAPIVisitRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/visits/"), "/")
	if path == "" {
		s.handleAPIVisits(w, r)
		return
	}
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if path == "export" {
		s.apiExportVisits(w, r)
		return
	}
	if strings.Contains(path, "/") {
		apiError(w, "not found", http.StatusNotFound)
		return
	}
	s.apiGetVisit(w, r, path)
}

type visitsResponse struct {
	dashboard.Result
	Category visit.Category `json:"category"`
	Cities   []string       `json:"cities"`
	Recent   []visit.Visit  `json:"recent"`
}

// apiListVisits returns the filtered, paginated dashboard view.
func (s *Server) apiListVisits(w http.ResponseWriter, r *http.Request) {
	q, err := parseVisitQuery(r.URL.Query(), s.maxPageSize)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	all, err := s.visits.List(r.Context(), q.Category)
	if err != nil {
		apiStoreError(w, r, "listing visits", err)
		return
	}

	res := dashboard.Process(all, q.Filter, q.Page)
	metrics.DashboardFilteredVisits.Observe(float64(res.TotalVisits))

	apiJSON(w, visitsResponse{
		Result:   res,
		Category: q.Category,
		Cities:   dashboard.CityOptions(all),
		Recent:   dashboard.Recent(res.Filtered, RecentCount),
	}, http.StatusOK)
}

// apiExportVisits streams the filtered view as a CSV download.
func (s *Server) apiExportVisits(w http.ResponseWriter, r *http.Request) {
	q, err := parseVisitQuery(r.URL.Query(), s.maxPageSize)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	all, err := s.visits.List(r.Context(), q.Category)
	if err != nil {
		apiStoreError(w, r, "listing visits", err)
		return
	}

	res := dashboard.Process(all, q.Filter, q.Page)

	var buf bytes.Buffer
	if err := dashboard.WriteCSV(&buf, res.Filtered); err != nil {
		apiStoreError(w, r, "exporting visits", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dashboard.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("writing csv response", zap.Error(err))
	}
}

// apiGetVisit returns a single visit.
func (s *Server) apiGetVisit(w http.ResponseWriter, r *http.Request, id string) {
	v, err := s.visits.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			apiError(w, "visit not found", http.StatusNotFound)
			return
		}
		apiStoreError(w, r, "getting visit", err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

type createVisitRequest struct {
	Category           visit.Category `json:"category" validate:"required,oneof=sales placement"`
	Organization       string         `json:"organization" validate:"required,max=200"`
	City               string         `json:"city" validate:"required,max=100"`
	State              string         `json:"state" validate:"max=100"`
	VisitPhase         string         `json:"visitPhase" validate:"required,max=100"`
	DateTime           string         `json:"dateTime" validate:"max=100"`
	ContactName        string         `json:"contactName" validate:"max=200"`
	ContactDesignation string         `json:"contactDesignation" validate:"max=200"`
	ContactNumber      string         `json:"contactNumber" validate:"max=50"`
	ContactEmail       string         `json:"contactEmail" validate:"omitempty,email"`
	Representative     string         `json:"representative" validate:"max=200"`
	VisitPurpose       string         `json:"visitPurpose" validate:"max=500"`
	Courses            string         `json:"courses" validate:"max=500"`
	StudentCount       visit.Amount   `json:"studentCount"`
	TotalContractValue visit.Amount   `json:"totalContractValue"`
	PerStudentRate     visit.Amount   `json:"perStudentRate"`
	Extra              map[string]any `json:"extra"`
}

func (req createVisitRequest) toVisit(code, dateTime string) visit.Visit {
	return visit.Visit{
		Category:           req.Category,
		VisitCode:          code,
		Organization:       strings.TrimSpace(req.Organization),
		City:               strings.TrimSpace(req.City),
		State:              strings.TrimSpace(req.State),
		VisitPhase:         strings.TrimSpace(req.VisitPhase),
		DateTime:           dateTime,
		ContactName:        req.ContactName,
		ContactDesignation: req.ContactDesignation,
		ContactNumber:      req.ContactNumber,
		ContactEmail:       req.ContactEmail,
		Representative:     req.Representative,
		VisitPurpose:       req.VisitPurpose,
		Courses:            req.Courses,
		StudentCount:       req.StudentCount,
		TotalContractValue: req.TotalContractValue,
		PerStudentRate:     req.PerStudentRate,
		Extra:              req.Extra,
	}
}

// FormatVisitTime renders t the way the visit forms stamp records.
func FormatVisitTime(t time.Time) string {
	return t.In(indiaTime).Format("02/01/2006, 03:04:05 pm")
}

// apiAddVisit issues the next code for the category and stores the visit.
func (s *Server) apiAddVisit(w http.ResponseWriter, r *http.Request) {
	var req createVisitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Category = visit.Category(strings.ToLower(strings.TrimSpace(string(req.Category))))
	if err := validator.Validate(req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	svc, err := s.codes.For(req.Category)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	code, err := svc.Next(r.Context())
	if err != nil {
		apiStoreError(w, r, "issuing visit code", err)
		return
	}

	dateTime := strings.TrimSpace(req.DateTime)
	if dateTime == "" {
		dateTime = FormatVisitTime(s.now())
	}

	v := req.toVisit(code, dateTime)
	stored, err := s.visits.Add(r.Context(), &v)
	if err != nil {
		apiStoreError(w, r, "adding visit", err)
		return
	}

	logging.FromContext(r.Context()).Info("visit recorded",
		zap.String("category", string(stored.Category)),
		zap.String("visit_code", stored.VisitCode),
	)
	apiJSON(w, stored, http.StatusCreated)
}

// apiNextCode previews the next visit code without reserving it.
func (s *Server) apiNextCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, err := parseCategory(r.URL.Query().Get("category"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	svc, err := s.codes.For(c)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	code, err := svc.Peek(r.Context())
	if err != nil {
		apiStoreError(w, r, "reading visit code", err)
		return
	}
	apiJSON(w, map[string]string{"category": string(c), "visitCode": code}, http.StatusOK)
}
