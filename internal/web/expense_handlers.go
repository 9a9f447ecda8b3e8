package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/dashboard"
	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/logging"
)

type expensesResponse struct {
	Expenses   []expense.Expense `json:"expenses"`
	Summary    expense.Summary   `json:"summary"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// handleAPIExpenses routes /api/expenses.
func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	if s.expenses == nil {
		apiError(w, "expenses not available", http.StatusServiceUnavailable)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.apiListExpenses(w, r)
	case http.MethodPost:
		s.apiAddExpense(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListExpenses returns one page of expenses plus totals over all of them.
func (s *Server) apiListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCategory(q.Get("category"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := parsePage(q, expense.DefaultPageSize, s.maxPageSize)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := s.expenses.List(r.Context(), c)
	if err != nil {
		apiStoreError(w, r, "listing expenses", err)
		return
	}

	apiJSON(w, expensesResponse{
		Expenses:   dashboard.Paginate(list, p.Number, p.Size),
		Summary:    expense.Summarize(list),
		Page:       p.Number,
		PageSize:   p.Size,
		TotalPages: dashboard.TotalPages(len(list), p.Size),
	}, http.StatusOK)
}

// apiAddExpense splits a trip across its organizations and stores each share.
func (s *Server) apiAddExpense(w http.ResponseWriter, r *http.Request) {
	var in expense.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	list, err := expense.Split(in, s.now())
	if err != nil {
		apiStoreError(w, r, "splitting expense", err)
		return
	}

	stored, err := s.expenses.Add(r.Context(), list)
	if err != nil {
		apiStoreError(w, r, "adding expenses", err)
		return
	}

	logging.FromContext(r.Context()).Info("expenses recorded",
		zap.String("category", string(in.Category)),
		zap.Int("count", len(stored)),
	)
	apiJSON(w, stored, http.StatusCreated)
}
