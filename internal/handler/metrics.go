package handler

import (
	"net/http"

	"github.com/segyhp/loan-tracker/internal/service"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/response"

	"github.com/gorilla/mux"
)

func (h *LoanHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.DashboardMetrics(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, metrics)
}

func (h *LoanHandler) LoanMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.LoanMetrics(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, metrics)
}

// UpcomingDue lists loans due within ?days= (default 7).
func (h *LoanHandler) UpcomingDue(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", service.DefaultUpcomingDays)
	if err != nil || days < 0 {
		response.BadRequest(w, customError.ErrCodeInvalidRequest, "days must be a non-negative integer", err)
		return
	}

	loans, err := h.service.UpcomingDue(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) OverdueLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.OverdueLoans(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) Settings(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Settings())
}
