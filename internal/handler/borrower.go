package handler

import (
	"net/http"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/response"

	"github.com/gorilla/mux"
)

func (h *LoanHandler) CreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBorrowerRequest
	if !h.decode(w, r, &req) {
		return
	}

	borrower, err := h.service.CreateBorrower(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, borrower)
}

func (h *LoanHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	borrowers, err := h.service.ListBorrowers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, borrowers)
}

func (h *LoanHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	borrower, err := h.service.GetBorrower(r.Context(), mux.Vars(r)["borrowerId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, borrower)
}

func (h *LoanHandler) UpdateBorrower(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBorrowerRequest
	if !h.decode(w, r, &req) {
		return
	}

	borrower, err := h.service.UpdateBorrower(r.Context(), mux.Vars(r)["borrowerId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, borrower)
}

func (h *LoanHandler) DeleteBorrower(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBorrower(r.Context(), mux.Vars(r)["borrowerId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}
