package handler

import (
	"net/http"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/response"

	"github.com/gorilla/mux"
)

func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RecordPayment(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, payments)
}

func (h *LoanHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdatePayment(r.Context(), mux.Vars(r)["paymentId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, result)
}

// DeletePayment returns the owning loan with its re-derived status.
func (h *LoanHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.DeletePayment(r.Context(), mux.Vars(r)["paymentId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}
