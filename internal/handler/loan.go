package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/service"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/response"
	"github.com/segyhp/loan-tracker/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewLoanHandler(service *service.LoanService, logger *slog.Logger) *LoanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanHandler{
		service:   service,
		validator: validation.New(),
		logger:    logger,
	}
}

// decode reads and validates a JSON body. It writes the 400 itself and reports false
// when the request should not proceed.
func (h *LoanHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, customError.ErrCodeInvalidRequest, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, customError.ErrCodeInvalidRequest, validation.Describe(err), nil)
		return false
	}
	return true
}

// fail maps a service error onto an HTTP status by its business code.
func (h *LoanHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := customError.Code(err)

	var be *customError.BusinessError
	message := err.Error()
	if customError.As(err, &be) {
		message = be.Message
	}

	switch code {
	case customError.ErrCodeLoanNotFound, customError.ErrCodeBorrowerNotFound, customError.ErrCodePaymentNotFound:
		response.NotFound(w, code, message)
	case customError.ErrCodeBorrowerHasLoans, customError.ErrCodeLoanArchived, customError.ErrCodeLoanNotPaid:
		response.Conflict(w, code, message, nil)
	case customError.ErrCodeInvalidRequest, customError.ErrCodeInvalidAllocation:
		response.BadRequest(w, code, message, nil)
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.InternalServerError(w, code, "Internal server error", nil)
	}
}

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, loan)
}

func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.LoanFilter{
		Status:     domain.LoanStatus(q.Get("status")),
		BorrowerID: q.Get("borrower_id"),
	}

	loans, err := h.service.ListLoans(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.service.UpdateLoan(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLoan(r.Context(), mux.Vars(r)["loanId"]); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *LoanHandler) ArchiveLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.ArchiveLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

// RefreshStatus re-derives one loan's status as of now.
func (h *LoanHandler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.RefreshStatus(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loan)
}

// RefreshAllStatuses runs the status sweep on demand.
func (h *LoanHandler) RefreshAllStatuses(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.RefreshAllStatuses(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, map[string]int{"updated": updated})
}

func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	outstanding, err := h.service.GetOutstanding(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, outstanding)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, schedule)
}

// PreviewAllocation splits ?amount= with the loan's ratio without recording it.
func (h *LoanHandler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		response.BadRequest(w, customError.ErrCodeInvalidRequest, "amount must be a decimal number", err)
		return
	}

	preview, err := h.service.PreviewAllocation(r.Context(), mux.Vars(r)["loanId"], amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, preview)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
